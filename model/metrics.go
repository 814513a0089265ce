package model

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ROCPoint is one receiver-operating-characteristic curve vertex; a
// sample is called positive when its score >= Threshold.
type ROCPoint struct {
	Threshold, FPR, TPR float64
}

// PRPoint is one precision-recall curve vertex.
type PRPoint struct {
	Threshold, Precision, Recall float64
}

// Confusion holds a 2×2 contingency at a fixed threshold.
type Confusion struct {
	TP, FP, TN, FN int
}

// ConfusionAt tallies the confusion counts at threshold thr.
func ConfusionAt(y []int, p []float64, thr float64) Confusion {
	var c Confusion
	for i := range y {
		pos := p[i] >= thr
		switch {
		case pos && y[i] == 1:
			c.TP++
		case pos:
			c.FP++
		case y[i] == 1:
			c.FN++
		default:
			c.TN++
		}
	}
	return c
}

func (c Confusion) Accuracy() float64 {
	n := c.TP + c.FP + c.TN + c.FN
	if n == 0 {
		return math.NaN()
	}
	return float64(c.TP+c.TN) / float64(n)
}

func (c Confusion) Sensitivity() float64 {
	if c.TP+c.FN == 0 {
		return math.NaN()
	}
	return float64(c.TP) / float64(c.TP+c.FN)
}

func (c Confusion) Specificity() float64 {
	if c.TN+c.FP == 0 {
		return math.NaN()
	}
	return float64(c.TN) / float64(c.TN+c.FP)
}

// Kappa is Cohen's chance-corrected agreement.
func (c Confusion) Kappa() float64 {
	n := float64(c.TP + c.FP + c.TN + c.FN)
	if n == 0 {
		return math.NaN()
	}
	po := float64(c.TP+c.TN) / n
	pe := (float64(c.TP+c.FN)*float64(c.TP+c.FP) + float64(c.FP+c.TN)*float64(c.FN+c.TN)) / (n * n)
	if pe == 1. {
		return math.NaN()
	}
	return (po - pe) / (1. - pe)
}

// Stats are the derived statistics of one evaluation unit. Valid is
// false for a degenerate (single-class) unit, in which case the scalar
// metrics are NaN and the curves are nil.
type Stats struct {
	N, N0, N1 int
	Valid     bool

	Threshold   float64 // maximizes sensitivity+specificity
	Accuracy    float64
	Sensitivity float64
	Specificity float64
	Kappa       float64
	AUCROC      float64
	AUCPR       float64

	ROC []ROCPoint
	PR  []PRPoint
}

// Evaluate computes threshold, confusion statistics, AUCs and curve data
// for scored samples. Scores are class-1 probabilities/vote fractions in
// [0,1].
func Evaluate(y []int, p []float64) *Stats {
	s := Stats{N: len(y)}
	for _, yi := range y {
		if yi == 1 {
			s.N1++
		} else {
			s.N0++
		}
	}
	if s.N0 == 0 || s.N1 == 0 {
		s.Threshold, s.Accuracy, s.Sensitivity, s.Specificity, s.Kappa, s.AUCROC, s.AUCPR =
			math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN()
		return &s
	}
	s.Valid = true
	s.ROC, s.PR = curves(y, p)
	s.AUCROC = aucROC(s.ROC)
	s.AUCPR = aucPR(s.PR)

	// optimal threshold: maximize sensitivity+specificity over the
	// distinct scores and the bounds 0 and 1, lowest threshold on ties
	cands := make([]float64, 0, len(s.ROC)+2)
	cands = append(cands, 1.)
	for _, pt := range s.ROC {
		if pt.Threshold > 0. && pt.Threshold < 1. {
			cands = append(cands, pt.Threshold)
		}
	}
	cands = append(cands, 0.)
	best := math.Inf(-1)
	for _, thr := range cands {
		c := ConfusionAt(y, p, thr)
		if j := c.Sensitivity() + c.Specificity(); j >= best {
			best = j
			s.Threshold = thr
		}
	}
	c := ConfusionAt(y, p, s.Threshold)
	s.Accuracy, s.Sensitivity, s.Specificity, s.Kappa = c.Accuracy(), c.Sensitivity(), c.Specificity(), c.Kappa()
	return &s
}

// curves walks the samples in descending score order emitting one vertex
// per distinct score (the vertex includes all samples at that score).
func curves(y []int, p []float64) ([]ROCPoint, []PRPoint) {
	type pair struct {
		s float64
		y int
	}
	n := len(y)
	ps := make([]pair, n)
	pos := 0
	for i := range y {
		ps[i] = pair{p[i], y[i]}
		pos += y[i]
	}
	neg := n - pos
	sort.Slice(ps, func(i, j int) bool { return ps[i].s > ps[j].s })

	var roc []ROCPoint
	var pr []PRPoint
	tp, fp := 0, 0
	for i := 0; i < n; {
		thr := ps[i].s
		for i < n && ps[i].s == thr {
			tp += ps[i].y
			fp += 1 - ps[i].y
			i++
		}
		roc = append(roc, ROCPoint{thr, float64(fp) / float64(neg), float64(tp) / float64(pos)})
		pr = append(pr, PRPoint{thr, float64(tp) / float64(tp+fp), float64(tp) / float64(pos)})
	}
	return roc, pr
}

// aucROC integrates by trapezoid from the (0,0) anchor.
func aucROC(roc []ROCPoint) float64 {
	auc, fpr0, tpr0 := 0., 0., 0.
	for _, pt := range roc {
		auc += (pt.FPR - fpr0) * (pt.TPR + tpr0) / 2.
		fpr0, tpr0 = pt.FPR, pt.TPR
	}
	auc += (1. - fpr0) * (1. + tpr0) / 2.
	return auc
}

// aucPR integrates by right-point steps over recall.
func aucPR(pr []PRPoint) float64 {
	auc, rec0 := 0., 0.
	for _, pt := range pr {
		auc += (pt.Recall - rec0) * pt.Precision
		rec0 = pt.Recall
	}
	return auc
}

// PercentileSet is the fixed percentile grid reported per class.
var PercentileSet = []float64{0, 1, 5, 10, 25, 50, 75, 90, 95, 99, 100}

// Percentiles evaluates PercentileSet over the values.
func Percentiles(v []float64) []float64 {
	s := make([]float64, len(v))
	copy(s, v)
	sort.Float64s(s)
	o := make([]float64, len(PercentileSet))
	for i, q := range PercentileSet {
		if len(s) == 0 {
			o[i] = math.NaN()
			continue
		}
		switch q {
		case 0:
			o[i] = s[0]
		case 100:
			o[i] = s[len(s)-1]
		default:
			o[i] = stat.Quantile(q/100., stat.Empirical, s, nil)
		}
	}
	return o
}
