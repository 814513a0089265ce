package postpro

import (
	"fmt"
	"math"

	"github.com/maseology/mmio"
	"go.uber.org/zap"

	"github.com/VANatHeritage/ConsVision-DevVulnModel/model"
	"github.com/VANatHeritage/ConsVision-DevVulnModel/spatial"
)

// Results are the two validation evaluations of one model year: the raw
// surface (continuous vote fraction × 100) and the final adjusted
// product (conservation-scaled, already-developed and open-water cells
// struck from the evaluation, undevelopable cells scored zero).
type Results struct {
	Raw, Adjusted *model.Stats
	NOutside      int // points outside the active grid extent
}

// Validate samples the finished rasters at the validation points and
// evaluates both surfaces, writing the statistics, per-class score
// percentiles and curve vertices to csv alongside the pooled
// cross-validation result for comparison.
func Validate(s *spatial.Stack, pts []ValPoint, rawfp, adjfp, outprefix string, pooled *model.Stats, lg *zap.Logger) (*Results, error) {
	raw, err := spatial.ReadBil(rawfp, s.Ncell)
	if err != nil {
		return nil, fmt.Errorf("Validate: %w", err)
	}
	adj, err := spatial.ReadBilInt(adjfp, s.Ncell)
	if err != nil {
		return nil, fmt.Errorf("Validate: %w", err)
	}

	ci := newCellIndex(s.GD)
	var r Results
	var yr, ya []int
	var pr, pa []float64
	for _, pt := range pts {
		cid, ok := ci.cid(pt.X, pt.Y)
		if !ok {
			r.NOutside++
			continue
		}
		if v := raw[cid]; v > spatial.Nodata {
			yr = append(yr, pt.Label)
			pr = append(pr, v/100.)
		}
		switch v := adj[cid]; {
		case v == spatial.NodataInt || v == spatial.Developed:
			// struck from the adjusted evaluation
		case v < 0:
			ya = append(ya, pt.Label)
			pa = append(pa, 0.)
		default:
			ya = append(ya, pt.Label)
			pa = append(pa, float64(v)/100.)
		}
	}
	if r.NOutside > 0 {
		lg.Warn("validation points outside active grid extent", zap.Int("npoints", r.NOutside))
	}
	if len(yr) == 0 {
		return nil, fmt.Errorf("Validate: no validation points with scores")
	}

	r.Raw = model.Evaluate(yr, pr)
	r.Adjusted = model.Evaluate(ya, pa)
	lg.Info("validation evaluated",
		zap.Int("nraw", len(yr)), zap.Int("nadjusted", len(ya)),
		zap.Float64("aucroc_raw", r.Raw.AUCROC), zap.Float64("aucroc_adjusted", r.Adjusted.AUCROC))

	if err := writeStats(outprefix+".valstats.csv", &r, pooled); err != nil {
		return nil, err
	}
	if err := writePercentiles(outprefix+".valptiles.csv", yr, pr, ya, pa); err != nil {
		return nil, err
	}
	if err := writeCurves(outprefix, &r, pooled); err != nil {
		return nil, err
	}
	return &r, nil
}

func fna(v float64) interface{} {
	if math.IsNaN(v) {
		return "NA"
	}
	return v
}

func writeStats(fp string, r *Results, pooled *model.Stats) error {
	csvw := mmio.NewCSVwriter(fp)
	defer csvw.Close()
	if err := csvw.WriteHead("dataset,nsamp,class0,class1,aucroc,aucpr,threshold,accuracy,sensitivity,specificity,kappa"); err != nil {
		return fmt.Errorf("writeStats %s: %w", fp, err)
	}
	w := func(nam string, s *model.Stats) {
		csvw.WriteLine(nam, s.N, s.N0, s.N1, fna(s.AUCROC), fna(s.AUCPR),
			fna(s.Threshold), fna(s.Accuracy), fna(s.Sensitivity), fna(s.Specificity), fna(s.Kappa))
	}
	w("raw", r.Raw)
	w("adjusted", r.Adjusted)
	if pooled != nil {
		w("cvpooled", pooled)
	}
	return nil
}

func writePercentiles(fp string, yr []int, pr []float64, ya []int, pa []float64) error {
	csvw := mmio.NewCSVwriter(fp)
	defer csvw.Close()
	if err := csvw.WriteHead("dataset,label,ptile,score"); err != nil {
		return fmt.Errorf("writePercentiles %s: %w", fp, err)
	}
	w := func(nam string, y []int, p []float64) {
		for lbl := 0; lbl <= 1; lbl++ {
			var v []float64
			for i := range y {
				if y[i] == lbl {
					v = append(v, 100.*p[i])
				}
			}
			pt := model.Percentiles(v)
			for i, q := range model.PercentileSet {
				csvw.WriteLine(nam, lbl, q, fna(pt[i]))
			}
		}
	}
	w("raw", yr, pr)
	w("adjusted", ya, pa)
	return nil
}

func writeCurves(prefix string, r *Results, pooled *model.Stats) error {
	type curve struct {
		nam string
		s   *model.Stats
	}
	cs := []curve{{"raw", r.Raw}, {"adjusted", r.Adjusted}}
	if pooled != nil {
		cs = append(cs, curve{"cvpooled", pooled})
	}

	roc := mmio.NewCSVwriter(prefix + ".valroc.csv")
	defer roc.Close()
	if err := roc.WriteHead("dataset,threshold,fpr,tpr"); err != nil {
		return fmt.Errorf("writeCurves: %w", err)
	}
	for _, c := range cs {
		for _, pt := range c.s.ROC {
			roc.WriteLine(c.nam, pt.Threshold, pt.FPR, pt.TPR)
		}
	}

	pr := mmio.NewCSVwriter(prefix + ".valpr.csv")
	defer pr.Close()
	if err := pr.WriteHead("dataset,threshold,precision,recall"); err != nil {
		return fmt.Errorf("writeCurves: %w", err)
	}
	for _, c := range cs {
		for _, pt := range c.s.PR {
			pr.WriteLine(c.nam, pt.Threshold, pt.Precision, pt.Recall)
		}
	}
	return nil
}
