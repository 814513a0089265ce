package forest

import (
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"strings"
	"sync"

	mrg63k3a "github.com/maseology/goRNG/MRG63k3a"

	"github.com/VANatHeritage/ConsVision-DevVulnModel/sample"
)

// Options configure one ensemble fit.
type Options struct {
	NTrees   int     // trees grown
	Mtry     int     // features considered per split; <=0 for sqrt(p)
	MinLeaf  int     // minimum child size
	Fraction float64 // share of the minority class drawn per tree
	Balance  float64 // class-1 draw size relative to class-0
	Seed     int64
	NWorkers int // <=0 for cores-1
}

// SetDefaults fills unset options.
func (o *Options) SetDefaults() {
	if o.NTrees <= 0 {
		o.NTrees = 500
	}
	if o.MinLeaf <= 0 {
		o.MinLeaf = 1
	}
	if o.Fraction <= 0 {
		o.Fraction = 1.
	}
	if o.Balance <= 0 {
		o.Balance = 1.
	}
	if o.NWorkers <= 0 {
		o.NWorkers = runtime.NumCPU() - 1
		if o.NWorkers < 1 {
			o.NWorkers = 1
		}
	}
}

// Classifier is an immutable fitted ensemble. OOB fields are aligned 1:1
// with the training samples.
type Classifier struct {
	NTrees, Mtry, MinLeaf int
	N0, N1                int // per-tree stratified draw sizes
	Seed                  int64
	Names                 []string
	Trees                 []Tree
	InBag                 [][]bool
	OOBVotes              [][2]int
	OOBPred               []float64 // oob vote fraction for class 1; NaN if never oob
	ConfMat               [2][2]int // label × oob-majority-vote counts
	OOBErr                float64
	Importance            []float64 // unscaled permutation importance, by Names
}

// Fit grows a bagged ensemble where every tree is built on an
// independent stratified bootstrap draw sized per the balanced-bagging
// rule. Any feature carrying missing values aborts the fit.
func Fit(x [][]float64, y []int, names []string, o Options) (*Classifier, error) {
	o.SetDefaults()
	if len(x) == 0 || len(x) != len(y) {
		return nil, fmt.Errorf("forest.Fit: %d samples, %d labels", len(x), len(y))
	}
	if len(names) != len(x[0]) {
		return nil, fmt.Errorf("forest.Fit: %d variable names for %d columns", len(names), len(x[0]))
	}
	if err := checkMissing(x, names); err != nil {
		return nil, err
	}
	var c0, c1 int
	for _, yi := range y {
		if yi == 1 {
			c1++
		} else {
			c0++
		}
	}
	n0, n1, err := sample.Sizes(c0, c1, o.Fraction, o.Balance)
	if err != nil {
		return nil, fmt.Errorf("forest.Fit: %w", err)
	}

	mtry := o.Mtry
	if mtry <= 0 {
		mtry = int(math.Sqrt(float64(len(names))))
		if mtry < 1 {
			mtry = 1
		}
	}

	c := Classifier{
		NTrees: o.NTrees, Mtry: mtry, MinLeaf: o.MinLeaf,
		N0: n0, N1: n1, Seed: o.Seed, Names: names,
		Trees: make([]Tree, o.NTrees),
		InBag: make([][]bool, o.NTrees),
	}

	// grow trees; every tree draws from its own seeded stream so the fit
	// is reproducible independent of worker scheduling
	jobs := make(chan int)
	var wg sync.WaitGroup
	errs := make([]error, o.NTrees)
	for w := 0; w < o.NWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := range jobs {
				rng := rand.New(mrg63k3a.New())
				rng.Seed(o.Seed + int64(k))
				rows, err := sample.DrawStratified(rng, y, n0, n1)
				if err != nil {
					errs[k] = err
					continue
				}
				inbag := make([]bool, len(y))
				for _, r := range rows {
					inbag[r] = true
				}
				c.Trees[k] = growTree(x, y, rows, mtry, o.MinLeaf, rng)
				c.InBag[k] = inbag
			}
		}()
	}
	for k := 0; k < o.NTrees; k++ {
		jobs <- k
	}
	close(jobs)
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("forest.Fit: %w", err)
		}
	}

	c.tallyOOB(x, y)
	c.Importance = c.permutationImportance(x, y)
	return &c, nil
}

// tallyOOB accumulates each tree's votes over its out-of-bag samples and
// derives the OOB prediction vector, confusion matrix and error rate.
func (c *Classifier) tallyOOB(x [][]float64, y []int) {
	c.OOBVotes = make([][2]int, len(y))
	for k, t := range c.Trees {
		for i := range y {
			if c.InBag[k][i] {
				continue
			}
			c.OOBVotes[i][t.Vote(x[i])]++
		}
	}
	c.OOBPred = make([]float64, len(y))
	nerr, nvoted := 0, 0
	for i, v := range c.OOBVotes {
		nv := v[0] + v[1]
		if nv == 0 {
			c.OOBPred[i] = math.NaN()
			continue
		}
		c.OOBPred[i] = float64(v[1]) / float64(nv)
		pred := 0
		if v[1] > v[0] {
			pred = 1
		}
		c.ConfMat[y[i]][pred]++
		nvoted++
		if pred != y[i] {
			nerr++
		}
	}
	if nvoted > 0 {
		c.OOBErr = float64(nerr) / float64(nvoted)
	}
}

// VoteFrac scores feature vectors as the fraction of trees voting
// class 1.
func (c *Classifier) VoteFrac(x [][]float64) []float64 {
	o := make([]float64, len(x))
	for i, xi := range x {
		o[i] = c.VoteFracOne(xi)
	}
	return o
}

// VoteFracOne scores a single feature vector.
func (c *Classifier) VoteFracOne(xi []float64) float64 {
	v := 0
	for i := range c.Trees {
		v += c.Trees[i].Vote(xi)
	}
	return float64(v) / float64(len(c.Trees))
}

func checkMissing(x [][]float64, names []string) error {
	var bad []string
	for j, nm := range names {
		for i := range x {
			if math.IsNaN(x[i][j]) {
				bad = append(bad, nm)
				break
			}
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("forest.Fit: missing values in variable(s): %s", strings.Join(bad, ", "))
	}
	return nil
}
