package model

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/VANatHeritage/ConsVision-DevVulnModel/forest"
	"github.com/VANatHeritage/ConsVision-DevVulnModel/sample"
)

// FoldResult carries one fold's evaluation: counts, the training
// ensemble's OOB error and the held-out statistics. Err records a worker
// failure; a degenerate single-class fold instead yields Stats with
// Valid=false.
type FoldResult struct {
	Fold      int
	N, N0, N1 int
	OOBErr    float64
	Stats     *Stats
	Err       error
}

// CrossValidate runs spatial k-fold cross validation over the fold ids
// already stamped on the table. Folds are evaluated in parallel by a
// bounded worker pool; each fold trains a fresh ensemble on the
// remaining folds and scores its held-out samples by full-ensemble vote
// fraction. The pooled statistics concatenate every fold's held-out
// predictions and are the reported cross-validation performance.
func CrossValidate(t *sample.Table, names []string, p Params, lg *zap.Logger) ([]FoldResult, *Stats, error) {
	p.SetDefaults()
	ts, err := t.Subset(names)
	if err != nil {
		return nil, nil, fmt.Errorf("CrossValidate: %w", err)
	}

	res := make([]FoldResult, p.NFolds)
	pooled := make([]float64, len(ts.Y)) // held-out score per sample
	seen := make([]bool, len(ts.Y))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < p.NWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := range jobs {
				res[f-1] = evalFold(ts, f, p, pooled, seen)
			}
		}()
	}
	for f := 1; f <= p.NFolds; f++ {
		jobs <- f
	}
	close(jobs)
	wg.Wait()

	var py []int
	var pp []float64
	for _, r := range res {
		if r.Err != nil {
			lg.Warn("fold failed", zap.Int("fold", r.Fold), zap.Error(r.Err))
		} else if !r.Stats.Valid {
			lg.Warn("single-class fold, metrics reported missing", zap.Int("fold", r.Fold))
		}
	}
	for i := range ts.Y {
		if seen[i] {
			py = append(py, ts.Y[i])
			pp = append(pp, pooled[i])
		}
	}
	if len(py) == 0 {
		return res, nil, fmt.Errorf("CrossValidate: no fold produced held-out predictions")
	}
	return res, Evaluate(py, pp), nil
}

// evalFold is one worker unit; a panic inside degrades to a per-fold
// error rather than aborting the batch.
func evalFold(ts *sample.Table, f int, p Params, pooled []float64, seen []bool) (fr FoldResult) {
	fr.Fold = f
	defer func() {
		if r := recover(); r != nil {
			fr.Err = fmt.Errorf("fold %d: panic: %v", f, r)
		}
	}()
	train, test := ts.Rows(f)
	if len(test) == 0 {
		fr.Err = fmt.Errorf("fold %d: empty test set", f)
		return
	}
	xtr, ytr := ts.Take(train)
	clf, err := forest.Fit(xtr, ytr, ts.Names, p.forestOptions(p.NTrees, p.Seed+int64(f)*foldSeedStride))
	if err != nil {
		fr.Err = fmt.Errorf("fold %d: %w", f, err)
		return
	}
	xte, yte := ts.Take(test)
	sc := clf.VoteFrac(xte)
	for i, r := range test {
		pooled[r] = sc[i] // disjoint test sets: no write contention
		seen[r] = true
	}
	fr.N = len(test)
	for _, y := range yte {
		if y == 1 {
			fr.N1++
		} else {
			fr.N0++
		}
	}
	fr.OOBErr = clf.OOBErr
	fr.Stats = Evaluate(yte, sc)
	return
}
