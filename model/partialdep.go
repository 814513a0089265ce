package model

import (
	"sort"
	"sync"

	"github.com/VANatHeritage/ConsVision-DevVulnModel/forest"
)

// PartialDep is one variable's partial dependence curve: the mean
// ensemble vote fraction with the variable forced to each grid value.
type PartialDep struct {
	Name  string
	Value []float64
	Mean  []float64
}

// PartialDependence computes per-variable partial dependence over a
// quantile grid of each variable's sample range, one worker per
// variable.
func PartialDependence(clf *forest.Classifier, x [][]float64, p Params) []PartialDep {
	p.SetDefaults()
	out := make([]PartialDep, len(clf.Names))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < p.NWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				out[j] = varDependence(clf, x, j, p.PDPoints)
			}
		}()
	}
	for j := range clf.Names {
		jobs <- j
	}
	close(jobs)
	wg.Wait()
	return out
}

func varDependence(clf *forest.Classifier, x [][]float64, j, npts int) PartialDep {
	if npts < 2 {
		npts = 2
	}
	vals := make([]float64, len(x))
	for i := range x {
		vals[i] = x[i][j]
	}
	sort.Float64s(vals)

	// quantile grid, de-duplicated
	var grid []float64
	for k := 0; k < npts; k++ {
		q := vals[k*(len(vals)-1)/(npts-1)]
		if len(grid) == 0 || q != grid[len(grid)-1] {
			grid = append(grid, q)
		}
	}

	pd := PartialDep{Name: clf.Names[j], Value: grid, Mean: make([]float64, len(grid))}
	xi := make([]float64, len(clf.Names))
	for g, v := range grid {
		sum := 0.
		for i := range x {
			copy(xi, x[i])
			xi[j] = v
			sum += clf.VoteFracOne(xi)
		}
		pd.Mean[g] = sum / float64(len(x))
	}
	return pd
}
