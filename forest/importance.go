package forest

import (
	"math/rand"
	"runtime"
	"sync"

	mrg63k3a "github.com/maseology/goRNG/MRG63k3a"
)

// seed offset separating the permutation streams from the tree-growing
// streams
const impSeedOffset = 1000003

// permutationImportance computes the unscaled importance of every
// variable: the mean increase, over trees, of the tree's out-of-bag
// misclassification rate after permuting that variable among the oob
// samples.
func (c *Classifier) permutationImportance(x [][]float64, y []int) []float64 {
	nf := len(c.Names)
	perTree := make([][]float64, len(c.Trees))

	jobs := make(chan int)
	var wg sync.WaitGroup
	nw := runtime.NumCPU() - 1
	if nw < 1 {
		nw = 1
	}
	for w := 0; w < nw; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := range jobs {
				perTree[k] = c.treeImportance(k, x, y)
			}
		}()
	}
	for k := range c.Trees {
		jobs <- k
	}
	close(jobs)
	wg.Wait()

	imp := make([]float64, nf)
	for _, d := range perTree {
		if d == nil {
			continue
		}
		for j, v := range d {
			imp[j] += v / float64(len(c.Trees))
		}
	}
	return imp
}

func (c *Classifier) treeImportance(k int, x [][]float64, y []int) []float64 {
	var oob []int
	for i, in := range c.InBag[k] {
		if !in {
			oob = append(oob, i)
		}
	}
	if len(oob) == 0 {
		return nil
	}
	t := &c.Trees[k]
	baseErr := 0.
	for _, r := range oob {
		if t.Vote(x[r]) != y[r] {
			baseErr++
		}
	}
	baseErr /= float64(len(oob))

	rng := rand.New(mrg63k3a.New())
	rng.Seed(c.Seed + impSeedOffset + int64(k))

	d := make([]float64, len(c.Names))
	xi := make([]float64, len(c.Names))
	perm := make([]int, len(oob))
	for j := range c.Names {
		copy(perm, oob)
		rng.Shuffle(len(perm), func(a, b int) { perm[a], perm[b] = perm[b], perm[a] })
		permErr := 0.
		for i, r := range oob {
			copy(xi, x[r])
			xi[j] = x[perm[i]][j]
			if t.Vote(xi) != y[r] {
				permErr++
			}
		}
		d[j] = permErr/float64(len(oob)) - baseErr
	}
	return d
}
