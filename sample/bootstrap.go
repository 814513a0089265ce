package sample

import (
	"fmt"
	"math"
	"math/rand"
)

// Sizes computes the per-class bootstrap draw sizes for balanced bagging:
// n0 = round(fraction × min-class count), n1 = round(n0 × balance).
func Sizes(n0c, n1c int, fraction, balance float64) (n0, n1 int, err error) {
	if n0c <= 0 || n1c <= 0 {
		return 0, 0, fmt.Errorf("Sizes: empty class (class0 %d, class1 %d)", n0c, n1c)
	}
	nmin := n0c
	if n1c < nmin {
		nmin = n1c
	}
	n0 = int(math.Round(fraction * float64(nmin)))
	n1 = int(math.Round(float64(n0) * balance))
	if n0 <= 0 || n1 <= 0 {
		return 0, 0, fmt.Errorf("Sizes: degenerate draw (n0 %d, n1 %d) from fraction %f balance %f", n0, n1, fraction, balance)
	}
	return n0, n1, nil
}

// DrawStratified draws n0 class-0 and n1 class-1 row indices with
// replacement, independently per class.
func DrawStratified(rng *rand.Rand, y []int, n0, n1 int) ([]int, error) {
	var i0, i1 []int
	for i, yi := range y {
		if yi == 1 {
			i1 = append(i1, i)
		} else {
			i0 = append(i0, i)
		}
	}
	if len(i0) == 0 || len(i1) == 0 {
		return nil, fmt.Errorf("DrawStratified: empty class (class0 %d, class1 %d)", len(i0), len(i1))
	}
	o := make([]int, 0, n0+n1)
	for i := 0; i < n0; i++ {
		o = append(o, i0[rng.Intn(len(i0))])
	}
	for i := 0; i < n1; i++ {
		o = append(o, i1[rng.Intn(len(i1))])
	}
	return o, nil
}
