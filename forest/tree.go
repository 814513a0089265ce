// forest implements the bagged decision-tree ensemble behind the
// vulnerability model: stratified balanced bootstrap draws per tree,
// out-of-bag (OOB) vote tracking and unscaled permutation importance.
// Trees are stored as flat node arenas addressed by index, which keeps
// parallel construction simple and the gob artifact compact.
package forest

import (
	"math"
	"math/rand"
	"sort"
)

// node is one arena entry; Left < 0 marks a leaf.
type node struct {
	Left, Right int32
	SplitVar    int32
	SplitVal    float64
	N0, N1      int32 // training class counts reaching the node
}

// Tree is a single classification tree grown on a bootstrap draw.
type Tree struct {
	Nodes []node
}

// Vote returns the tree's class vote (0 or 1) for a feature vector.
func (t *Tree) Vote(x []float64) int {
	i := int32(0)
	for {
		n := &t.Nodes[i]
		if n.Left < 0 {
			if n.N1 > n.N0 {
				return 1
			}
			return 0
		}
		if x[n.SplitVar] < n.SplitVal {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

const (
	minSplit = 2
	purity   = 1e-9
)

type stackItem struct {
	inode int32
	rows  []int
}

// growTree builds a tree over the given rows. mtry features are
// considered at each split; candidate thresholds are midpoints between
// successive distinct sorted values.
func growTree(x [][]float64, y []int, rows []int, mtry, minLeaf int, rng *rand.Rand) Tree {
	nf := len(x[0])
	if mtry <= 0 || mtry > nf {
		mtry = nf
	}
	if minLeaf < 1 {
		minLeaf = 1
	}
	feats := make([]int, nf)
	for i := range feats {
		feats[i] = i
	}

	t := Tree{Nodes: make([]node, 1, 64)}
	stack := []stackItem{{0, rows}}
	for len(stack) > 0 {
		w := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		var c0, c1 int32
		for _, r := range w.rows {
			if y[r] == 1 {
				c1++
			} else {
				c0++
			}
		}
		t.Nodes[w.inode].N0, t.Nodes[w.inode].N1 = c0, c1
		t.Nodes[w.inode].Left, t.Nodes[w.inode].Right = -1, -1

		n := len(w.rows)
		if n < minSplit || n < 2*minLeaf || c0 == 0 || c1 == 0 {
			continue
		}

		f, val, ok := bestSplit(x, y, w.rows, feats, mtry, minLeaf, rng)
		if !ok {
			continue
		}

		// partition rows about the split
		i, j := 0, n
		for i < j {
			if x[w.rows[i]][f] < val {
				i++
			} else {
				j--
				w.rows[i], w.rows[j] = w.rows[j], w.rows[i]
			}
		}

		l := int32(len(t.Nodes))
		t.Nodes = append(t.Nodes, node{}, node{})
		t.Nodes[w.inode].Left, t.Nodes[w.inode].Right = l, l+1
		t.Nodes[w.inode].SplitVar, t.Nodes[w.inode].SplitVal = int32(f), val
		stack = append(stack, stackItem{l, w.rows[:i]}, stackItem{l + 1, w.rows[i:]})
	}
	return t
}

// bestSplit scans mtry randomly chosen features for the split minimizing
// weighted child Gini impurity.
func bestSplit(x [][]float64, y []int, rows, feats []int, mtry, minLeaf int, rng *rand.Rand) (feat int, val float64, ok bool) {
	n := len(rows)
	type pair struct {
		v float64
		y int
	}
	ps := make([]pair, n)
	bestImp := math.MaxFloat64

	var tot1 int
	for _, r := range rows {
		tot1 += y[r]
	}

	// partial Fisher-Yates for the candidate feature draw
	for i := 0; i < mtry; i++ {
		j := i + rng.Intn(len(feats)-i)
		feats[i], feats[j] = feats[j], feats[i]
	}

	for _, f := range feats[:mtry] {
		for i, r := range rows {
			ps[i] = pair{x[r][f], y[r]}
		}
		sort.Slice(ps, func(i, j int) bool { return ps[i].v < ps[j].v })
		if ps[0].v == ps[n-1].v {
			continue // constant within node
		}
		l1 := 0
		for i := 1; i < n; i++ {
			l1 += ps[i-1].y
			if i < minLeaf || n-i < minLeaf || ps[i].v == ps[i-1].v {
				continue
			}
			imp := giniPair(i, l1, n-i, tot1-l1)
			if imp < bestImp-purity {
				bestImp = imp
				feat = f
				val = (ps[i-1].v + ps[i].v) / 2.
				ok = true
			}
		}
	}
	return
}

// giniPair is the size-weighted Gini impurity of a two-way split given
// child sizes and class-1 counts.
func giniPair(nl, l1, nr, r1 int) float64 {
	g := func(n, n1 int) float64 {
		p := float64(n1) / float64(n)
		return p * (1. - p)
	}
	fn := float64(nl + nr)
	return float64(nl)/fn*g(nl, l1) + float64(nr)/fn*g(nr, r1)
}
