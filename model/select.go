package model

import (
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/VANatHeritage/ConsVision-DevVulnModel/forest"
	"github.com/VANatHeritage/ConsVision-DevVulnModel/sample"
)

// SelRow documents one candidate variable's fate during selection.
type SelRow struct {
	Name       string
	Group      string
	Cluster    int
	Importance float64
	Kept       bool
}

// SelectVars thins the candidate variables: a baseline balanced ensemble
// over all candidates supplies permutation importances; candidates are
// clustered by |r| >= CorrCut (complete linkage on 1-|r|); within each
// (domain group × cluster) only the most important variable survives,
// and any variable with importance <= 0 is discarded. Ties on equal
// importance fall to the lexicographically first name.
func SelectVars(t *sample.Table, vt *sample.VarTable, p Params, lg *zap.Logger) ([]string, []SelRow, error) {
	p.SetDefaults()
	clf, err := forest.Fit(t.X, t.Y, t.Names, p.forestOptions(p.NTreesSelect, p.Seed))
	if err != nil {
		return nil, nil, fmt.Errorf("SelectVars: baseline fit: %w", err)
	}
	lg.Info("baseline ensemble fit",
		zap.Int("trees", p.NTreesSelect),
		zap.Int("nvar", len(t.Names)),
		zap.Float64("ooberr", clf.OOBErr))

	cl := clusterVars(columns(t), 1.-p.CorrCut)

	rows := make([]SelRow, len(t.Names))
	for i, nm := range t.Names {
		vd, ok := vt.Def(nm)
		if !ok {
			return nil, nil, fmt.Errorf("SelectVars: variable %s not in metadata table", nm)
		}
		rows[i] = SelRow{Name: nm, Group: vd.Group, Cluster: cl[i], Importance: clf.Importance[i]}
	}

	// per (group × cluster) argmax; names are in lexicographic order so
	// a strict > keeps the first on ties
	type key struct {
		g string
		c int
	}
	ibest := make(map[key]int)
	for i, r := range rows {
		if r.Importance <= 0 {
			continue
		}
		k := key{r.Group, r.Cluster}
		if j, ok := ibest[k]; !ok || r.Importance > rows[j].Importance {
			ibest[k] = i
		}
	}
	var keep []string
	for i := range rows {
		for _, j := range ibest {
			if i == j {
				rows[i].Kept = true
				keep = append(keep, rows[i].Name)
				break
			}
		}
	}
	if len(keep) == 0 {
		return nil, nil, fmt.Errorf("SelectVars: no variable with positive importance")
	}
	lg.Info("variables selected", zap.Int("kept", len(keep)), zap.Int("candidates", len(rows)))
	return keep, rows, nil
}

func columns(t *sample.Table) [][]float64 {
	cols := make([][]float64, len(t.Names))
	for j := range t.Names {
		c := make([]float64, len(t.X))
		for i := range t.X {
			c[i] = t.X[i][j]
		}
		cols[j] = c
	}
	return cols
}

// clusterVars assigns a correlation-cluster id to every variable by
// agglomerative complete-linkage clustering on distance 1-|r|, cutting
// the tree at height cut. Cluster ids are renumbered by each cluster's
// smallest member index.
func clusterVars(cols [][]float64, cut float64) []int {
	nv := len(cols)
	d := make([][]float64, nv)
	for i := range d {
		d[i] = make([]float64, nv)
	}
	for i := 0; i < nv; i++ {
		for j := i + 1; j < nv; j++ {
			r := stat.Correlation(cols[i], cols[j], nil)
			if r < 0 {
				r = -r
			}
			d[i][j] = 1. - r
			d[j][i] = d[i][j]
		}
	}

	// clusters as index sets keyed by smallest member
	members := make([][]int, nv)
	for i := range members {
		members[i] = []int{i}
	}
	link := func(a, b []int) float64 { // complete linkage
		mx := 0.
		for _, i := range a {
			for _, j := range b {
				if d[i][j] > mx {
					mx = d[i][j]
				}
			}
		}
		return mx
	}
	for {
		ba, bb, bd := -1, -1, cut
		for a := 0; a < nv; a++ {
			if members[a] == nil {
				continue
			}
			for b := a + 1; b < nv; b++ {
				if members[b] == nil {
					continue
				}
				if l := link(members[a], members[b]); l <= bd {
					// strict < keeps the earliest pair on ties
					if ba < 0 || l < bd {
						ba, bb, bd = a, b, l
					}
				}
			}
		}
		if ba < 0 {
			break
		}
		members[ba] = append(members[ba], members[bb]...)
		members[bb] = nil
	}

	cl := make([]int, nv)
	id := 0
	for a := 0; a < nv; a++ {
		if members[a] == nil {
			continue
		}
		for _, i := range members[a] {
			cl[i] = id
		}
		id++
	}
	return cl
}
