package sample

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/maseology/mmio"
)

// nodata follows the raster convention; attributed sample values at or
// below it are treated as missing.
const nodata = -9999.

// Table is a columnar set of labeled samples. X is indexed [sample][variable],
// variable order given by Names. Fold ids are 1-based once assigned, 0 before.
type Table struct {
	Names []string
	X     [][]float64
	Y     []int // 0 not converted, 1 converted
	ID    []int
	Grid  []int // spatial group (grid) id
	Fold  []int
	mvx   map[string]int
}

// LoadTable reads an attributed sample csv (sampid,gridid,label,<variables...>)
// keeping only the usable variables declared in vt. The schema is resolved
// against the header once; a declared usable variable missing from the
// header is an error.
func LoadTable(fp string, vt *VarTable) (*Table, error) {
	lns, err := mmio.ReadTextLines(fp)
	if err != nil {
		return nil, fmt.Errorf("LoadTable %s: %w", fp, err)
	}
	if len(lns) < 2 {
		return nil, fmt.Errorf("LoadTable %s: no samples", fp)
	}
	hdr := strings.Split(strings.TrimSpace(lns[0]), ",")
	if len(hdr) < 4 || hdr[0] != "sampid" || hdr[1] != "gridid" || hdr[2] != "label" {
		return nil, fmt.Errorf("LoadTable %s: header must begin sampid,gridid,label", fp)
	}
	mcol := make(map[string]int, len(hdr))
	for j, h := range hdr {
		mcol[h] = j
	}
	names := vt.UseNames()
	cols := make([]int, len(names))
	for i, nm := range names {
		j, ok := mcol[nm]
		if !ok {
			return nil, fmt.Errorf("LoadTable %s: declared variable %s not attributed to samples", fp, nm)
		}
		cols[i] = j
	}

	t := Table{Names: names, mvx: make(map[string]int, len(names))}
	for i, nm := range names {
		t.mvx[nm] = i
	}
	for i, ln := range lns[1:] {
		sp := strings.Split(strings.TrimSpace(ln), ",")
		if len(sp) < 3 || sp[0] == "" {
			continue
		}
		if len(sp) != len(hdr) {
			return nil, fmt.Errorf("LoadTable %s: line %d: %d fields, expected %d", fp, i+2, len(sp), len(hdr))
		}
		id, err := strconv.Atoi(strings.TrimSpace(sp[0]))
		if err != nil {
			return nil, fmt.Errorf("LoadTable %s: line %d: sampid: %w", fp, i+2, err)
		}
		gid, err := strconv.Atoi(strings.TrimSpace(sp[1]))
		if err != nil {
			return nil, fmt.Errorf("LoadTable %s: line %d: gridid: %w", fp, i+2, err)
		}
		lbl, err := strconv.Atoi(strings.TrimSpace(sp[2]))
		if err != nil || (lbl != 0 && lbl != 1) {
			return nil, fmt.Errorf("LoadTable %s: line %d: label must be 0 or 1", fp, i+2)
		}
		x := make([]float64, len(cols))
		for k, j := range cols {
			v, err := parseFloat(sp[j])
			if err != nil {
				return nil, fmt.Errorf("LoadTable %s: line %d: %s: %w", fp, i+2, names[k], err)
			}
			x[k] = v
		}
		t.ID = append(t.ID, id)
		t.Grid = append(t.Grid, gid)
		t.Y = append(t.Y, lbl)
		t.X = append(t.X, x)
	}
	t.Fold = make([]int, len(t.Y))
	if err := t.CheckComplete(); err != nil {
		return nil, fmt.Errorf("LoadTable %s: %w", fp, err)
	}
	return &t, nil
}

// CheckComplete fails when any variable carries missing values, naming
// every offending variable.
func (t *Table) CheckComplete() error {
	var bad []string
	for j, nm := range t.Names {
		for i := range t.X {
			if v := t.X[i][j]; math.IsNaN(v) || v <= nodata {
				bad = append(bad, nm)
				break
			}
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("missing values in variable(s): %s", strings.Join(bad, ", "))
	}
	return nil
}

// Subset returns a view of the table holding only the named variables,
// in the given order. Rows are shared metadata; feature vectors are copied.
func (t *Table) Subset(names []string) (*Table, error) {
	cols := make([]int, len(names))
	for i, nm := range names {
		j, ok := t.mvx[nm]
		if !ok {
			return nil, fmt.Errorf("Table.Subset: unknown variable %s", nm)
		}
		cols[i] = j
	}
	o := Table{Names: names, Y: t.Y, ID: t.ID, Grid: t.Grid, Fold: t.Fold, mvx: make(map[string]int, len(names))}
	for i, nm := range names {
		o.mvx[nm] = i
	}
	o.X = make([][]float64, len(t.X))
	for i, row := range t.X {
		r := make([]float64, len(cols))
		for k, j := range cols {
			r[k] = row[j]
		}
		o.X[i] = r
	}
	return &o, nil
}

// ClassCounts returns the per-class sample counts.
func (t *Table) ClassCounts() (n0, n1 int) {
	for _, y := range t.Y {
		if y == 1 {
			n1++
		} else {
			n0++
		}
	}
	return
}

// Rows splits sample indices by fold membership: test holds samples of
// fold k, train the remainder.
func (t *Table) Rows(fold int) (train, test []int) {
	for i, f := range t.Fold {
		if f == fold {
			test = append(test, i)
		} else {
			train = append(train, i)
		}
	}
	return
}

// Take builds the design matrix and label vector for a row index set.
func (t *Table) Take(rows []int) (x [][]float64, y []int) {
	x, y = make([][]float64, len(rows)), make([]int, len(rows))
	for i, r := range rows {
		x[i], y[i] = t.X[r], t.Y[r]
	}
	return
}
