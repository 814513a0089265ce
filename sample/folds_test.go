package sample

import (
	"path/filepath"
	"testing"
)

// tenGridTable builds 100 samples over 10 grids of 10 samples each.
func tenGridTable() *Table {
	t := Table{Names: []string{"v"}}
	for g := 1; g <= 10; g++ {
		for i := 0; i < 10; i++ {
			t.ID = append(t.ID, len(t.ID)+1)
			t.Grid = append(t.Grid, g)
			t.Y = append(t.Y, i%2)
			t.X = append(t.X, []float64{float64(g*10 + i)})
		}
	}
	t.Fold = make([]int, len(t.Y))
	return &t
}

func TestAssignFolds(t *testing.T) {
	tb := tenGridTable()
	mgf, err := AssignFolds(tb, 10)
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	if len(mgf) != 10 {
		t.Fatal("expected 10 grid assignments, got:", len(mgf))
	}
	// with 10 equal grids and 10 folds, each fold gets exactly one grid
	seen := make(map[int]int)
	for g, f := range mgf {
		if f < 1 || f > 10 {
			t.Error("fold id out of range for grid", g, ":", f)
		}
		seen[f]++
	}
	if len(seen) != 10 {
		t.Error("expected each fold to receive one grid, got", len(seen), "folds used")
	}

	if err := tb.ApplyFolds(mgf); err != nil {
		t.Fatal("unexpected error:", err)
	}
	// samples of the same grid never split across folds
	for i := range tb.Y {
		if tb.Fold[i] != mgf[tb.Grid[i]] {
			t.Fatal("sample fold disagrees with its grid assignment")
		}
	}
	// held-out rows of each fold are disjoint and cover the table
	n := 0
	for f := 1; f <= 10; f++ {
		train, test := tb.Rows(f)
		if len(train)+len(test) != len(tb.Y) {
			t.Error("train/test split does not cover the table for fold", f)
		}
		n += len(test)
	}
	if n != len(tb.Y) {
		t.Error("expected held-out rows to cover all 100 samples, got:", n)
	}
}

func TestAssignFoldsDeterministic(t *testing.T) {
	tb := tenGridTable()
	a, _ := AssignFolds(tb, 5)
	b, _ := AssignFolds(tb, 5)
	for g := range a {
		if a[g] != b[g] {
			t.Fatal("expected identical assignments across calls")
		}
	}
}

func TestAssignFoldsErrors(t *testing.T) {
	tb := tenGridTable()
	if _, err := AssignFolds(tb, 1); err == nil {
		t.Error("expected error for k<2")
	}
	if _, err := AssignFolds(tb, 11); err == nil {
		t.Error("expected error when grids cannot fill folds")
	}
}

func TestFoldsRoundTrip(t *testing.T) {
	tb := tenGridTable()
	mgf, _ := AssignFolds(tb, 10)
	fp := filepath.Join(t.TempDir(), "folds.gob")
	if err := SaveFolds(fp, mgf); err != nil {
		t.Fatal("unexpected error:", err)
	}
	m2, err := LoadFolds(fp)
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	if len(m2) != len(mgf) {
		t.Fatal("reloaded assignment has wrong size:", len(m2))
	}
	for g, f := range mgf {
		if m2[g] != f {
			t.Fatal("reloaded assignment differs for grid", g)
		}
	}
}
