package model

import (
	"math/rand"
	"testing"

	mrg63k3a "github.com/maseology/goRNG/MRG63k3a"
	"go.uber.org/zap"

	"github.com/VANatHeritage/ConsVision-DevVulnModel/sample"
)

// cvTable builds 100 samples over 10 grids with one separating variable;
// every grid holds both classes so no fold degenerates.
func cvTable() *sample.Table {
	rng := rand.New(mrg63k3a.New())
	rng.Seed(3)
	tb := sample.Table{Names: []string{"signal", "noise"}}
	for g := 1; g <= 10; g++ {
		for i := 0; i < 10; i++ {
			y := i % 2
			tb.ID = append(tb.ID, len(tb.ID)+1)
			tb.Grid = append(tb.Grid, g)
			tb.Y = append(tb.Y, y)
			tb.X = append(tb.X, []float64{float64(y)*2. + rng.Float64(), rng.Float64()})
		}
	}
	tb.Fold = make([]int, len(tb.Y))
	return &tb
}

func TestCrossValidate(t *testing.T) {
	tb := cvTable()
	mgf, err := sample.AssignFolds(tb, 10)
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	if err := tb.ApplyFolds(mgf); err != nil {
		t.Fatal("unexpected error:", err)
	}

	p := Params{NTrees: 25, NFolds: 10, Seed: 13}
	folds, pooled, err := CrossValidate(tb, []string{"signal", "noise"}, p, zap.NewNop())
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	if len(folds) != 10 {
		t.Fatal("expected 10 fold results, got:", len(folds))
	}
	for _, fr := range folds {
		if fr.Err != nil {
			t.Fatal("fold", fr.Fold, "failed:", fr.Err)
		}
		if fr.N != 10 || fr.N0 != 5 || fr.N1 != 5 {
			t.Error("fold", fr.Fold, "held-out counts wrong:", fr.N, fr.N0, fr.N1)
		}
		if !fr.Stats.Valid {
			t.Error("fold", fr.Fold, "unexpectedly degenerate")
		}
	}
	// pooled statistics span every held-out sample
	if pooled.N != 100 || pooled.N0 != 50 || pooled.N1 != 50 {
		t.Fatal("pooled counts wrong:", pooled.N, pooled.N0, pooled.N1)
	}
	if !pooled.Valid || pooled.AUCROC < 0.95 {
		t.Error("expected near-perfect pooled discrimination, got:", pooled.AUCROC)
	}
	if len(pooled.ROC) == 0 || len(pooled.PR) == 0 {
		t.Error("pooled evaluation should carry curves")
	}
}

func TestCrossValidateSingleClassFold(t *testing.T) {
	// grid 1 holds only class 1; its fold must degrade, not abort
	tb := cvTable()
	for i := range tb.Y {
		if tb.Grid[i] == 1 {
			tb.Y[i] = 1
			tb.X[i][0] = 2.5
		}
	}
	mgf, _ := sample.AssignFolds(tb, 10)
	if err := tb.ApplyFolds(mgf); err != nil {
		t.Fatal("unexpected error:", err)
	}

	p := Params{NTrees: 25, NFolds: 10, Seed: 13}
	folds, pooled, err := CrossValidate(tb, []string{"signal", "noise"}, p, zap.NewNop())
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	ndegen := 0
	for _, fr := range folds {
		if fr.Err != nil {
			t.Fatal("fold", fr.Fold, "failed:", fr.Err)
		}
		if !fr.Stats.Valid {
			ndegen++
		}
	}
	if ndegen != 1 {
		t.Error("expected exactly one degenerate fold, got:", ndegen)
	}
	// degenerate fold's held-out scores still pool
	if pooled.N != 100 {
		t.Error("pooled evaluation should still span every sample, got:", pooled.N)
	}
}
