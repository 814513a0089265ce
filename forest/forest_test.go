package forest

import (
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	mrg63k3a "github.com/maseology/goRNG/MRG63k3a"
)

// separable builds a two-feature dataset where the first feature alone
// separates the classes and the second is noise.
func separable(n int, seed int64) ([][]float64, []int) {
	rng := rand.New(mrg63k3a.New())
	rng.Seed(seed)
	x := make([][]float64, n)
	y := make([]int, n)
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			x[i] = []float64{rng.Float64(), rng.Float64()}
			y[i] = 0
		} else {
			x[i] = []float64{rng.Float64() + 2., rng.Float64()}
			y[i] = 1
		}
	}
	return x, y
}

func TestFitSeparable(t *testing.T) {
	x, y := separable(200, 1)
	clf, err := Fit(x, y, []string{"signal", "noise"}, Options{NTrees: 50, Seed: 7})
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	if len(clf.Trees) != 50 {
		t.Fatal("expected 50 trees, got:", len(clf.Trees))
	}
	if clf.N0 != 100 || clf.N1 != 100 {
		t.Error("expected balanced draws of 100, got:", clf.N0, clf.N1)
	}
	if clf.OOBErr > 0.05 {
		t.Error("expected near-zero oob error on separable data, got:", clf.OOBErr)
	}
	if p := clf.VoteFracOne([]float64{0.5, 0.5}); p > 0.2 {
		t.Error("expected low vote fraction for class-0 region, got:", p)
	}
	if p := clf.VoteFracOne([]float64{2.5, 0.5}); p < 0.8 {
		t.Error("expected high vote fraction for class-1 region, got:", p)
	}
	// importance concentrates on the informative feature
	if clf.Importance[0] <= clf.Importance[1] {
		t.Error("expected signal importance to exceed noise:", clf.Importance)
	}
}

func TestFitDeterministic(t *testing.T) {
	x, y := separable(120, 2)
	a, err := Fit(x, y, []string{"signal", "noise"}, Options{NTrees: 30, Seed: 11, NWorkers: 4})
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	b, err := Fit(x, y, []string{"signal", "noise"}, Options{NTrees: 30, Seed: 11, NWorkers: 1})
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	if a.OOBErr != b.OOBErr {
		t.Error("oob error differs across worker counts:", a.OOBErr, b.OOBErr)
	}
	for i := range a.OOBPred {
		pa, pb := a.OOBPred[i], b.OOBPred[i]
		if math.IsNaN(pa) != math.IsNaN(pb) || (!math.IsNaN(pa) && pa != pb) {
			t.Fatal("oob predictions differ across worker counts at sample", i)
		}
	}
	for i := range a.Importance {
		if a.Importance[i] != b.Importance[i] {
			t.Fatal("importance differs across worker counts at variable", i)
		}
	}
}

func TestFitErrors(t *testing.T) {
	x, y := separable(20, 3)
	if _, err := Fit(nil, nil, nil, Options{}); err == nil {
		t.Error("expected error for empty input")
	}
	if _, err := Fit(x, y, []string{"one"}, Options{NTrees: 5}); err == nil {
		t.Error("expected error for name/column mismatch")
	}
	x[4][1] = math.NaN()
	if _, err := Fit(x, y, []string{"signal", "noise"}, Options{NTrees: 5}); err == nil {
		t.Error("expected error for missing values")
	}
}

func TestArtifactRoundTrip(t *testing.T) {
	x, y := separable(100, 4)
	clf, err := Fit(x, y, []string{"signal", "noise"}, Options{NTrees: 20, Seed: 5})
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	a := NewArtifact(clf, 1., 1.)
	if a.RunID == "" {
		t.Error("expected a run id")
	}
	fp := filepath.Join(t.TempDir(), "model.gob")
	if err := a.SaveGob(fp); err != nil {
		t.Fatal("unexpected error:", err)
	}
	b, err := LoadGobArtifact(fp)
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	if b.RunID != a.RunID || b.Fraction != a.Fraction {
		t.Error("artifact metadata lost in round trip")
	}
	if len(b.Model.Trees) != len(clf.Trees) {
		t.Fatal("tree count lost in round trip")
	}
	for i, xi := range x {
		if b.Model.VoteFracOne(xi) != clf.VoteFracOne(xi) {
			t.Fatal("reloaded model scores differ at sample", i)
		}
	}
	if b.Model.OOBErr != clf.OOBErr {
		t.Error("oob error lost in round trip")
	}
}
