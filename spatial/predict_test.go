package spatial

import (
	"math"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/VANatHeritage/ConsVision-DevVulnModel/forest"
	"github.com/VANatHeritage/ConsVision-DevVulnModel/model"
	"github.com/VANatHeritage/ConsVision-DevVulnModel/sample"
)

func TestMapRaw(t *testing.T) {
	s, dir := testStack(t)
	lg := zap.NewNop()

	// a cleanly separable fit: class 1 wherever roadDist < 0.5,
	// slpx100 carries no signal
	n := 40
	x := make([][]float64, n)
	y := make([]int, n)
	for i := range x {
		if i%2 == 0 {
			x[i] = []float64{0.7 + 0.01*float64(i%10), float64(i % 7)}
		} else {
			x[i] = []float64{0.1 + 0.01*float64(i%10), float64(i % 5)}
			y[i] = 1
		}
	}
	clf, err := forest.Fit(x, y, []string{"roadDist", "slpx100"}, forest.Options{NTrees: 50, Seed: 1, NWorkers: 2})
	if err != nil {
		t.Fatal("Fit:", err)
	}
	vt, err := sample.NewVarTable([]sample.VarDef{
		{Name: "roadDist", Use: true},
		{Name: "slpx100", Static: true, Use: true},
	})
	if err != nil {
		t.Fatal(err)
	}

	// dynamic layer under the inference year, static under the reference
	la := make([]float64, s.Ncell)
	lb := make([]float64, s.Ncell)
	for c := range la {
		la[c], lb[c] = 0.15, 3.
		if c >= 8 {
			la[c] = 0.85
		}
	}
	la[5] = Nodata  // null covariate cells carry no score
	lb[12] = Nodata
	for _, err := range []error{
		WriteBil(s.GD, filepath.Join(s.VarsDir, "2016", "roadDist.bil"), la),
		WriteBil(s.GD, filepath.Join(s.VarsDir, "2006", "slpx100.bil"), lb),
	} {
		if err != nil {
			t.Fatal(err)
		}
	}

	p := model.Params{BlockSize: 3, NWorkers: 2} // several blocks with a short tail
	outfp := filepath.Join(dir, "vulnraw_2016.bil")
	if err := s.MapRaw(clf, vt, 2016, outfp, p, lg); err != nil {
		t.Fatal("MapRaw:", err)
	}
	out, err := ReadBil(outfp, s.Ncell)
	if err != nil {
		t.Fatal(err)
	}

	// scores agree with a direct ensemble call on the round-tripped layers
	ra, err := ReadBil(filepath.Join(s.VarsDir, "2016", "roadDist.bil"), s.Ncell)
	if err != nil {
		t.Fatal(err)
	}
	rb, err := ReadBil(filepath.Join(s.VarsDir, "2006", "slpx100.bil"), s.Ncell)
	if err != nil {
		t.Fatal(err)
	}
	for c := 0; c < s.Ncell; c++ {
		if c == 5 || c == 12 {
			if out[c] != Nodata {
				t.Error("null covariate cell", c, "scored:", out[c])
			}
			continue
		}
		want := 100. * clf.VoteFracOne([]float64{ra[c], rb[c]})
		if math.Abs(out[c]-want) > 1e-3 {
			t.Error("cell", c, "scored", out[c], ", want", want)
		}
		if c < 5 && out[c] < 50. {
			t.Error("cell", c, "in the converting region scored low:", out[c])
		}
		if c >= 8 && c != 12 && out[c] > 50. {
			t.Error("cell", c, "in the stable region scored high:", out[c])
		}
	}

	// an existing raw surface must not be recomputed
	for c := range la {
		la[c] = 0.15
	}
	if err := WriteBil(s.GD, filepath.Join(s.VarsDir, "2016", "roadDist.bil"), la); err != nil {
		t.Fatal(err)
	}
	if err := s.MapRaw(clf, vt, 2016, outfp, p, lg); err != nil {
		t.Fatal("MapRaw rerun:", err)
	}
	out2, err := ReadBil(outfp, s.Ncell)
	if err != nil {
		t.Fatal(err)
	}
	for c := range out {
		if out2[c] != out[c] {
			t.Fatal("existing raw surface was overwritten at cell", c)
		}
	}

	// a model variable missing from the metadata table aborts
	vt2, err := sample.NewVarTable([]sample.VarDef{{Name: "roadDist", Use: true}})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.MapRaw(clf, vt2, 2016, filepath.Join(dir, "other.bil"), p, lg); err == nil {
		t.Error("expected an unknown-variable error")
	}
}
