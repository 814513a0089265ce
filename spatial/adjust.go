package spatial

import (
	"fmt"
	"math"

	"github.com/maseology/mmio"
	"go.uber.org/zap"
)

// Adjusted-raster sentinel values. The order below is the order the
// overrides apply in; a later rule wins where masks overlap.
const (
	Undevelopable = -1     // conservation multiplier of zero
	NodataInt     = -9999  // open water or missing covariates
	Developed     = 101    // already developed by the mask year
)

// Adjust converts a raw vulnerability surface into the final integer
// product for one year: scores are scaled by the conservation-lands
// multiplier and rounded, then the sentinel overrides are applied in
// order (zero multiplier, open water, existing development). An
// existing output is skipped.
func (s *Stack) Adjust(rawfp, outfp string, year int, lg *zap.Logger) error {
	if _, ok := mmio.FileExists(outfp); ok {
		lg.Info("adjusted prediction exists, skipping", zap.String("raster", outfp), zap.Int("year", year))
		return nil
	}

	raw, err := ReadBil(rawfp, s.Ncell)
	if err != nil {
		return fmt.Errorf("Adjust %d: %w", year, err)
	}
	pmult, err := ReadBil(s.PmultPath(year), s.Ncell)
	if err != nil {
		return fmt.Errorf("Adjust %d: %w", year, err)
	}
	water, err := ReadBilInt(s.WaterMaskPath(year), s.Ncell)
	if err != nil {
		return fmt.Errorf("Adjust %d: %w", year, err)
	}
	dev, err := ReadBilInt(s.DevMaskPath(year), s.Ncell)
	if err != nil {
		return fmt.Errorf("Adjust %d: %w", year, err)
	}

	out := s.GD.NullInt32(NodataInt)
	for _, c := range s.GD.Sactives {
		switch {
		case dev[c] == 1:
			out[c] = Developed
		case water[c] == 1:
			out[c] = NodataInt
		case pmult[c] == 0.:
			out[c] = Undevelopable
		case raw[c] <= Nodata || pmult[c] <= Nodata:
			out[c] = NodataInt
		default:
			out[c] = int32(math.Round(raw[c] * pmult[c]))
		}
	}

	if err := WriteBilInt(s.GD, outfp, out); err != nil {
		return fmt.Errorf("Adjust %d: %w", year, err)
	}
	lg.Info("adjusted prediction raster written", zap.String("raster", outfp), zap.Int("year", year))
	return nil
}

// VulnClass bins an adjusted score into the published vulnerability
// classes: 0 Undevelopable, I-V by increasing score, 6 Already
// Developed.
func VulnClass(v int32) int {
	switch {
	case v == NodataInt:
		return -1
	case v < 0:
		return 0
	case v <= 5:
		return 1
	case v <= 10:
		return 2
	case v <= 25:
		return 3
	case v <= 50:
		return 4
	case v <= 100:
		return 5
	default:
		return 6
	}
}

var vulnClassNames = []string{"Undevelopable", "Class I", "Class II", "Class III", "Class IV", "Class V", "Already Developed"}

// WriteClassCounts tallies the vulnerability classes of an adjusted
// raster to csv.
func (s *Stack) WriteClassCounts(adjfp, csvfp string) error {
	adj, err := ReadBilInt(adjfp, s.Ncell)
	if err != nil {
		return fmt.Errorf("WriteClassCounts: %w", err)
	}
	var cnt [7]int
	for _, c := range s.GD.Sactives {
		if k := VulnClass(adj[c]); k >= 0 {
			cnt[k]++
		}
	}
	csvw := mmio.NewCSVwriter(csvfp)
	defer csvw.Close()
	if err := csvw.WriteHead("class,label,ncells"); err != nil {
		return fmt.Errorf("WriteClassCounts: %w", err)
	}
	for k, n := range cnt {
		csvw.WriteLine(k, vulnClassNames[k], n)
	}
	return nil
}
