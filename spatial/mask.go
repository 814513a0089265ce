package spatial

import (
	"fmt"

	"github.com/maseology/mmio"
	"go.uber.org/zap"
)

// Development-change codes derived from paired imperviousness layers.
const (
	ChgUndeveloped = 0 // undeveloped at both periods
	ChgDeveloped   = 1 // went from undeveloped to developed
	ChgBoth        = 2 // developed at both periods
	ChgReverted    = 3 // went from developed to undeveloped (rare)
)

// An Exclusion removes cells from the sampling frame: any cell for
// which Test returns true on the named raster is struck from the mask.
type Exclusion struct {
	Name string
	Path string
	Test func(v float64) bool
}

// SampMask builds the binary sampling mask for a training year: 1
// where no exclusion fires, nodata elsewhere. An existing output is
// skipped.
func (s *Stack) SampMask(excls []Exclusion, outfp string, lg *zap.Logger) error {
	if _, ok := mmio.FileExists(outfp); ok {
		lg.Info("sampling mask exists, skipping", zap.String("raster", outfp))
		return nil
	}
	out := s.GD.NullInt32(NodataInt)
	for _, c := range s.GD.Sactives {
		out[c] = 1
	}
	for _, ex := range excls {
		a, err := ReadBil(ex.Path, s.Ncell)
		if err != nil {
			return fmt.Errorf("SampMask %s: %w", ex.Name, err)
		}
		n := 0
		for _, c := range s.GD.Sactives {
			if a[c] <= Nodata || ex.Test(a[c]) {
				if out[c] == 1 {
					out[c] = NodataInt
					n++
				}
			}
		}
		lg.Info("sampling exclusion applied", zap.String("exclusion", ex.Name), zap.Int("ncells", n))
	}
	if err := WriteBilInt(s.GD, outfp, out); err != nil {
		return fmt.Errorf("SampMask: %w", err)
	}
	lg.Info("sampling mask written", zap.String("raster", outfp))
	return nil
}

// DevChange classifies development change between two imperviousness
// layers. A cell is developed when its imperviousness meets develmin
// (percent); the two binary states combine into the Chg* codes above.
// An existing output is skipped.
func (s *Stack) DevChange(t1fp, t2fp, outfp string, develmin float64, lg *zap.Logger) error {
	if _, ok := mmio.FileExists(outfp); ok {
		lg.Info("development change raster exists, skipping", zap.String("raster", outfp))
		return nil
	}
	imp1, err := ReadBil(t1fp, s.Ncell)
	if err != nil {
		return fmt.Errorf("DevChange: %w", err)
	}
	imp2, err := ReadBil(t2fp, s.Ncell)
	if err != nil {
		return fmt.Errorf("DevChange: %w", err)
	}
	out := s.GD.NullInt32(NodataInt)
	for _, c := range s.GD.Sactives {
		if imp1[c] <= Nodata || imp2[c] <= Nodata {
			continue
		}
		d1, d2 := imp1[c] >= develmin, imp2[c] >= develmin
		switch {
		case d1 && d2:
			out[c] = ChgBoth
		case d1:
			out[c] = ChgReverted
		case d2:
			out[c] = ChgDeveloped
		default:
			out[c] = ChgUndeveloped
		}
	}
	if err := WriteBilInt(s.GD, outfp, out); err != nil {
		return fmt.Errorf("DevChange: %w", err)
	}
	lg.Info("development change raster written", zap.String("raster", outfp))
	return nil
}
