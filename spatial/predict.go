package spatial

import (
	"context"
	"fmt"

	"github.com/gosuri/uiprogress"
	"github.com/maseology/mmio"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/VANatHeritage/ConsVision-DevVulnModel/forest"
	"github.com/VANatHeritage/ConsVision-DevVulnModel/model"
	"github.com/VANatHeritage/ConsVision-DevVulnModel/sample"
)

// MapRaw scores every active grid cell with the fitted ensemble for one
// inference year, writing the raw vulnerability surface: vote fraction
// × 100 (continuous, 0-100), nodata wherever any covariate is null. The
// grid is partitioned into blocks computed independently and placed
// into disjoint regions of the output. An existing output is skipped.
func (s *Stack) MapRaw(clf *forest.Classifier, vt *sample.VarTable, year int, outfp string, p model.Params, lg *zap.Logger) error {
	p.SetDefaults()
	if _, ok := mmio.FileExists(outfp); ok {
		lg.Info("raw prediction exists, skipping", zap.String("raster", outfp), zap.Int("year", year))
		return nil
	}

	vars := make([]sample.VarDef, len(clf.Names))
	for i, nm := range clf.Names {
		vd, ok := vt.Def(nm)
		if !ok {
			return fmt.Errorf("MapRaw: model variable %s not in metadata table", nm)
		}
		vars[i] = vd
	}
	tt := mmio.NewTimer()
	layers, err := s.LoadLayers(vars, year)
	if err != nil {
		return fmt.Errorf("MapRaw %d: %w", year, err)
	}
	tt.Lap("covariate stack loaded")

	out := s.GD.NullArray(Nodata)
	cids := s.GD.Sactives
	nblk := (len(cids) + p.BlockSize - 1) / p.BlockSize

	uiprogress.Start()
	bar := uiprogress.AddBar(nblk).AppendCompleted().PrependElapsed()

	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(p.NWorkers)
	for b := 0; b < nblk; b++ {
		blk := cids[b*p.BlockSize : min(len(cids), (b+1)*p.BlockSize)]
		g.Go(func() error {
			xi := make([]float64, len(layers))
			for _, c := range blk {
				ok := true
				for j := range layers {
					v := layers[j][c]
					if v <= Nodata {
						ok = false
						break
					}
					xi[j] = v
				}
				if !ok {
					continue
				}
				out[c] = 100. * clf.VoteFracOne(xi)
			}
			bar.Incr()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("MapRaw %d: %w", year, err)
	}
	uiprogress.Stop()

	if err := WriteBil(s.GD, outfp, out); err != nil {
		return fmt.Errorf("MapRaw %d: %w", year, err)
	}
	tt.Lap(fmt.Sprintf("raw prediction written (%s cells)", mmio.Thousands(int64(len(cids)))))
	lg.Info("raw prediction raster written", zap.String("raster", outfp), zap.Int("year", year))
	return nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
