package devvuln

import (
	"fmt"
	"path/filepath"

	"github.com/maseology/mmio"
	"go.uber.org/zap"

	"github.com/VANatHeritage/ConsVision-DevVulnModel/sample"
	"github.com/VANatHeritage/ConsVision-DevVulnModel/spatial"
)

// Context is the loaded state of one model run: the attributed,
// fold-assigned sample table, variable metadata and the raster stack.
// Loading is idempotent -- fold assignments are computed once and
// reloaded from gob on subsequent runs so every stage of a run sees the
// same spatial blocking.
type Context struct {
	Cfg *Config
	Lg  *zap.Logger
	VT  *sample.VarTable
	TB  *sample.Table
	S   *spatial.Stack
}

// NewContext loads samples, variable metadata and the grid, assigning
// (or reloading) the spatially-blocked folds.
func NewContext(cfg *Config, lg *zap.Logger) (*Context, error) {
	mmio.MakeDir(cfg.OutDir)

	vt, err := sample.LoadVarTable(cfg.VarTable)
	if err != nil {
		return nil, fmt.Errorf("NewContext: %w", err)
	}
	tb, err := sample.LoadTable(cfg.Samples, vt)
	if err != nil {
		return nil, fmt.Errorf("NewContext: %w", err)
	}
	n0, n1 := tb.ClassCounts()
	lg.Info("samples loaded", zap.Int("nsamp", len(tb.Y)), zap.Int("class0", n0), zap.Int("class1", n1), zap.Int("nvars", len(tb.Names)))

	foldfp := filepath.Join(cfg.OutDir, "folds.gob")
	var mgf map[int]int
	if _, ok := mmio.FileExists(foldfp); ok {
		if mgf, err = sample.LoadFolds(foldfp); err != nil {
			return nil, fmt.Errorf("NewContext: %w", err)
		}
		lg.Info("fold assignments reloaded", zap.String("gob", foldfp))
	} else {
		if mgf, err = sample.AssignFolds(tb, cfg.Params.NFolds); err != nil {
			return nil, fmt.Errorf("NewContext: %w", err)
		}
		if err = sample.SaveFolds(foldfp, mgf); err != nil {
			return nil, fmt.Errorf("NewContext: %w", err)
		}
		lg.Info("fold assignments saved", zap.String("gob", foldfp), zap.Int("ngrids", len(mgf)))
	}
	if err = tb.ApplyFolds(mgf); err != nil {
		return nil, fmt.Errorf("NewContext: %w", err)
	}

	var s *spatial.Stack
	if cfg.Gdef != "" {
		if s, err = spatial.NewStack(cfg.Gdef, cfg.VarsDir, cfg.MaskDir, cfg.RefYear); err != nil {
			return nil, fmt.Errorf("NewContext: %w", err)
		}
		lg.Info("grid loaded", zap.String("gdef", cfg.Gdef), zap.Int("nact", s.GD.Nact))
	}

	return &Context{Cfg: cfg, Lg: lg, VT: vt, TB: tb, S: s}, nil
}

// outpath prefixes a run output filename with the output directory.
func (c *Context) outpath(fn string) string { return filepath.Join(c.Cfg.OutDir, fn) }
