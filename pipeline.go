package devvuln

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/maseology/mmio"
	"go.uber.org/zap"

	"github.com/VANatHeritage/ConsVision-DevVulnModel/forest"
	"github.com/VANatHeritage/ConsVision-DevVulnModel/model"
	"github.com/VANatHeritage/ConsVision-DevVulnModel/postpro"
	"github.com/VANatHeritage/ConsVision-DevVulnModel/sample"
	"github.com/VANatHeritage/ConsVision-DevVulnModel/spatial"
)

// BuildSamplingFrame produces the training-year sampling inputs: the
// development-change raster from the configured imperviousness pair and
// the exclusion-based sampling mask (conserved-out, remote, steep, open
// water and already-developed cells struck).
func (c *Context) BuildSamplingFrame(year int) error {
	if c.S == nil || c.Cfg.Prep == nil {
		return fmt.Errorf("BuildSamplingFrame: no grid or prep configuration")
	}
	pc := c.Cfg.Prep
	if err := c.S.DevChange(pc.ImpT1, pc.ImpT2,
		c.outpath(fmt.Sprintf("devchg_%d.bil", year)), pc.DevelMin, c.Lg); err != nil {
		return fmt.Errorf("BuildSamplingFrame: %w", err)
	}
	excls := []spatial.Exclusion{
		{Name: "conserved", Path: c.S.PmultPath(year), Test: func(v float64) bool { return v == 0. }},
		{Name: "remote", Path: c.S.LayerPath(sample.VarDef{Name: "roadDist"}, year), Test: func(v float64) bool { return v > pc.RoadMax }},
		{Name: "steep", Path: c.S.LayerPath(sample.VarDef{Name: "slpx100", Static: true}, year), Test: func(v float64) bool { return v > pc.SlopeMax }},
		{Name: "open water", Path: c.S.WaterMaskPath(year), Test: func(v float64) bool { return v == 1. }},
		{Name: "developed", Path: c.S.DevMaskPath(year), Test: func(v float64) bool { return v == 1. }},
	}
	if err := c.S.SampMask(excls, c.outpath(fmt.Sprintf("sampmask_%d.bil", year)), c.Lg); err != nil {
		return fmt.Errorf("BuildSamplingFrame: %w", err)
	}
	return nil
}

// SelectVars runs (or reloads) variable selection, returning the kept
// variable names. The selection table is the cache: when it already
// exists in the output directory the kept set is read back rather than
// refit.
func (c *Context) SelectVars() ([]string, error) {
	fp := c.outpath("selection.csv")
	if _, ok := mmio.FileExists(fp); ok {
		names, err := readKept(fp)
		if err != nil {
			return nil, err
		}
		c.Lg.Info("variable selection reloaded", zap.String("csv", fp), zap.Int("nkept", len(names)))
		return names, nil
	}
	names, rows, err := model.SelectVars(c.TB, c.VT, c.Cfg.Params, c.Lg)
	if err != nil {
		return nil, fmt.Errorf("SelectVars: %w", err)
	}
	if err := model.WriteSelection(fp, rows); err != nil {
		return nil, fmt.Errorf("SelectVars: %w", err)
	}
	return names, nil
}

// readKept recovers the kept variable names from a selection table,
// preserving row order.
func readKept(fp string) ([]string, error) {
	lns, err := mmio.ReadTextLines(fp)
	if err != nil {
		return nil, fmt.Errorf("readKept %s: %w", fp, err)
	}
	var names []string
	for i, ln := range lns[1:] {
		sp := strings.Split(strings.TrimSpace(ln), ",")
		if len(sp) < 5 || sp[0] == "" {
			continue
		}
		k, err := strconv.Atoi(sp[4])
		if err != nil {
			return nil, fmt.Errorf("readKept %s: line %d: %w", fp, i+2, err)
		}
		if k == 1 {
			names = append(names, sp[0])
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("readKept %s: no variables kept", fp)
	}
	return names, nil
}

// CrossValidate runs the spatially-blocked K-fold evaluation over the
// kept variables, writing per-fold statistics and the pooled curves.
func (c *Context) CrossValidate(names []string) (*model.Stats, error) {
	folds, pooled, err := model.CrossValidate(c.TB, names, c.Cfg.Params, c.Lg)
	if err != nil {
		return nil, fmt.Errorf("CrossValidate: %w", err)
	}
	if err := model.WriteFoldStats(c.outpath("cv_foldstats.csv"), folds, pooled); err != nil {
		return nil, fmt.Errorf("CrossValidate: %w", err)
	}
	if err := model.WriteCurves(c.outpath("cv_pr.csv"), c.outpath("cv_roc.csv"), pooled); err != nil {
		return nil, fmt.Errorf("CrossValidate: %w", err)
	}
	return pooled, nil
}

// TrainFinal fits (or reloads) the full-sample ensemble. The gob
// artifact is the cache; importance, out-of-bag predictions and partial
// dependence are written alongside it when fit.
func (c *Context) TrainFinal(names []string) (*forest.Artifact, error) {
	fp := c.outpath("devvuln.gob")
	if _, ok := mmio.FileExists(fp); ok {
		a, err := forest.LoadGobArtifact(fp)
		if err != nil {
			return nil, fmt.Errorf("TrainFinal: %w", err)
		}
		c.Lg.Info("model artifact reloaded", zap.String("gob", fp), zap.String("runid", a.RunID))
		return a, nil
	}
	a, err := model.TrainFinal(c.TB, names, c.Cfg.Params, c.Lg)
	if err != nil {
		return nil, fmt.Errorf("TrainFinal: %w", err)
	}
	if err := a.SaveGob(fp); err != nil {
		return nil, fmt.Errorf("TrainFinal: %w", err)
	}
	ts, err := c.TB.Subset(names)
	if err != nil {
		return nil, fmt.Errorf("TrainFinal: %w", err)
	}
	if err := model.WriteImportance(c.outpath("importance.csv"), a.Model); err != nil {
		return nil, fmt.Errorf("TrainFinal: %w", err)
	}
	if err := model.WriteOOB(c.outpath("oob.csv"), ts, a.Model); err != nil {
		return nil, fmt.Errorf("TrainFinal: %w", err)
	}
	pds := model.PartialDependence(a.Model, ts.X, c.Cfg.Params)
	if err := model.WritePartialDep(c.outpath("partialdep.csv"), pds); err != nil {
		return nil, fmt.Errorf("TrainFinal: %w", err)
	}
	return a, nil
}

// MapVulnerability scores and adjusts the vulnerability rasters for one
// inference year.
func (c *Context) MapVulnerability(a *forest.Artifact, year int) error {
	if c.S == nil {
		return fmt.Errorf("MapVulnerability: no grid definition configured")
	}
	rawfp := c.outpath(fmt.Sprintf("vulnraw_%d.bil", year))
	adjfp := c.outpath(fmt.Sprintf("vulnadj_%d.bil", year))
	if err := c.S.MapRaw(a.Model, c.VT, year, rawfp, c.Cfg.Params, c.Lg); err != nil {
		return fmt.Errorf("MapVulnerability: %w", err)
	}
	if err := c.S.Adjust(rawfp, adjfp, year, c.Lg); err != nil {
		return fmt.Errorf("MapVulnerability: %w", err)
	}
	if err := c.S.WriteClassCounts(adjfp, c.outpath(fmt.Sprintf("vulnclass_%d.csv", year))); err != nil {
		return fmt.Errorf("MapVulnerability: %w", err)
	}
	return nil
}

// Validate evaluates the finished rasters of one year against the
// independent validation points, comparing to the pooled
// cross-validation result.
func (c *Context) Validate(year int, pooled *model.Stats) (*postpro.Results, error) {
	if c.S == nil {
		return nil, fmt.Errorf("Validate: no grid definition configured")
	}
	if c.Cfg.ValPoints == "" {
		c.Lg.Warn("no validation points configured, skipping validation")
		return nil, nil
	}
	pts, err := postpro.LoadPoints(c.Cfg.ValPoints, c.Cfg.UTMZone)
	if err != nil {
		return nil, fmt.Errorf("Validate: %w", err)
	}
	r, err := postpro.Validate(c.S, pts,
		c.outpath(fmt.Sprintf("vulnraw_%d.bil", year)),
		c.outpath(fmt.Sprintf("vulnadj_%d.bil", year)),
		c.outpath(fmt.Sprintf("devvuln_%d", year)), pooled, c.Lg)
	if err != nil {
		return nil, fmt.Errorf("Validate: %w", err)
	}
	return r, nil
}

// Run executes the full modeling sequence: the sampling frame when
// configured, selection, cross-validation, the final fit, raster
// production for every configured year, and validation of the first
// year's product.
func (c *Context) Run() error {
	tt := mmio.NewTimer()
	if c.Cfg.Prep != nil && c.S != nil {
		if err := c.BuildSamplingFrame(c.Cfg.RefYear); err != nil {
			return err
		}
		tt.Lap("sampling frame complete")
	}
	names, err := c.SelectVars()
	if err != nil {
		return err
	}
	tt.Lap("variable selection complete")

	pooled, err := c.CrossValidate(names)
	if err != nil {
		return err
	}
	tt.Lap("cross-validation complete")

	a, err := c.TrainFinal(names)
	if err != nil {
		return err
	}
	tt.Lap("final model fit complete")

	if c.S != nil {
		for _, y := range c.Cfg.Years {
			if err := c.MapVulnerability(a, y); err != nil {
				return err
			}
			tt.Lap(fmt.Sprintf("vulnerability rasters complete (%d)", y))
		}
		if _, err := c.Validate(c.Cfg.Years[0], pooled); err != nil {
			return err
		}
		tt.Lap("validation complete")
	} else {
		c.Lg.Warn("no grid definition configured, skipping raster production")
	}
	return nil
}
