package model

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/VANatHeritage/ConsVision-DevVulnModel/forest"
	"github.com/VANatHeritage/ConsVision-DevVulnModel/sample"
)

// TrainFinal fits the production ensemble over the selected variables
// and wraps it as a persistable artifact. The fit draws from a seed
// stream independent of the baseline-selection fit.
func TrainFinal(t *sample.Table, names []string, p Params, lg *zap.Logger) (*forest.Artifact, error) {
	p.SetDefaults()
	ts, err := t.Subset(names)
	if err != nil {
		return nil, fmt.Errorf("TrainFinal: %w", err)
	}
	clf, err := forest.Fit(ts.X, ts.Y, ts.Names, p.forestOptions(p.NTrees, p.Seed+finalSeedOffset))
	if err != nil {
		return nil, fmt.Errorf("TrainFinal: %w", err)
	}
	a := forest.NewArtifact(clf, p.Fraction, p.Balance)
	lg.Info("final ensemble fit",
		zap.String("runid", a.RunID),
		zap.Int("trees", clf.NTrees),
		zap.Int("nvar", len(names)),
		zap.Float64("ooberr", clf.OOBErr))
	return a, nil
}
