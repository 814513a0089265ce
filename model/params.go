// model drives the statistical side of the vulnerability pipeline:
// variable selection, balanced ensemble training, spatially-blocked
// cross validation, partial dependence and the classification metrics
// reported for every evaluation unit.
package model

import (
	"runtime"

	"github.com/VANatHeritage/ConsVision-DevVulnModel/forest"
)

// defaultSeed keys every stochastic stage when the control file does
// not set one.
const defaultSeed = 20060616

// stream offsets keep the selection, final and per-fold fits on
// non-overlapping seed ranges
const (
	finalSeedOffset = 500000009
	foldSeedStride  = 10000019
)

// Params are the fitting parameters of a model run.
type Params struct {
	NTreesSelect int     `yaml:"ntreesselect"` // baseline (selection) ensemble size
	NTrees       int     `yaml:"ntrees"`       // final and per-fold ensemble size
	NFolds       int     `yaml:"nfolds"`
	Mtry         int     `yaml:"mtry"`    // <=0: sqrt(p)
	MinLeaf      int     `yaml:"minleaf"`
	Fraction     float64 `yaml:"fraction"` // share of minority class drawn per tree
	Balance      float64 `yaml:"balance"`  // class-1 draw relative to class-0
	CorrCut      float64 `yaml:"corrcut"`  // |r| at which variables cluster
	PDPoints     int     `yaml:"pdpoints"` // partial dependence grid size
	BlockSize    int     `yaml:"blocksize"` // raster inference cells per block
	Seed         int64   `yaml:"seed"`
	NWorkers     int     `yaml:"nworkers"`
}

// SetDefaults fills unset parameters.
func (p *Params) SetDefaults() {
	if p.NTreesSelect <= 0 {
		p.NTreesSelect = 500
	}
	if p.NTrees <= 0 {
		p.NTrees = 1000
	}
	if p.NFolds <= 0 {
		p.NFolds = 10
	}
	if p.MinLeaf <= 0 {
		p.MinLeaf = 1
	}
	if p.Fraction <= 0 {
		p.Fraction = 1.
	}
	if p.Balance <= 0 {
		p.Balance = 1.
	}
	if p.CorrCut <= 0 {
		p.CorrCut = 0.8
	}
	if p.PDPoints <= 0 {
		p.PDPoints = 25
	}
	if p.BlockSize <= 0 {
		p.BlockSize = 65536
	}
	if p.Seed == 0 {
		p.Seed = defaultSeed
	}
	if p.NWorkers <= 0 {
		p.NWorkers = runtime.NumCPU() - 1
		if p.NWorkers < 1 {
			p.NWorkers = 1
		}
	}
}

func (p Params) forestOptions(ntrees int, seed int64) forest.Options {
	return forest.Options{
		NTrees:   ntrees,
		Mtry:     p.Mtry,
		MinLeaf:  p.MinLeaf,
		Fraction: p.Fraction,
		Balance:  p.Balance,
		Seed:     seed,
		NWorkers: p.NWorkers,
	}
}
