package devvuln

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/VANatHeritage/ConsVision-DevVulnModel/model"
)

// Config holds the run control file: input filepaths, model years and
// fitting parameters. One YAML file fully specifies a run.
type Config struct {
	Dir       string `yaml:"dir"`       // working directory, prefixed to relative paths
	Gdef      string `yaml:"gdef"`      // model grid definition
	VarsDir   string `yaml:"varsdir"`   // <varsdir>/<year>/<varname>.bil covariate layers
	MaskDir   string `yaml:"maskdir"`   // conslands_pmult_/water_mask_/dev_mask_<year>.bil
	Samples   string `yaml:"samples"`   // training point csv
	VarTable  string `yaml:"vartable"`  // variable metadata csv
	ValPoints string `yaml:"valpoints"` // independent validation point csv
	OutDir    string `yaml:"outdir"`

	RefYear int   `yaml:"refyear"` // year static variable layers are stored under
	Years   []int `yaml:"years"`  // inference years

	Params model.Params `yaml:"params"`

	Prep *PrepConfig `yaml:"prep"` // optional sampling-frame build

	UTMZone int `yaml:"utmzone"` // zone for lat/lon validation points (0 if projected)
}

// PrepConfig builds the sampling frame for the training year: the
// development-change raster from two imperviousness layers and the
// exclusion-based sampling mask.
type PrepConfig struct {
	ImpT1    string  `yaml:"impt1"`    // imperviousness raster, start of change period
	ImpT2    string  `yaml:"impt2"`    // imperviousness raster, end of change period
	DevelMin float64 `yaml:"develmin"` // percent imperviousness considered developed
	RoadMax  float64 `yaml:"roadmax"`  // exclude cells farther than this from a road
	SlopeMax float64 `yaml:"slopemax"` // exclude cells steeper than this (slope x100)
}

func (p *PrepConfig) setDefaults() {
	if p.DevelMin <= 0 {
		p.DevelMin = 1.
	}
	if p.RoadMax <= 0 {
		p.RoadMax = 2000.
	}
	if p.SlopeMax <= 0 {
		p.SlopeMax = 7000.
	}
}

// LoadConfig reads and validates a run control file.
func LoadConfig(fp string) (*Config, error) {
	b, err := os.ReadFile(fp)
	if err != nil {
		return nil, fmt.Errorf("LoadConfig %s: %w", fp, err)
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("LoadConfig %s: %w", fp, err)
	}
	c.Params.SetDefaults()
	if c.RefYear <= 0 {
		return nil, fmt.Errorf("LoadConfig %s: refyear not set", fp)
	}
	if len(c.Years) == 0 {
		c.Years = []int{c.RefYear}
	}
	paths := []*string{&c.Gdef, &c.VarsDir, &c.MaskDir, &c.Samples, &c.VarTable, &c.ValPoints, &c.OutDir}
	if c.Prep != nil {
		c.Prep.setDefaults()
		paths = append(paths, &c.Prep.ImpT1, &c.Prep.ImpT2)
	}
	for _, p := range paths {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(c.Dir, *p)
		}
	}
	if c.Samples == "" || c.VarTable == "" {
		return nil, fmt.Errorf("LoadConfig %s: samples and vartable filepaths are required", fp)
	}
	return &c, nil
}
