package devvuln

import (
	"os"
	"path/filepath"
	"testing"
)

const testYaml = `dir: /data/vulnmod
gdef: va.gdef
varsdir: vars
maskdir: masks
samples: samples/attributed.csv
vartable: vars/vars_dv.csv
outdir: out
refyear: 2006
years: [2006, 2019]
utmzone: 17
params:
  ntrees: 250
  nfolds: 5
  seed: 42
`

func writeTmp(t *testing.T, name, s string) string {
	t.Helper()
	fp := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(fp, []byte(s), 0644); err != nil {
		t.Fatal(err)
	}
	return fp
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeTmp(t, "config.yaml", testYaml))
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	if cfg.RefYear != 2006 || len(cfg.Years) != 2 || cfg.Years[1] != 2019 {
		t.Error("years misread:", cfg.RefYear, cfg.Years)
	}
	// relative paths are joined onto dir
	if cfg.Samples != filepath.Join("/data/vulnmod", "samples", "attributed.csv") {
		t.Error("relative path not joined:", cfg.Samples)
	}
	if cfg.Gdef != filepath.Join("/data/vulnmod", "va.gdef") {
		t.Error("relative path not joined:", cfg.Gdef)
	}
	// explicit parameters survive, the rest default
	if cfg.Params.NTrees != 250 || cfg.Params.NFolds != 5 || cfg.Params.Seed != 42 {
		t.Error("explicit params lost:", cfg.Params)
	}
	if cfg.Params.NTreesSelect != 500 || cfg.Params.CorrCut != 0.8 || cfg.Params.BlockSize != 65536 {
		t.Error("defaults not applied:", cfg.Params)
	}
	if cfg.UTMZone != 17 {
		t.Error("utm zone misread:", cfg.UTMZone)
	}
}

func TestLoadConfigDefaultsYears(t *testing.T) {
	y := `dir: /d
samples: s.csv
vartable: v.csv
refyear: 2016
`
	cfg, err := LoadConfig(writeTmp(t, "config.yaml", y))
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	if len(cfg.Years) != 1 || cfg.Years[0] != 2016 {
		t.Error("expected years to default to the reference year, got:", cfg.Years)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(writeTmp(t, "config.yaml", "samples: s.csv\nvartable: v.csv\n")); err == nil {
		t.Error("expected error for unset refyear")
	}
	if _, err := LoadConfig(writeTmp(t, "config.yaml", "refyear: 2006\n")); err == nil {
		t.Error("expected error for missing sample filepaths")
	}
}

func TestReadKept(t *testing.T) {
	csv := `varname,group,cluster,importance,kept
roadDist,transport,0,0.021,1
travTime,transport,0,0.015,0
slpx100,topo,1,0.008,1
elev,topo,1,0.001,0
`
	names, err := readKept(writeTmp(t, "selection.csv", csv))
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	if len(names) != 2 || names[0] != "roadDist" || names[1] != "slpx100" {
		t.Error("kept set misread:", names)
	}

	none := `varname,group,cluster,importance,kept
roadDist,transport,0,0.021,0
`
	if _, err := readKept(writeTmp(t, "selection.csv", none)); err == nil {
		t.Error("expected error when nothing is kept")
	}
}
