package spatial

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/maseology/goHydro/grid"

	"github.com/VANatHeritage/ConsVision-DevVulnModel/sample"
)

// Stack resolves covariate and mask layers against one shared grid
// definition. Static variables always read from the reference-year layer
// set; dynamic variables from the requested inference year.
type Stack struct {
	GD      *grid.Definition
	VarsDir string
	MaskDir string
	RefYear int
	Ncell   int
}

// NewStack loads the grid definition shared by every layer.
func NewStack(gdeffp, varsdir, maskdir string, refyear int) (*Stack, error) {
	gd, err := grid.ReadGDEF(gdeffp, true)
	if err != nil {
		return nil, fmt.Errorf("NewStack: grid.ReadGDEF %s: %w", gdeffp, err)
	}
	return &Stack{
		GD:      gd,
		VarsDir: varsdir,
		MaskDir: maskdir,
		RefYear: refyear,
		Ncell:   len(gd.NullArray(Nodata)),
	}, nil
}

// LayerPath resolves the .bil filepath for a variable and year.
func (s *Stack) LayerPath(v sample.VarDef, year int) string {
	y := year
	if v.Static {
		y = s.RefYear
	}
	return filepath.Join(s.VarsDir, strconv.Itoa(y), v.Name+".bil")
}

// LoadLayers reads the layers backing the given variables for one
// inference year, in order. Any missing or misaligned layer aborts,
// naming it.
func (s *Stack) LoadLayers(vars []sample.VarDef, year int) ([][]float64, error) {
	o := make([][]float64, len(vars))
	for i, v := range vars {
		fp := s.LayerPath(v, year)
		l, err := ReadBil(fp, s.Ncell)
		if err != nil {
			return nil, fmt.Errorf("LoadLayers %s: %w", v.Name, err)
		}
		o[i] = l
	}
	return o, nil
}

// Mask raster filepaths, one per year.
func (s *Stack) PmultPath(year int) string {
	return filepath.Join(s.MaskDir, fmt.Sprintf("conslands_pmult_%d.bil", year))
}
func (s *Stack) WaterMaskPath(year int) string {
	return filepath.Join(s.MaskDir, fmt.Sprintf("water_mask_%d.bil", year))
}
func (s *Stack) DevMaskPath(year int) string {
	return filepath.Join(s.MaskDir, fmt.Sprintf("dev_mask_%d.bil", year))
}
