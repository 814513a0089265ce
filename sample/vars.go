// sample holds the labeled training points, the predictor variable
// schema, spatial fold assignment and the stratified bootstrap sizing
// used to balance class draws.
package sample

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/maseology/mmio"
)

// VarDef is one row of the predictor variable metadata table. Static
// variables do not change by year and are always read from the
// reference-year layer set.
type VarDef struct {
	Name   string
	Group  string // domain group, used when thinning correlated variables
	Static bool
	Use    bool
	Desc   string
}

// VarTable is the declared variable schema. Column positions in a
// sample table are resolved against it once, at load.
type VarTable struct {
	Defs []VarDef
	mvd  map[string]int
}

// LoadVarTable reads the variable metadata csv (varname,group,static,use,description).
func LoadVarTable(fp string) (*VarTable, error) {
	lns, err := mmio.ReadTextLines(fp)
	if err != nil {
		return nil, fmt.Errorf("LoadVarTable %s: %w", fp, err)
	}
	if len(lns) < 2 {
		return nil, fmt.Errorf("LoadVarTable %s: empty table", fp)
	}
	vt := VarTable{mvd: make(map[string]int)}
	for i, ln := range lns[1:] {
		sp := strings.Split(strings.TrimSpace(ln), ",")
		if len(sp) == 0 || sp[0] == "" {
			continue
		}
		if len(sp) < 4 {
			return nil, fmt.Errorf("LoadVarTable %s: line %d: need varname,group,static,use", fp, i+2)
		}
		v := VarDef{Name: sp[0], Group: sp[1], Static: sp[2] == "1", Use: sp[3] == "1"}
		if len(sp) > 4 {
			v.Desc = sp[4]
		}
		if _, ok := vt.mvd[v.Name]; ok {
			return nil, fmt.Errorf("LoadVarTable %s: duplicate variable %s", fp, v.Name)
		}
		vt.mvd[v.Name] = len(vt.Defs)
		vt.Defs = append(vt.Defs, v)
	}
	return &vt, nil
}

// NewVarTable builds a schema directly from definitions.
func NewVarTable(defs []VarDef) (*VarTable, error) {
	vt := VarTable{mvd: make(map[string]int, len(defs))}
	for _, v := range defs {
		if _, ok := vt.mvd[v.Name]; ok {
			return nil, fmt.Errorf("NewVarTable: duplicate variable %s", v.Name)
		}
		vt.mvd[v.Name] = len(vt.Defs)
		vt.Defs = append(vt.Defs, v)
	}
	return &vt, nil
}

// Def returns the definition for a named variable.
func (vt *VarTable) Def(name string) (VarDef, bool) {
	i, ok := vt.mvd[name]
	if !ok {
		return VarDef{}, false
	}
	return vt.Defs[i], true
}

// UseNames lists the usable variable names, sorted.
func (vt *VarTable) UseNames() []string {
	o := make([]string, 0, len(vt.Defs))
	for _, v := range vt.Defs {
		if v.Use {
			o = append(o, v.Name)
		}
	}
	sort.Strings(o)
	return o
}

func parseFloat(s string) (float64, error) { return strconv.ParseFloat(strings.TrimSpace(s), 64) }
