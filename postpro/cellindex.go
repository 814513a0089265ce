package postpro

import (
	"math"

	"github.com/maseology/goHydro/grid"
)

// cellIndex maps a coordinate to an active cell id by snapping to the
// uniform cell lattice derived from the active cell centres.
type cellIndex struct {
	x0, y0, cw float64
	m          map[[2]int]int
}

func newCellIndex(gd *grid.Definition) *cellIndex {
	ci := cellIndex{cw: gd.Cwidth, m: make(map[[2]int]int, gd.Nact)}
	xn, yx := math.Inf(1), math.Inf(-1)
	for _, cid := range gd.Sactives {
		xy := gd.Coord[cid]
		xn = math.Min(xn, xy.X)
		yx = math.Max(yx, xy.Y)
	}
	// lattice origin at the upper-left corner of the upper-left cell
	ci.x0, ci.y0 = xn-gd.Cwidth/2., yx+gd.Cwidth/2.
	for _, cid := range gd.Sactives {
		xy := gd.Coord[cid]
		ci.m[ci.key(xy.X, xy.Y)] = cid
	}
	return &ci
}

func (ci *cellIndex) key(x, y float64) [2]int {
	return [2]int{int(math.Floor((x - ci.x0) / ci.cw)), int(math.Floor((ci.y0 - y) / ci.cw))}
}

// cid returns the active cell containing (x,y), false when the point
// falls outside the active extent.
func (ci *cellIndex) cid(x, y float64) (int, bool) {
	c, ok := ci.m[ci.key(x, y)]
	return c, ok
}
