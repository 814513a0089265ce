package postpro

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTmp(t *testing.T, name, s string) string {
	t.Helper()
	fp := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(fp, []byte(s), 0644); err != nil {
		t.Fatal(err)
	}
	return fp
}

func TestLoadPoints(t *testing.T) {
	csv := `sampid,label,x,y
1,0,437250.5,4178300.
2,1,438010.,4177995.5
`
	pts, err := LoadPoints(writeTmp(t, "val.csv", csv), 0)
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	if len(pts) != 2 {
		t.Fatal("expected 2 points, got:", len(pts))
	}
	if pts[0].ID != 1 || pts[0].Label != 0 || pts[0].X != 437250.5 {
		t.Error("first point misread:", pts[0])
	}
	if pts[1].Label != 1 || pts[1].Y != 4177995.5 {
		t.Error("second point misread:", pts[1])
	}
}

func TestLoadPointsGeographic(t *testing.T) {
	csv := `sampid,label,lat,lon
1,1,37.5,-78.5
`
	pts, err := LoadPoints(writeTmp(t, "val.csv", csv), 17)
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	// central Virginia projects to UTM 17N with a ~4.1M m northing
	if pts[0].Y < 4.0e6 || pts[0].Y > 4.3e6 {
		t.Error("projected northing implausible:", pts[0].Y)
	}
	if pts[0].X < 1e5 || pts[0].X > 9e5 {
		t.Error("projected easting implausible:", pts[0].X)
	}

	// zone enforcement
	if _, err := LoadPoints(writeTmp(t, "val2.csv", csv), 18); err == nil {
		t.Error("expected zone mismatch error")
	}
}

func TestLoadPointsErrors(t *testing.T) {
	if _, err := LoadPoints(writeTmp(t, "v.csv", "sampid,label,x,y\n"), 0); err == nil {
		t.Error("expected error for empty point set")
	}
	if _, err := LoadPoints(writeTmp(t, "v.csv", "sampid,x,y,label\n1,1,2,0\n"), 0); err == nil {
		t.Error("expected error for wrong header order")
	}
	if _, err := LoadPoints(writeTmp(t, "v.csv", "sampid,label,x,y\n1,7,2,3\n"), 0); err == nil {
		t.Error("expected error for out-of-range label")
	}
}

func TestCellIndex(t *testing.T) {
	// 2x2 lattice of 10 m cells, origin (0,20): centres at (5,15),(15,15),(5,5),(15,5)
	ci := cellIndex{x0: 0, y0: 20, cw: 10, m: map[[2]int]int{}}
	centres := [][2]float64{{5, 15}, {15, 15}, {5, 5}, {15, 5}}
	for cid, xy := range centres {
		ci.m[ci.key(xy[0], xy[1])] = cid
	}

	// any point within a cell maps to it
	if c, ok := ci.cid(9.9, 10.1); !ok || c != 0 {
		t.Error("expected upper-left cell 0, got:", c, ok)
	}
	if c, ok := ci.cid(10.1, 9.9); !ok || c != 3 {
		t.Error("expected lower-right cell 3, got:", c, ok)
	}
	if c, ok := ci.cid(15, 15); !ok || c != 1 {
		t.Error("expected cell centre to map to its cell, got:", c, ok)
	}

	// outside the lattice
	if _, ok := ci.cid(-1, 5); ok {
		t.Error("expected miss west of lattice")
	}
	if _, ok := ci.cid(5, 21); ok {
		t.Error("expected miss north of lattice")
	}
}
