// Package postpro evaluates finished vulnerability rasters against an
// independent set of labeled validation points.
package postpro

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/im7mortal/UTM"
	"github.com/maseology/mmio"
)

// ValPoint is one independently-labeled validation location in grid
// coordinates.
type ValPoint struct {
	ID    int
	X, Y  float64
	Label int // 0 not converted, 1 converted
}

// LoadPoints reads a validation point csv. The header must begin
// sampid,label followed by either x,y (grid coordinates) or lat,lon;
// geographic coordinates are projected to UTM, and when utmzone is
// nonzero each point must fall in that zone.
func LoadPoints(fp string, utmzone int) ([]ValPoint, error) {
	lns, err := mmio.ReadTextLines(fp)
	if err != nil {
		return nil, fmt.Errorf("LoadPoints %s: %w", fp, err)
	}
	if len(lns) < 2 {
		return nil, fmt.Errorf("LoadPoints %s: no points", fp)
	}
	hdr := strings.Split(strings.TrimSpace(lns[0]), ",")
	if len(hdr) < 4 || hdr[0] != "sampid" || hdr[1] != "label" {
		return nil, fmt.Errorf("LoadPoints %s: header must begin sampid,label", fp)
	}
	geo := hdr[2] == "lat" && hdr[3] == "lon"
	if !geo && (hdr[2] != "x" || hdr[3] != "y") {
		return nil, fmt.Errorf("LoadPoints %s: coordinate columns must be x,y or lat,lon", fp)
	}

	var pts []ValPoint
	for i, ln := range lns[1:] {
		sp := strings.Split(strings.TrimSpace(ln), ",")
		if len(sp) < 4 || sp[0] == "" {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(sp[0]))
		if err != nil {
			return nil, fmt.Errorf("LoadPoints %s: line %d: sampid: %w", fp, i+2, err)
		}
		lbl, err := strconv.Atoi(strings.TrimSpace(sp[1]))
		if err != nil || (lbl != 0 && lbl != 1) {
			return nil, fmt.Errorf("LoadPoints %s: line %d: label must be 0 or 1", fp, i+2)
		}
		a, err := strconv.ParseFloat(strings.TrimSpace(sp[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("LoadPoints %s: line %d: %s: %w", fp, i+2, hdr[2], err)
		}
		b, err := strconv.ParseFloat(strings.TrimSpace(sp[3]), 64)
		if err != nil {
			return nil, fmt.Errorf("LoadPoints %s: line %d: %s: %w", fp, i+2, hdr[3], err)
		}
		x, y := a, b
		if geo {
			e, n, zn, _, err := UTM.FromLatLon(a, b, a >= 0.)
			if err != nil {
				return nil, fmt.Errorf("LoadPoints %s: line %d: %w", fp, i+2, err)
			}
			if utmzone != 0 && zn != utmzone {
				return nil, fmt.Errorf("LoadPoints %s: line %d: point falls in UTM zone %d, expected %d", fp, i+2, zn, utmzone)
			}
			x, y = e, n
		}
		pts = append(pts, ValPoint{ID: id, X: x, Y: y, Label: lbl})
	}
	if len(pts) == 0 {
		return nil, fmt.Errorf("LoadPoints %s: no points", fp)
	}
	return pts, nil
}
