package geometry

import (
	"github.com/forest-guardian/hydroprep/internal/raster"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Feature is a polygon with the attribute fields read alongside it.
type Feature struct {
	Geometry orb.Geometry
	Fields   map[string]string
}

func Geometries(features []Feature) []orb.Geometry {
	geoms := make([]orb.Geometry, 0, len(features))
	for _, f := range features {
		geoms = append(geoms, f.Geometry)
	}
	return geoms
}

// Bounds returns the union of the bounds of all geometries.
func Bounds(geoms []orb.Geometry) (orb.Bound, bool) {
	var bound orb.Bound
	found := false
	for _, g := range geoms {
		if g == nil {
			continue
		}
		if !found {
			bound = g.Bound()
			found = true
			continue
		}
		bound = bound.Union(g.Bound())
	}
	return bound, found
}

// Contains reports whether point lies inside an areal geometry.
func Contains(g orb.Geometry, point orb.Point) bool {
	switch geom := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(geom, point)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(geom, point)
	case orb.Ring:
		return planar.RingContains(geom, point)
	case orb.Collection:
		for _, child := range geom {
			if Contains(child, point) {
				return true
			}
		}
	}
	return false
}

// Mask flags the cells of g whose centre lies inside any of the geometries.
func Mask(g *raster.Grid, geoms []orb.Geometry) []bool {
	mask := make([]bool, g.Width*g.Height)
	for _, geom := range geoms {
		burn(g, geom, func(i int) { mask[i] = true })
	}
	return mask
}

// Burn writes value into every cell whose centre lies inside geom. Later
// calls overwrite earlier ones.
func Burn(g *raster.Grid, geom orb.Geometry, value float64) {
	burn(g, geom, func(i int) { g.Data[i] = value })
}

// ApplyMask sets every cell outside mask to fill.
func ApplyMask(g *raster.Grid, mask []bool, fill float64) {
	for i, inside := range mask {
		if !inside {
			g.Data[i] = fill
		}
	}
}

func burn(g *raster.Grid, geom orb.Geometry, set func(i int)) {
	if geom == nil {
		return
	}
	bound := geom.Bound()
	rowStart, rowEnd, colStart, colEnd := candidateCells(g, bound)
	for row := rowStart; row < rowEnd; row++ {
		for col := colStart; col < colEnd; col++ {
			x, y := g.CellCenter(col, row)
			p := orb.Point{x, y}
			if !bound.Contains(p) {
				continue
			}
			if Contains(geom, p) {
				set(g.Index(col, row))
			}
		}
	}
}

// candidateCells limits the scan to the cells under the bound.
func candidateCells(g *raster.Grid, bound orb.Bound) (int, int, int, int) {
	if g.Transform[2] != 0 || g.Transform[4] != 0 {
		return 0, g.Height, 0, g.Width
	}
	w, err := raster.WindowFromBounds(g.Transform, g.Width, g.Height, bound.Min.X(), bound.Min.Y(), bound.Max.X(), bound.Max.Y())
	if err != nil {
		return 0, 0, 0, 0
	}
	return w.YOff, w.YOff + w.Height, w.XOff, w.XOff + w.Width
}
