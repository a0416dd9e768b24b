package raster

import (
	"errors"
	"fmt"
	"math"
)

// Window is a pixel window inside a larger raster.
type Window struct {
	XOff   int
	YOff   int
	Width  int
	Height int
}

var ErrNoOverlap = errors.New("bounds do not overlap the raster")

const snapTolerance = 1e-6

// WindowFromBounds returns the smallest pixel window covering the given map
// bounds, snapped outward to whole pixels and clamped to the raster extent.
func WindowFromBounds(transform [6]float64, width, height int, minX, minY, maxX, maxY float64) (Window, error) {
	if transform[2] != 0 || transform[4] != 0 {
		return Window{}, fmt.Errorf("rotated geotransforms are not supported: %v", transform)
	}
	if transform[1] == 0 || transform[5] == 0 {
		return Window{}, fmt.Errorf("invalid geotransform: %v", transform)
	}

	c1 := (minX - transform[0]) / transform[1]
	c2 := (maxX - transform[0]) / transform[1]
	r1 := (minY - transform[3]) / transform[5]
	r2 := (maxY - transform[3]) / transform[5]

	colMin := int(math.Floor(math.Min(c1, c2) + snapTolerance))
	colMax := int(math.Ceil(math.Max(c1, c2) - snapTolerance))
	rowMin := int(math.Floor(math.Min(r1, r2) + snapTolerance))
	rowMax := int(math.Ceil(math.Max(r1, r2) - snapTolerance))

	colMin = clamp(colMin, 0, width)
	colMax = clamp(colMax, 0, width)
	rowMin = clamp(rowMin, 0, height)
	rowMax = clamp(rowMax, 0, height)

	if colMax <= colMin || rowMax <= rowMin {
		return Window{}, ErrNoOverlap
	}

	return Window{
		XOff:   colMin,
		YOff:   rowMin,
		Width:  colMax - colMin,
		Height: rowMax - rowMin,
	}, nil
}

// Transform returns the geotransform of the window given its parent's.
func (w Window) Transform(parent [6]float64) [6]float64 {
	return [6]float64{
		parent[0] + float64(w.XOff)*parent[1] + float64(w.YOff)*parent[2],
		parent[1],
		parent[2],
		parent[3] + float64(w.XOff)*parent[4] + float64(w.YOff)*parent[5],
		parent[4],
		parent[5],
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
