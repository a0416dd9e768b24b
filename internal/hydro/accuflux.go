package hydro

import (
	"fmt"
	"math"

	"github.com/forest-guardian/hydroprep/internal/raster"
)

// Accuflux accumulates material along ldd: every cell receives its own
// material plus that of all upstream cells. Missing material counts as zero
// for upstream transport but leaves the cell itself missing.
func Accuflux(ldd, material *raster.Grid) (*raster.Grid, error) {
	if !ldd.SameShape(material) {
		return nil, fmt.Errorf("accuflux: %w", raster.ErrNotAligned)
	}
	order, down, err := topologicalOrder(ldd)
	if err != nil {
		return nil, fmt.Errorf("accuflux: %w", err)
	}

	flux := make([]float64, len(ldd.Data))
	for _, i := range order {
		if m := material.Data[i]; !math.IsNaN(m) {
			flux[i] += m
		}
		if j := down[i]; j >= 0 {
			flux[j] += flux[i]
		}
	}

	out := ldd.Like(math.NaN())
	for _, i := range order {
		if !math.IsNaN(material.Data[i]) {
			out.Data[i] = flux[i]
		}
	}
	return out, nil
}

// StreamOrder computes the Strahler order of every cell. Sources have order
// 1; where two or more upstream cells share the highest order the cell's
// order is one higher.
func StreamOrder(ldd *raster.Grid) (*raster.Grid, error) {
	order, down, err := topologicalOrder(ldd)
	if err != nil {
		return nil, fmt.Errorf("streamorder: %w", err)
	}

	n := len(ldd.Data)
	maxUp := make([]int, n)
	maxCount := make([]int, n)
	result := make([]int, n)

	out := ldd.Like(math.NaN())
	for _, i := range order {
		switch {
		case maxCount[i] == 0:
			result[i] = 1
		case maxCount[i] >= 2:
			result[i] = maxUp[i] + 1
		default:
			result[i] = maxUp[i]
		}
		out.Data[i] = float64(result[i])

		j := down[i]
		if j < 0 {
			continue
		}
		switch {
		case result[i] > maxUp[j]:
			maxUp[j] = result[i]
			maxCount[j] = 1
		case result[i] == maxUp[j]:
			maxCount[j]++
		}
	}
	return out, nil
}
