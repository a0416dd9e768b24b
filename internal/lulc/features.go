package lulc

import (
	"fmt"
	"math"

	"github.com/forest-guardian/hydroprep/internal/geometry"
	"github.com/forest-guardian/hydroprep/internal/landcover"
	"github.com/forest-guardian/hydroprep/internal/landsat"
	"github.com/forest-guardian/hydroprep/internal/raster"
)

// FeatureNames lists the per pixel features in stack order.
var FeatureNames = []string{"B1", "B2", "B3", "B4", "B5", "B6", "B7", "NDVI"}

// Stack holds one feature vector per cell of the reference grid.
type Stack struct {
	Ref  *raster.Grid
	Rows [][]float64
}

// BuildStack combines seven aligned bands (B1..B7) and their NDVI into a
// feature stack.
func BuildStack(bands []*raster.Grid) (*Stack, error) {
	if len(bands) != 7 {
		return nil, fmt.Errorf("expected 7 bands, got %d", len(bands))
	}
	for i, b := range bands[1:] {
		if !bands[0].SameShape(b) {
			return nil, fmt.Errorf("band %d: %w", i+2, raster.ErrNotAligned)
		}
	}
	ndvi, err := landsat.NDVI(bands[3], bands[4])
	if err != nil {
		return nil, err
	}

	layers := append(append([]*raster.Grid{}, bands...), ndvi)
	n := len(bands[0].Data)
	flat := make([]float64, n*len(layers))
	rows := make([][]float64, n)
	for i := range rows {
		row := flat[i*len(layers) : (i+1)*len(layers)]
		for f, layer := range layers {
			row[f] = layer.Data[i]
		}
		rows[i] = row
	}
	return &Stack{Ref: bands[0], Rows: rows}, nil
}

// Finite reports whether every feature of cell i is a finite number.
func (s *Stack) Finite(i int) bool {
	for _, v := range s.Rows[i] {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// LabelGrid burns the training polygons into a grid aligned with ref. Later
// polygons overwrite earlier ones; unlabelled cells are NaN.
func LabelGrid(ref *raster.Grid, samples []geometry.Feature, classField string) (*raster.Grid, error) {
	labels := ref.Like(math.NaN())
	for i, s := range samples {
		name, ok := s.Fields[classField]
		if !ok {
			return nil, fmt.Errorf("training sample %d has no %q field", i, classField)
		}
		class, err := landcover.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("training sample %d: %w", i, err)
		}
		geometry.Burn(labels, s.Geometry, float64(class))
	}
	return labels, nil
}

// Samples returns the labelled cells with finite features: their feature
// rows, class codes and cell indices.
func Samples(stack *Stack, labels *raster.Grid) ([][]float64, []int, []int) {
	var x [][]float64
	var y, cells []int
	for i, v := range labels.Data {
		class, ok := landcover.FromValue(v)
		if !ok || class == 0 || !stack.Finite(i) {
			continue
		}
		x = append(x, stack.Rows[i])
		y = append(y, int(class))
		cells = append(cells, i)
	}
	return x, y, cells
}
