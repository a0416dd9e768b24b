package lulc

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/forest-guardian/hydroprep/internal/forest"
	"github.com/forest-guardian/hydroprep/internal/geometry"
	"github.com/forest-guardian/hydroprep/internal/raster"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nan = math.NaN()

var unit = [6]float64{0, 1, 0, 3, 0, -1}

func grid(width int, values ...float64) *raster.Grid {
	g := raster.New(width, len(values)/width, unit, "")
	copy(g.Data, values)
	return g
}

func TestMajorityFilter(t *testing.T) {
	g := grid(3,
		4, 4, 1,
		4, 1, 1,
		nan, 1, 6,
	)
	out := MajorityFilter(g)

	// 4,4,4,1 around the corner: 4 wins
	assert.Equal(t, 4.0, out.At(0, 0))
	// centre sees four 1s, three 4s and one 6
	assert.Equal(t, 1.0, out.At(1, 1))
	// the missing cell is ignored
	assert.Equal(t, 1.0, out.At(0, 2))
}

func TestMajorityFilterAllMissing(t *testing.T) {
	out := MajorityFilter(grid(2, nan, nan, nan, nan))
	for _, v := range out.Data {
		assert.True(t, math.IsNaN(v))
	}
}

func TestMajorityFilterTie(t *testing.T) {
	out := MajorityFilter(grid(2, 5, 3, nan, nan))
	assert.Equal(t, 3.0, out.Data[0])
	assert.Equal(t, 3.0, out.Data[3])
}

func square(minX, minY, maxX, maxY float64) orb.Polygon {
	return orb.Polygon{orb.Ring{{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY}}}
}

func TestLabelGrid(t *testing.T) {
	ref := raster.New(3, 3, unit, "")
	samples := []geometry.Feature{
		{Geometry: square(0, 0, 3, 3), Fields: map[string]string{"Class": "Agriculture"}},
		{Geometry: square(2, 0, 3, 1), Fields: map[string]string{"Class": "Grassland / Shurbs"}},
	}
	labels, err := LabelGrid(ref, samples, "Class")
	require.NoError(t, err)
	assert.Equal(t, 1.0, labels.At(0, 0))
	assert.Equal(t, 5.0, labels.At(2, 2))

	_, err = LabelGrid(ref, []geometry.Feature{{Geometry: square(0, 0, 1, 1), Fields: map[string]string{"Class": "Swamp"}}}, "Class")
	assert.Error(t, err)

	_, err = LabelGrid(ref, []geometry.Feature{{Geometry: square(0, 0, 1, 1), Fields: map[string]string{}}}, "Class")
	assert.Error(t, err)
}

func bands(n int) []*raster.Grid {
	out := make([]*raster.Grid, 7)
	for b := range out {
		g := raster.New(n, 1, unit, "")
		for i := range g.Data {
			g.Data[i] = float64(b+1) * 0.01 * float64(i+1)
		}
		out[b] = g
	}
	return out
}

func TestBuildStack(t *testing.T) {
	b := bands(3)
	b[4].Data[2] = 0
	b[3].Data[2] = 0

	stack, err := BuildStack(b)
	require.NoError(t, err)
	require.Len(t, stack.Rows, 3)
	assert.Len(t, stack.Rows[0], len(FeatureNames))
	assert.InDelta(t, 0.01, stack.Rows[0][0], 1e-12)
	assert.InDelta(t, (0.05-0.04)/(0.05+0.04), stack.Rows[0][7], 1e-12)
	assert.True(t, stack.Finite(0))
	assert.False(t, stack.Finite(2))

	_, err = BuildStack(b[:6])
	assert.Error(t, err)
}

func TestSamplesSkipUnlabelledAndNonFinite(t *testing.T) {
	b := bands(4)
	b[4].Data[3] = 0
	b[3].Data[3] = 0
	stack, err := BuildStack(b)
	require.NoError(t, err)

	labels := grid(4, 4, nan, 6, 4)
	x, y, cells := Samples(stack, labels)
	assert.Equal(t, []int{4, 6}, y)
	assert.Equal(t, []int{0, 2}, cells)
	assert.Len(t, x, 2)
}

func TestClassify(t *testing.T) {
	stack, err := BuildStack(bands(4))
	require.NoError(t, err)

	// a stump splitting on B1
	clf := &forest.Forest{
		Classes:   []int{3, 4},
		NFeatures: len(FeatureNames),
		Trees: []forest.Tree{{Nodes: []forest.Node{
			{Feature: 0, Threshold: 0.025, Left: 1, Right: 2},
			{Feature: -1, Proba: []float64{1, 0}},
			{Feature: -1, Proba: []float64{0, 1}},
		}}},
	}
	out, err := Classify(context.Background(), clf, stack, []bool{true, true, true, false}, 2)
	require.NoError(t, err)
	assert.Equal(t, 3.0, out.Data[0])
	assert.Equal(t, 3.0, out.Data[1])
	assert.Equal(t, 4.0, out.Data[2])
	assert.True(t, math.IsNaN(out.Data[3]))
}

func TestWriteReport(t *testing.T) {
	m, err := forest.NewConfusionMatrix([]int{1, 4, 4}, []int{1, 4, 1})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "report.csv")
	require.NoError(t, WriteReport(path, forest.NewReport(m, className)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, "label,precision,recall,f1_score,support", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Agriculture,"))
	assert.Len(t, lines, 6)
}
