package output

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/forest-guardian/hydroprep/internal/raster"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, 0.0, normalize(5, 5, 5))
	assert.Equal(t, 0.5, normalize(5, 0, 10))
	assert.Equal(t, 0.0, normalize(-1, 0, 10))
	assert.Equal(t, 1.0, normalize(11, 0, 10))
}

func TestValueToColor(t *testing.T) {
	assert.Equal(t, uint8(255), valueToColor(0).B)
	assert.Equal(t, uint8(255), valueToColor(0.5).G)
	assert.Equal(t, uint8(255), valueToColor(1).R)
}

func TestCreateImages(t *testing.T) {
	dir := t.TempDir()
	g := raster.New(20, 10, [6]float64{0, 30, 0, 0, 0, -30}, "")
	for i := range g.Data {
		g.Data[i] = float64(i%6 + 1)
	}
	g.Data[0] = math.NaN()

	path, err := CreateClassImage(g, filepath.Join(dir, "lulc"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "lulc.png"), path)
	assert.FileExists(t, path)

	path, err = CreateScalarImage(g, filepath.Join(dir, "quicklook", "lai.png"))
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestCreateValidationGeoJSON(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateValidationGeoJSON([]ValidationPoint{
		{X: 1, Y: 2, Col: 0, Row: 1, Truth: "Forest", Predicted: "Forest"},
		{X: 3, Y: 4, Col: 1, Row: 1, Truth: "Forest", Predicted: "Builtup"},
	}, filepath.Join(dir, "validation"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)
	assert.Equal(t, true, fc.Features[0].Properties["correct"])
	assert.Equal(t, "Builtup", fc.Features[1].Properties["predicted"])
}
