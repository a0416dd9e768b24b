package mapio

import (
	"encoding/json"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/airbusgeo/godal"
	"github.com/forest-guardian/hydroprep/internal/geometry"
	"github.com/forest-guardian/hydroprep/internal/raster"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const utm51N = 32651

var utmTransform = [6]float64{500000, 30, 0, 1600000, 0, -30}

func projection(t *testing.T, epsg int) string {
	t.Helper()
	Register()
	sr, err := godal.NewSpatialRefFromEPSG(epsg)
	require.NoError(t, err)
	defer sr.Close()
	wkt, err := sr.WKT()
	require.NoError(t, err)
	return wkt
}

// band builds a width x height grid holding 1, 2, 3... in row order.
func band(t *testing.T, width, height int) *raster.Grid {
	g := raster.New(width, height, utmTransform, projection(t, utm51N))
	for i := range g.Data {
		g.Data[i] = float64(i + 1)
	}
	return g
}

// writeWatershed stores polygon, given in UTM 51N, as a GeoJSON layer in the
// CRS epsg.
func writeWatershed(t *testing.T, path string, epsg int, polygon orb.Polygon) {
	t.Helper()
	if epsg != utm51N {
		src, err := godal.NewSpatialRefFromEPSG(utm51N)
		require.NoError(t, err)
		defer src.Close()
		dst, err := godal.NewSpatialRefFromEPSG(epsg)
		require.NoError(t, err)
		defer dst.Close()
		tr, err := godal.NewTransform(src, dst)
		require.NoError(t, err)
		defer tr.Close()

		reprojected := orb.Polygon{}
		for _, ring := range polygon {
			xs, ys := make([]float64, len(ring)), make([]float64, len(ring))
			for i, p := range ring {
				xs[i], ys[i] = p.X(), p.Y()
			}
			require.NoError(t, tr.TransformEx(xs, ys, nil, nil))
			r := orb.Ring{}
			for i := range xs {
				r = append(r, orb.Point{xs[i], ys[i]})
			}
			reprojected = append(reprojected, r)
		}
		polygon = reprojected
	}

	f := geojson.NewFeature(polygon)
	f.Properties["name"] = "Watershed"
	fc := geojson.NewFeatureCollection().Append(f)
	fc.ExtraMembers = geojson.Properties{
		"crs": map[string]interface{}{
			"type":       "name",
			"properties": map[string]string{"name": "urn:ogc:def:crs:EPSG::" + strconv.Itoa(epsg)},
		},
	}
	data, err := json.Marshal(fc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	stdout := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = stdout }()

	out := make(chan string)
	go func() {
		b, _ := io.ReadAll(r)
		out <- string(b)
	}()
	fn()
	w.Close()
	return <-out
}

func TestGeoTIFFFloat32KeepsZeroAndNaN(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lai.tif")
	g := band(t, 3, 2)
	g.Data[1] = 0
	g.Data[4] = math.NaN()
	g.Data[5] = 0.25
	require.NoError(t, WriteGeoTIFF(path, g, godal.Float32, math.NaN()))

	got, err := ReadGrid(path)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Width)
	assert.Equal(t, 2, got.Height)
	assert.Equal(t, utmTransform, got.Transform)
	assert.Equal(t, 1.0, got.Data[0])
	assert.Equal(t, 0.0, got.Data[1])
	assert.True(t, math.IsNaN(got.Data[4]))
	assert.Equal(t, 0.25, got.Data[5])

	sr, err := godal.NewSpatialRefFromWKT(got.Projection)
	require.NoError(t, err)
	defer sr.Close()
	utm, err := godal.NewSpatialRefFromEPSG(utm51N)
	require.NoError(t, err)
	defer utm.Close()
	assert.True(t, sr.IsSame(utm))
}

func TestGeoTIFFInt16ZeroIsNodata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "LULC.tif")
	g := band(t, 2, 2)
	g.Data[0] = math.NaN()
	require.NoError(t, WriteGeoTIFF(path, g, godal.Int16, 0))

	ds, err := Open(path, godal.RasterOnly())
	require.NoError(t, err)
	defer ds.Close()
	b := ds.Bands()[0]
	assert.Equal(t, godal.Int16, b.Structure().DataType)
	nodata, ok := b.NoData()
	require.True(t, ok)
	assert.Equal(t, 0.0, nodata)

	got, err := ReadGrid(path)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(got.Data[0]))
	assert.Equal(t, []float64{2, 3, 4}, got.Data[1:])
}

func TestReadWindow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "band.tif")
	require.NoError(t, WriteGeoTIFF(path, band(t, 5, 4), godal.Float32, math.NaN()))

	ds, err := Open(path, godal.RasterOnly())
	require.NoError(t, err)
	defer ds.Close()

	got, err := ReadWindow(ds, raster.Window{XOff: 1, YOff: 2, Width: 3, Height: 2})
	require.NoError(t, err)
	assert.Equal(t, []float64{12, 13, 14, 17, 18, 19}, got.Data)
	assert.Equal(t, [6]float64{500030, 30, 0, 1599940, 0, -30}, got.Transform)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.tif"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.tif")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteMapValueScales(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		scale   ValueScale
		values  []float64
		want    []float64
		dtype   godal.DataType
		missing float64
	}{
		{"scalar", Scalar, []float64{0.5, math.NaN(), -2.25, 0}, []float64{0.5, math.NaN(), -2.25, 0}, godal.Float32, -math.MaxFloat32},
		{"ldd", LDD, []float64{6, 5, math.NaN(), 2}, []float64{6, 5, math.NaN(), 2}, godal.Byte, 255},
		{"nominal", Nominal, []float64{1, math.NaN(), 4.9, 6}, []float64{1, math.NaN(), 4, 6}, godal.Int32, math.MinInt32},
		{"boolean", Boolean, []float64{3, 0, math.NaN(), 1}, []float64{1, 0, math.NaN(), 1}, godal.Byte, 255},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".map")
			g := raster.New(2, 2, utmTransform, "")
			copy(g.Data, tt.values)
			require.NoError(t, WriteMap(path, g, tt.scale))

			ds, err := Open(path, godal.RasterOnly())
			require.NoError(t, err)
			defer ds.Close()
			assert.Equal(t, tt.scale.String(), ds.Metadata("PCRASTER_VALUESCALE"))
			b := ds.Bands()[0]
			assert.Equal(t, tt.dtype, b.Structure().DataType)
			nodata, ok := b.NoData()
			require.True(t, ok)
			assert.Equal(t, tt.missing, nodata)

			got, err := ReadGrid(path)
			require.NoError(t, err)
			assert.Equal(t, utmTransform, got.Transform)
			for i, want := range tt.want {
				if math.IsNaN(want) {
					assert.True(t, math.IsNaN(got.Data[i]), "cell %d", i)
					continue
				}
				assert.Equal(t, want, got.Data[i], "cell %d", i)
			}
		})
	}
}

func TestTranslateGeoTIFFToMap(t *testing.T) {
	dir := t.TempDir()

	lulc := band(t, 2, 2)
	lulc.Data = []float64{4, 0, 1, 6}
	require.NoError(t, WriteGeoTIFF(filepath.Join(dir, "LULC.tif"), lulc, godal.Int16, 0))
	require.NoError(t, Translate(filepath.Join(dir, "LULC.tif"), filepath.Join(dir, "landcover.map"), Nominal))

	got, err := ReadGrid(filepath.Join(dir, "landcover.map"))
	require.NoError(t, err)
	assert.Equal(t, 4.0, got.Data[0])
	assert.True(t, math.IsNaN(got.Data[1]))
	assert.Equal(t, []float64{1, 6}, got.Data[2:])

	lai := band(t, 2, 2)
	lai.Data = []float64{0, math.NaN(), 1.5, 3}
	require.NoError(t, WriteGeoTIFF(filepath.Join(dir, "lai.tif"), lai, godal.Float32, math.NaN()))
	require.NoError(t, Translate(filepath.Join(dir, "lai.tif"), filepath.Join(dir, "lai.map"), Scalar))

	ds, err := Open(filepath.Join(dir, "lai.map"), godal.RasterOnly())
	require.NoError(t, err)
	assert.Equal(t, "VS_SCALAR", ds.Metadata("PCRASTER_VALUESCALE"))
	ds.Close()

	got, err = ReadGrid(filepath.Join(dir, "lai.map"))
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.Data[0])
	assert.True(t, math.IsNaN(got.Data[1]))
	assert.Equal(t, []float64{1.5, 3}, got.Data[2:])
}

// triangle covers the cells whose centres are 0, 1 or 2 steps from the cell
// at column 2, row 3 of the test band.
var triangle = orb.Polygon{{
	{500065, 1599905}, {500170, 1599905}, {500065, 1599800}, {500065, 1599905},
}}

func TestReadFeaturesSameCRS(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watershed.geojson")
	writeWatershed(t, path, utm51N, triangle)

	target, err := godal.NewSpatialRefFromEPSG(utm51N)
	require.NoError(t, err)
	defer target.Close()

	var features []geometry.Feature
	out := captureStdout(t, func() {
		features, err = ReadFeatures(path, target)
	})
	require.NoError(t, err)
	assert.NotContains(t, out, "CRS Mismatch")
	require.Len(t, features, 1)
	assert.Equal(t, "Watershed", features[0].Fields["name"])
	assertPolygon(t, triangle, features[0].Geometry, 1e-9)
}

func TestReadFeaturesReprojects(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watershed.geojson")
	writeWatershed(t, path, 3857, triangle)

	target, err := godal.NewSpatialRefFromEPSG(utm51N)
	require.NoError(t, err)
	defer target.Close()

	var features []geometry.Feature
	out := captureStdout(t, func() {
		features, err = ReadFeatures(path, target)
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Warning: CRS Mismatch")
	require.Len(t, features, 1)
	assertPolygon(t, triangle, features[0].Geometry, 1e-3)
}

func assertPolygon(t *testing.T, want orb.Polygon, got orb.Geometry, delta float64) {
	t.Helper()
	polygon, ok := got.(orb.Polygon)
	require.True(t, ok, "got %T", got)
	require.Len(t, polygon, len(want))
	for r := range want {
		require.Len(t, polygon[r], len(want[r]))
		for i := range want[r] {
			assert.InDelta(t, want[r][i].X(), polygon[r][i].X(), delta)
			assert.InDelta(t, want[r][i].Y(), polygon[r][i].Y(), delta)
		}
	}
}
