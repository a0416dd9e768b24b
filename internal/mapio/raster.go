package mapio

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/airbusgeo/godal"
	"github.com/forest-guardian/hydroprep/internal/raster"
)

// ReadGrid reads the first band of the raster at path. Nodata cells become NaN.
func ReadGrid(path string) (*raster.Grid, error) {
	ds, err := Open(path, godal.RasterOnly())
	if err != nil {
		return nil, err
	}
	defer ds.Close()

	st := ds.Structure()
	return readWindow(ds, raster.Window{Width: st.SizeX, Height: st.SizeY})
}

// ReadWindow reads a pixel window of the first band of an open dataset. The
// returned grid carries the window's own geotransform.
func ReadWindow(ds *godal.Dataset, w raster.Window) (*raster.Grid, error) {
	return readWindow(ds, w)
}

func readWindow(ds *godal.Dataset, w raster.Window) (*raster.Grid, error) {
	bands := ds.Bands()
	if len(bands) == 0 {
		return nil, fmt.Errorf("dataset has no raster bands")
	}
	transform, err := ds.GeoTransform()
	if err != nil {
		return nil, fmt.Errorf("failed to get GeoTransform: %w", err)
	}

	g := raster.New(w.Width, w.Height, w.Transform(transform), ds.Projection())
	if err := bands[0].Read(w.XOff, w.YOff, g.Data, w.Width, w.Height); err != nil {
		return nil, fmt.Errorf("failed to read raster data: %w", err)
	}

	if nodata, ok := bands[0].NoData(); ok {
		for i, v := range g.Data {
			if v == nodata || (math.IsNaN(nodata) && math.IsNaN(v)) {
				g.Data[i] = math.NaN()
			}
		}
	}
	return g, nil
}

// WriteGeoTIFF writes g as a single band GeoTIFF. NaN cells are stored as
// nodata.
func WriteGeoTIFF(path string, g *raster.Grid, dtype godal.DataType, nodata float64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	Register()

	ds, err := godal.Create(godal.GTiff, path, 1, dtype, g.Width, g.Height,
		godal.CreationOption("COMPRESS=LZW"), godal.ErrLogger(quietHandler))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := fill(ds, g, nodata, func(v float64) float64 {
		if math.IsNaN(v) {
			return nodata
		}
		return v
	}); err != nil {
		ds.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := ds.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

// WriteMap writes g as a PCRaster map with the given value scale.
func WriteMap(path string, g *raster.Grid, vs ValueScale) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	Register()

	mem, err := godal.Create(godal.DriverName("MEM"), "", 1, vs.DataType(), g.Width, g.Height,
		godal.ErrLogger(quietHandler))
	if err != nil {
		return fmt.Errorf("failed to create in-memory raster: %w", err)
	}
	defer mem.Close()

	if err := fill(mem, g, vs.MissingValue(), vs.Encode); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return translateToMap(mem, path, vs)
}

// Translate converts the raster at input into a PCRaster map at output.
// Input nodata, NaN included, becomes the value scale's missing value.
func Translate(input, output string, vs ValueScale) error {
	g, err := ReadGrid(input)
	if err != nil {
		return err
	}
	return WriteMap(output, g, vs)
}

func translateToMap(ds *godal.Dataset, output string, vs ValueScale) error {
	out, err := ds.Translate(output, []string{
		"-of", "PCRaster",
		"-ot", vs.TypeName(),
		"-co", "PCRASTER_VALUESCALE=" + vs.String(),
	}, godal.ErrLogger(quietHandler))
	if err != nil {
		return fmt.Errorf("failed to translate to %s: %w", output, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", output, err)
	}
	return nil
}

func fill(ds *godal.Dataset, g *raster.Grid, nodata float64, encode func(float64) float64) error {
	if err := ds.SetGeoTransform(g.Transform); err != nil {
		return fmt.Errorf("failed to set GeoTransform: %w", err)
	}
	if g.Projection != "" {
		if err := ds.SetProjection(g.Projection); err != nil {
			return fmt.Errorf("failed to set projection: %w", err)
		}
	}

	band := ds.Bands()[0]
	if err := band.SetNoData(nodata); err != nil {
		return fmt.Errorf("failed to set nodata: %w", err)
	}
	buf := make([]float64, len(g.Data))
	for i, v := range g.Data {
		buf[i] = encode(v)
	}
	return band.Write(0, 0, buf, g.Width, g.Height)
}
