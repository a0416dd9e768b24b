package landsat

import (
	"fmt"
	"path/filepath"

	"github.com/airbusgeo/godal"
	"github.com/forest-guardian/hydroprep/internal/geometry"
	"github.com/forest-guardian/hydroprep/internal/mapio"
	"github.com/forest-guardian/hydroprep/internal/raster"
	"github.com/paulmach/orb"
	log "github.com/sirupsen/logrus"
)

// Clip is a band cropped to a watershed.
type Clip struct {
	Grid *raster.Grid
	// Inside flags the cells whose centre lies inside the watershed.
	Inside []bool
	// Watershed holds the boundary geometries in the band CRS.
	Watershed []orb.Geometry
}

// BandPath returns the file of band n for a Landsat band file pattern such as
// LC08_..._SR_B%d.TIF.
func BandPath(dir, pattern string, n int) string {
	return filepath.Join(dir, fmt.Sprintf(pattern, n))
}

// PreprocessBand crops the band at bandPath to the window covering the
// watershed and sets every cell outside the watershed to 0.
func PreprocessBand(bandPath, watershedPath string) (*Clip, error) {
	ds, err := mapio.Open(bandPath, godal.RasterOnly())
	if err != nil {
		return nil, err
	}
	defer ds.Close()

	sr, err := mapio.SpatialRef(ds)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", bandPath, err)
	}
	if sr != nil {
		defer sr.Close()
	}

	features, err := mapio.ReadFeatures(watershedPath, sr)
	if err != nil {
		return nil, err
	}
	geoms := geometry.Geometries(features)
	bound, ok := geometry.Bounds(geoms)
	if !ok {
		return nil, fmt.Errorf("%s contains no geometries", watershedPath)
	}

	transform, err := ds.GeoTransform()
	if err != nil {
		return nil, fmt.Errorf("failed to get GeoTransform: %w", err)
	}
	st := ds.Structure()
	window, err := raster.WindowFromBounds(transform, st.SizeX, st.SizeY,
		bound.Min.X(), bound.Min.Y(), bound.Max.X(), bound.Max.Y())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", bandPath, err)
	}

	g, err := mapio.ReadWindow(ds, window)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", bandPath, err)
	}
	inside := geometry.Mask(g, geoms)
	geometry.ApplyMask(g, inside, 0)
	roundToFloat32(g)

	log.WithFields(log.Fields{
		"band":   filepath.Base(bandPath),
		"window": fmt.Sprintf("%dx%d+%d+%d", window.Width, window.Height, window.XOff, window.YOff),
	}).Debug("band cropped to watershed")

	return &Clip{Grid: g, Inside: inside, Watershed: geoms}, nil
}

// LoadBands preprocesses bands first..last in order.
func LoadBands(dir, pattern string, first, last int, watershedPath string) ([]*Clip, error) {
	var clips []*Clip
	for n := first; n <= last; n++ {
		clip, err := PreprocessBand(BandPath(dir, pattern, n), watershedPath)
		if err != nil {
			return nil, fmt.Errorf("error preprocessing band %d: %w", n, err)
		}
		if len(clips) > 0 && !clips[0].Grid.Aligned(clip.Grid) {
			return nil, fmt.Errorf("band %d: %w", n, raster.ErrNotAligned)
		}
		clips = append(clips, clip)
	}
	return clips, nil
}

// roundToFloat32 matches the precision of the float32 arrays the bands are
// processed in.
func roundToFloat32(g *raster.Grid) {
	for i, v := range g.Data {
		g.Data[i] = float64(float32(v))
	}
}
