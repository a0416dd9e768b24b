package interception

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/airbusgeo/godal"
	"github.com/forest-guardian/hydroprep/internal/landsat"
	"github.com/forest-guardian/hydroprep/internal/mapio"
	"github.com/forest-guardian/hydroprep/internal/properties"
	"github.com/forest-guardian/hydroprep/internal/raster"
	"github.com/forest-guardian/hydroprep/output"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	BandsDir      string
	BandPattern   string
	WatershedPath string
	LULCPath      string
	OutputDir     string
	QuicklookDir  string
}

func ConfigFromProperties() Config {
	return Config{
		BandsDir:      properties.LandsatDir(),
		BandPattern:   properties.BandPattern(),
		WatershedPath: properties.WatershedPath(),
		LULCPath:      properties.OutputFile("LULC.tif"),
		OutputDir:     properties.OutputDir(),
		QuicklookDir:  properties.OutputFile("quicklook"),
	}
}

// Maps are the rasters produced by the stage, in output order.
type Maps struct {
	NDVI   *raster.Grid
	Cover  *raster.Grid
	LAI    *raster.Grid
	Smax   *raster.Grid
	Output map[string]string
}

// Compute derives the interception maps from the red and NIR bands and the
// land cover classification.
func Compute(red, nir, lulc *raster.Grid) (*Maps, error) {
	ndvi, err := landsat.NDVI(landsat.PositiveOnly(red), landsat.PositiveOnly(nir))
	if err != nil {
		return nil, err
	}
	cover := CoverFactor(ndvi)
	lai := LAI(cover)
	smax, err := Smax(lulc, lai)
	if err != nil {
		return nil, err
	}
	return &Maps{NDVI: ndvi, Cover: cover, LAI: lai, Smax: smax}, nil
}

// Run writes ndvi.tif, c_factor.tif, lai.tif and smax.tif as Float32
// GeoTIFFs.
func Run(cfg Config) (*Maps, error) {
	red, err := landsat.PreprocessBand(landsat.BandPath(cfg.BandsDir, cfg.BandPattern, 4), cfg.WatershedPath)
	if err != nil {
		return nil, fmt.Errorf("error preprocessing red band: %w", err)
	}
	nir, err := landsat.PreprocessBand(landsat.BandPath(cfg.BandsDir, cfg.BandPattern, 5), cfg.WatershedPath)
	if err != nil {
		return nil, fmt.Errorf("error preprocessing NIR band: %w", err)
	}
	lulc, err := mapio.ReadGrid(cfg.LULCPath)
	if err != nil {
		return nil, err
	}

	maps, err := Compute(red.Grid, nir.Grid, lulc)
	if err != nil {
		return nil, err
	}

	maps.Output = make(map[string]string)
	for _, m := range []struct {
		name string
		grid *raster.Grid
	}{
		{"ndvi", maps.NDVI},
		{"c_factor", maps.Cover},
		{"lai", maps.LAI},
		{"smax", maps.Smax},
	} {
		path := filepath.Join(cfg.OutputDir, m.name+".tif")
		if err := mapio.WriteGeoTIFF(path, m.grid, godal.Float32, math.NaN()); err != nil {
			return nil, err
		}
		maps.Output[m.name] = path
		log.WithField("path", path).Info("interception map written")

		if cfg.QuicklookDir != "" {
			if _, err := output.CreateScalarImage(m.grid, filepath.Join(cfg.QuicklookDir, m.name)); err != nil {
				return nil, err
			}
		}
	}
	return maps, nil
}
