package params

import (
	"fmt"
	"path/filepath"

	"github.com/forest-guardian/hydroprep/internal/mapio"
	"github.com/forest-guardian/hydroprep/internal/properties"
	"github.com/forest-guardian/hydroprep/internal/raster"
	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	RawDir    string
	OutputDir string
	Settings  Settings
}

func ConfigFromProperties() Config {
	return Config{
		RawDir:    properties.RawMapsDir(),
		OutputDir: properties.OutputDir(),
		Settings:  SettingsFromProperties(),
	}
}

// Written is a parameter map stored on disk.
type Written struct {
	Product
	Path string
}

// Run reads the base maps and lookup tables from the raw maps directory and
// reports every parameter map as a PCRaster map in the output directory.
func Run(cfg Config) ([]Written, error) {
	fmt.Println("Unpacking base maps...")
	var in Inputs
	for _, m := range []struct {
		file string
		dst  **raster.Grid
	}{
		{"mask.map", &in.Mask},
		{"dem.map", &in.DEM},
		{"soil.map", &in.Soil},
		{"landcover.map", &in.Landcover},
		{"lai.map", &in.LAI},
		{"cover.map", &in.Cover},
	} {
		g, err := mapio.ReadGrid(filepath.Join(cfg.RawDir, m.file))
		if err != nil {
			return nil, err
		}
		*m.dst = g
	}

	fmt.Println("Reading input data tables...")
	tables := make(map[string]*Table)
	for _, lm := range append(append([]LookupMap{}, SoilTables...), LandcoverTables...) {
		t, err := LoadTable(filepath.Join(cfg.RawDir, lm.Table))
		if err != nil {
			return nil, err
		}
		tables[lm.Table] = t
	}

	products, err := Compute(in, tables, cfg.Settings)
	if err != nil {
		return nil, err
	}

	progressBar := progressbar.Default(int64(len(products)), "Reporting maps")
	written := make([]Written, 0, len(products))
	for _, p := range products {
		path := filepath.Join(cfg.OutputDir, p.Name+".map")
		if err := mapio.WriteMap(path, p.Grid, p.Scale); err != nil {
			return nil, fmt.Errorf("error reporting %s: %w", p.Name, err)
		}
		log.WithFields(log.Fields{"map": p.Name, "scale": p.Scale, "valid": p.Grid.Valid()}).Debug("map reported")
		written = append(written, Written{Product: p, Path: path})
		progressBar.Add(1)
	}
	progressBar.Finish()
	return written, nil
}
