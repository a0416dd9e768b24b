package mapio

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/airbusgeo/godal"
	log "github.com/sirupsen/logrus"
)

var registerOnce sync.Once

// Register makes every GDAL driver available. It is safe to call repeatedly.
func Register() {
	registerOnce.Do(godal.RegisterAll)
}

// quietHandler drops GDAL warnings and turns everything else into errors.
func quietHandler(ec godal.ErrorCategory, code int, msg string) error {
	if ec == godal.CE_Warning {
		log.WithField("code", code).Debugf("gdal: %s", msg)
		return nil
	}
	return errors.New(msg)
}

// Open opens a raster or vector dataset. A missing file is reported by name.
func Open(path string, opts ...godal.OpenOption) (*godal.Dataset, error) {
	Register()
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	opts = append(opts, godal.ErrLogger(quietHandler))
	ds, err := godal.Open(path, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return ds, nil
}
