package mapio

import (
	"fmt"

	"github.com/airbusgeo/godal"
	"github.com/forest-guardian/hydroprep/internal/geometry"
	"github.com/paulmach/orb/geojson"
	log "github.com/sirupsen/logrus"
)

// ReadFeatures reads every feature of the first layer of a vector dataset.
// When target is set and the layer CRS differs, a warning is printed and the
// geometries are reprojected into target.
func ReadFeatures(path string, target *godal.SpatialRef) ([]geometry.Feature, error) {
	ds, err := Open(path, godal.VectorOnly())
	if err != nil {
		return nil, err
	}
	defer ds.Close()

	layers := ds.Layers()
	if len(layers) == 0 {
		return nil, fmt.Errorf("%s has no layers", path)
	}
	layer := layers[0]

	reproject := false
	if target != nil {
		if sr := layer.SpatialRef(); sr != nil && !sr.IsSame(target) {
			fmt.Println("Warning: CRS Mismatch")
			log.WithField("path", path).Debug("reprojecting features into raster CRS")
			reproject = true
		}
	}

	var features []geometry.Feature
	for {
		feat := layer.NextFeature()
		if feat == nil {
			break
		}
		f, err := convertFeature(feat, target, reproject)
		feat.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if f.Geometry != nil {
			features = append(features, f)
		}
	}
	return features, nil
}

func convertFeature(feat *godal.Feature, target *godal.SpatialRef, reproject bool) (geometry.Feature, error) {
	fields := make(map[string]string)
	for name, field := range feat.Fields() {
		fields[name] = field.String()
	}

	geom := feat.Geometry()
	if geom == nil {
		return geometry.Feature{Fields: fields}, nil
	}
	defer geom.Close()

	if reproject {
		if err := geom.Reproject(target); err != nil {
			return geometry.Feature{}, fmt.Errorf("failed to reproject geometry: %w", err)
		}
	}

	raw, err := geom.GeoJSON()
	if err != nil {
		return geometry.Feature{}, fmt.Errorf("failed to export geometry: %w", err)
	}
	g, err := geojson.UnmarshalGeometry([]byte(raw))
	if err != nil {
		return geometry.Feature{}, fmt.Errorf("failed to parse geometry: %w", err)
	}
	return geometry.Feature{Geometry: g.Geometry(), Fields: fields}, nil
}

// SpatialRef returns the CRS of ds, or nil when it has none. The caller
// closes it.
func SpatialRef(ds *godal.Dataset) (*godal.SpatialRef, error) {
	wkt := ds.Projection()
	if wkt == "" {
		return nil, nil
	}
	sr, err := godal.NewSpatialRefFromWKT(wkt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse projection: %w", err)
	}
	return sr, nil
}
