package output

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ValidationPoint is a held out sample pixel with its true and predicted
// class.
type ValidationPoint struct {
	X, Y      float64
	Col, Row  int
	Truth     string
	Predicted string
}

// CreateValidationGeoJSON writes the points as a FeatureCollection in the
// raster CRS.
func CreateValidationGeoJSON(points []ValidationPoint, outputPath string) (string, error) {
	if filepath.Ext(outputPath) != ".geojson" {
		outputPath += ".geojson"
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create output folder: %w", err)
	}

	fc := geojson.NewFeatureCollection()
	for _, p := range points {
		f := geojson.NewFeature(orb.Point{p.X, p.Y})
		f.Properties["col"] = p.Col
		f.Properties["row"] = p.Row
		f.Properties["truth"] = p.Truth
		f.Properties["predicted"] = p.Predicted
		f.Properties["correct"] = p.Truth == p.Predicted
		fc.Append(f)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("error encoding GeoJSON: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return "", fmt.Errorf("error creating GeoJSON file: %w", err)
	}

	fmt.Println("GeoJSON file created successfully at", outputPath)
	return outputPath, nil
}
