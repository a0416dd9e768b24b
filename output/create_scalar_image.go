package output

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"github.com/forest-guardian/hydroprep/internal/raster"
)

func normalize(value, min, max float64) float64 {
	if max == min {
		return 0
	}
	norm := (value - min) / (max - min)
	if norm < 0 {
		return 0
	}
	if norm > 1 {
		return 1
	}
	return norm
}

func valueToColor(norm float64) color.RGBA {
	var r, g, b uint8
	if norm <= 0.5 {
		// blue to green
		ratio := norm / 0.5
		r = 0
		g = uint8(255 * ratio)
		b = uint8(255 * (1 - ratio))
	} else {
		// green to red
		ratio := (norm - 0.5) / 0.5
		r = uint8(255 * ratio)
		g = uint8(255 * (1 - ratio))
		b = 0
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// CreateScalarImage renders g as a PNG colour ramp stretched between its
// minimum and maximum. Missing cells are transparent.
func CreateScalarImage(g *raster.Grid, outputPath string) (string, error) {
	if filepath.Ext(outputPath) != ".png" {
		outputPath += ".png"
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create quicklook folder: %w", err)
	}

	stats := raster.Summarize(g)
	dc := gg.NewContext(g.Width, g.Height)
	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width; col++ {
			v := g.At(col, row)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			dc.SetColor(valueToColor(normalize(v, stats.Min, stats.Max)))
			dc.SetPixel(col, row)
		}
	}

	if err := dc.SavePNG(outputPath); err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}
	fmt.Println("PNG image created successfully as", outputPath)
	return outputPath, nil
}
