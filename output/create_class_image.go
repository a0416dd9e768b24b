package output

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"github.com/forest-guardian/hydroprep/internal/landcover"
	"github.com/forest-guardian/hydroprep/internal/properties"
	"github.com/forest-guardian/hydroprep/internal/raster"
)

// unknownColor marks class codes missing from the palette.
var unknownColor = properties.Color{R: 255, G: 0, B: 255}

// CreateClassImage renders a land cover grid as a PNG with the class palette
// and a legend in the top left corner.
func CreateClassImage(g *raster.Grid, outputPath string) (string, error) {
	if filepath.Ext(outputPath) != ".png" {
		outputPath += ".png"
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create quicklook folder: %w", err)
	}

	dc := gg.NewContext(g.Width, g.Height)
	present := make(map[landcover.Class]bool)
	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width; col++ {
			class, ok := landcover.FromValue(g.At(col, row))
			if !ok {
				continue
			}
			present[class] = true
			dc.SetColor(classColor(class))
			dc.SetPixel(col, row)
		}
	}
	drawLegend(dc, present)

	if err := dc.SavePNG(outputPath); err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}
	fmt.Println("PNG image created successfully as", outputPath)
	return outputPath, nil
}

func classColor(class landcover.Class) color.RGBA {
	c, ok := properties.ColorMap[int(class)]
	if !ok {
		c = unknownColor
	}
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

func drawLegend(dc *gg.Context, present map[landcover.Class]bool) {
	const box = 8.0
	y := 4.0
	for class := landcover.Agriculture; class <= landcover.Waterbody; class++ {
		if !present[class] {
			continue
		}
		if y+box > float64(dc.Height()) {
			return
		}
		dc.SetColor(classColor(class))
		dc.DrawRectangle(4, y, box, box)
		dc.Fill()
		dc.SetRGB(0, 0, 0)
		dc.DrawString(class.String(), 6+box, y+box)
		y += box + 4
	}
}
