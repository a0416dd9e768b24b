package landcover

import (
	"fmt"
	"strings"
)

type Class int

const (
	Agriculture Class = 1
	Bareland    Class = 2
	Builtup     Class = 3
	Forest      Class = 4
	Grassland   Class = 5
	Waterbody   Class = 6
)

// Names maps the training-sample labels to class codes.
var Names = map[string]Class{
	"Agriculture":        Agriculture,
	"Bareland":           Bareland,
	"Builtup":            Builtup,
	"Forest":             Forest,
	"Grassland / Shurbs": Grassland,
	"Waterbody":          Waterbody,
}

func (c Class) String() string {
	for name, class := range Names {
		if class == c {
			return name
		}
	}
	return fmt.Sprintf("Class %d", int(c))
}

// Parse resolves a training label. Surrounding whitespace is ignored.
func Parse(label string) (Class, error) {
	class, ok := Names[strings.TrimSpace(label)]
	if !ok {
		return 0, fmt.Errorf("unknown land cover class %q", label)
	}
	return class, nil
}

// FromValue converts a raster cell to a class; ok is false for missing or
// fractional values.
func FromValue(v float64) (Class, bool) {
	if v != v {
		return 0, false
	}
	c := Class(int(v))
	if float64(c) != v {
		return 0, false
	}
	return c, true
}
