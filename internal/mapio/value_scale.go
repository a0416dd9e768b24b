package mapio

import (
	"fmt"
	"math"
	"strings"

	"github.com/airbusgeo/godal"
)

// ValueScale is the PCRaster value scale attached to a map.
type ValueScale int

const (
	Boolean ValueScale = iota + 1
	Nominal
	Ordinal
	Scalar
	Direction
	LDD
)

var valueScaleNames = map[ValueScale]string{
	Boolean:   "VS_BOOLEAN",
	Nominal:   "VS_NOMINAL",
	Ordinal:   "VS_ORDINAL",
	Scalar:    "VS_SCALAR",
	Direction: "VS_DIRECTION",
	LDD:       "VS_LDD",
}

func (vs ValueScale) String() string {
	if name, ok := valueScaleNames[vs]; ok {
		return name
	}
	return fmt.Sprintf("ValueScale(%d)", int(vs))
}

// ParseValueScale accepts either the PCRaster tag (VS_SCALAR) or the short
// name (scalar), case insensitive.
func ParseValueScale(s string) (ValueScale, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if !strings.HasPrefix(name, "VS_") {
		name = "VS_" + name
	}
	for vs, n := range valueScaleNames {
		if n == name {
			return vs, nil
		}
	}
	return 0, fmt.Errorf("unknown value scale %q", s)
}

// DataType is the cell representation PCRaster uses for the scale.
func (vs ValueScale) DataType() godal.DataType {
	switch vs {
	case Boolean, LDD:
		return godal.Byte
	case Nominal, Ordinal:
		return godal.Int32
	}
	return godal.Float32
}

// TypeName is the gdal_translate -ot argument matching DataType.
func (vs ValueScale) TypeName() string {
	switch vs {
	case Boolean, LDD:
		return "Byte"
	case Nominal, Ordinal:
		return "Int32"
	}
	return "Float32"
}

// MissingValue is the PCRaster missing value for the scale's cell
// representation.
func (vs ValueScale) MissingValue() float64 {
	switch vs {
	case Boolean, LDD:
		return 255
	case Nominal, Ordinal:
		return math.MinInt32
	}
	return -math.MaxFloat32
}

// Encode prepares an in-memory value for storage in the scale's cell type.
// NaN becomes the missing value and integer scales are truncated.
func (vs ValueScale) Encode(v float64) float64 {
	if math.IsNaN(v) {
		return vs.MissingValue()
	}
	switch vs {
	case Boolean:
		if v != 0 {
			return 1
		}
		return 0
	case LDD, Nominal, Ordinal:
		return math.Trunc(v)
	}
	return v
}
