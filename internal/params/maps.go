package params

import (
	"fmt"
	"math"

	"github.com/forest-guardian/hydroprep/internal/hydro"
	"github.com/forest-guardian/hydroprep/internal/landcover"
	"github.com/forest-guardian/hydroprep/internal/mapio"
	"github.com/forest-guardian/hydroprep/internal/properties"
	"github.com/forest-guardian/hydroprep/internal/raster"
)

// Inputs are the base maps of the parameter stage. Mask is the clone every
// other map must be aligned with.
type Inputs struct {
	Mask      *raster.Grid
	DEM       *raster.Grid
	Soil      *raster.Grid
	Landcover *raster.Grid
	LAI       *raster.Grid
	Cover     *raster.Grid
}

func (in Inputs) check() error {
	for name, g := range map[string]*raster.Grid{
		"dem":       in.DEM,
		"soil":      in.Soil,
		"landcover": in.Landcover,
		"lai":       in.LAI,
		"cover":     in.Cover,
	} {
		if g == nil {
			return fmt.Errorf("%s map is missing", name)
		}
		if !in.Mask.Aligned(g) {
			return fmt.Errorf("%s map does not match the clone: %w", name, raster.ErrNotAligned)
		}
	}
	return nil
}

// LookupMap names a lookup table and the map it produces.
type LookupMap struct {
	Map   string
	Table string
}

var SoilTables = []LookupMap{
	{"soil_porosity", "soil_theta.tbl"},
	{"soil_wp", "soil_wp.tbl"},
	{"soil_fc", "soil_fc.tbl"},
	{"soil_depth", "soil_depth.tbl"},
	{"soil_psi", "soil_psi.tbl"},
	{"mannings", "soil_mannings.tbl"},
}

var LandcoverTables = []LookupMap{
	{"ksat", "landcov_ksat.tbl"},
	{"plant_height", "landcov_plantheight.tbl"},
	{"rr", "landcov_rr.tbl"},
}

// Product is a generated parameter map.
type Product struct {
	Name  string
	Grid  *raster.Grid
	Scale mapio.ValueScale
}

type Settings struct {
	Channel     properties.Channel
	MinGradient float64
}

func SettingsFromProperties() Settings {
	return Settings{Channel: properties.ChannelParams(), MinGradient: properties.MinGradient()}
}

// Compute derives every parameter map from the inputs. tables holds the
// loaded lookup tables keyed by file name.
func Compute(in Inputs, tables map[string]*Table, s Settings) ([]Product, error) {
	if in.Mask == nil {
		return nil, fmt.Errorf("mask map is missing")
	}
	if err := in.check(); err != nil {
		return nil, err
	}
	var products []Product
	add := func(name string, g *raster.Grid, vs mapio.ValueScale) {
		products = append(products, Product{Name: name, Grid: g, Scale: vs})
	}

	fmt.Println("Generating maps from input tables...")
	soilMask, err := raster.Mul(in.Soil, in.Mask)
	if err != nil {
		return nil, fmt.Errorf("soil: %w", err)
	}
	landcoverMask, err := raster.Mul(in.Landcover, in.Mask)
	if err != nil {
		return nil, fmt.Errorf("landcover: %w", err)
	}
	for _, group := range []struct {
		maps    []LookupMap
		classes *raster.Grid
	}{
		{SoilTables, soilMask},
		{LandcoverTables, landcoverMask},
	} {
		for _, lm := range group.maps {
			t, ok := tables[lm.Table]
			if !ok {
				return nil, fmt.Errorf("lookup table %s is missing", lm.Table)
			}
			add(lm.Map, t.Apply(group.classes), mapio.Scalar)
		}
	}

	fmt.Println("Deriving catchment-related maps...")
	demMask, err := raster.Mul(in.DEM, in.Mask)
	if err != nil {
		return nil, fmt.Errorf("dem: %w", err)
	}
	ldd := hydro.LddCreateDEM(demMask)
	add("gradient2", hydro.Gradient(hydro.Slope(in.DEM), s.MinGradient), mapio.Scalar)
	add("ldd", ldd, mapio.LDD)
	add("outpoint", hydro.PitIDs(ldd), mapio.Nominal)

	fmt.Println("Creating rainfall zone...")
	add("id", in.Mask.Map(math.Trunc), mapio.Nominal)

	fmt.Println("Creating land use maps...")
	add("litter", Litter(in.Landcover), mapio.Scalar)
	add("grass", in.Mask.Scale(0), mapio.Scalar)
	smax, err := SmaxTotal(in.Landcover, in.LAI)
	if err != nil {
		return nil, err
	}
	add("smax", smax, mapio.Scalar)

	fmt.Println("Creating surface maps...")
	for _, name := range []string{"stone", "crust", "compact", "hardsurf"} {
		add(name, in.Mask.Scale(0), mapio.Scalar)
	}

	fmt.Println("Creating channel maps...")
	channels, err := ChannelMaps(ldd, s.Channel)
	if err != nil {
		return nil, err
	}
	products = append(products, channels...)
	return products, nil
}

// Litter is 0.7 on forest and grassland cells and 0 on other classes.
func Litter(lc *raster.Grid) *raster.Grid {
	return lc.Map(func(v float64) float64 {
		if raster.IsMissing(v) {
			return v
		}
		class, _ := landcover.FromValue(v)
		return landcover.LitterCover(class)
	})
}

// SmaxTotal is the canopy storage written with the parameter maps. Each class
// term applies only to its own cells and the terms are summed:
//
//	forest       0.2856·lai + 0.912·ln(lai) + 0.703
//	grassland    0.1713·lai
//	agriculture  0.1713·lai + 1.433·(lai-0.00575)·lai²
//
// Other classes get 0. ln is evaluated on every cell, so a cell with a
// non-positive or missing LAI is missing whatever its class.
func SmaxTotal(lc, lai *raster.Grid) (*raster.Grid, error) {
	return raster.Combine(lc, lai, func(v, l float64) float64 {
		class, ok := landcover.FromValue(v)
		if !ok || math.IsNaN(l) || l <= 0 {
			return math.NaN()
		}
		switch class {
		case landcover.Forest:
			return 0.2856*l + 0.912*math.Log(l) + 0.703
		case landcover.Grassland:
			return 0.1713 * l
		case landcover.Agriculture:
			return 0.1713*l + (0.935+0.498)*(l-0.00575)*l*l
		}
		return 0
	})
}

// ChannelMaps marks channel cells where the upstream area or the Strahler
// order exceeds the thresholds and derives the channel property maps.
func ChannelMaps(ldd *raster.Grid, c properties.Channel) ([]Product, error) {
	flux, err := hydro.Accuflux(ldd, ldd.Map(func(v float64) float64 {
		if math.IsNaN(v) {
			return v
		}
		return 1
	}))
	if err != nil {
		return nil, err
	}
	order, err := hydro.StreamOrder(ldd)
	if err != nil {
		return nil, err
	}

	mask := ldd.Like(math.NaN())
	channelLDD := ldd.Like(math.NaN())
	for i, v := range ldd.Data {
		if math.IsNaN(v) {
			continue
		}
		if flux.Data[i] >= c.AccufluxThreshold || order.Data[i] >= c.StreamOrderThreshold {
			mask.Data[i] = 1
			channelLDD.Data[i] = v
		} else {
			mask.Data[i] = 0
		}
	}

	return []Product{
		{Name: "channelmask", Grid: mask, Scale: mapio.Scalar},
		{Name: "channelldd", Grid: channelLDD, Scale: mapio.LDD},
		{Name: "chancoh", Grid: mask.Scale(c.Cohesion), Scale: mapio.Scalar},
		{Name: "chanman", Grid: mask.Scale(c.Mannings), Scale: mapio.Scalar},
		{Name: "chanside", Grid: mask.Scale(c.SideSlope), Scale: mapio.Scalar},
		{Name: "chanksat", Grid: mask.Scale(c.Ksat), Scale: mapio.Scalar},
		{Name: "changrad", Grid: mask.Scale(c.Gradient), Scale: mapio.Scalar},
		{Name: "chanwidth", Grid: mask.Scale(c.Width), Scale: mapio.Scalar},
	}, nil
}
