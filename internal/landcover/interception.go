package landcover

import "math"

// MaxInterception returns the canopy storage capacity (mm) for a cell of
// class c with the given leaf area index. Classes without a relation yield NaN.
func MaxInterception(c Class, lai float64) float64 {
	switch c {
	case Forest:
		return 0.2856 * lai
	case Grassland:
		return 0.1713 * lai
	case Agriculture, Builtup:
		return 0.935 + 0.498*lai - 0.00575*lai*lai
	}
	return math.NaN()
}

// LitterCover is the fraction of the surface covered by litter.
func LitterCover(c Class) float64 {
	if c == Forest || c == Grassland {
		return 0.7
	}
	return 0
}
