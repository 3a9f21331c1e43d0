package statsmath

import "math"

// round1 rounds half away from zero to one decimal place.
// Negative zero is returned as 0 so it encodes as "0" in JSON.
func round1(val float64) float64 {
	r := math.Round(val*10) / 10
	if r == 0 {
		return 0
	}
	return r
}

// percentage returns made/attempted on a 0-100 scale rounded to one decimal,
// or 0 when there is nothing to divide by
func percentage(made, attempted float64) float64 {
	if attempted <= 0 {
		return 0
	}
	return round1(made / attempted * 100)
}
