package stats

import "github.com/shopspring/decimal"

// PublishedPlaces is the precision of every published metric
const PublishedPlaces = 4

// Round rounds half away from zero at the given number of decimal places.
// Rounding works on the shortest decimal representation of value.
func Round(value float64, places int32) float64 {
	return decimal.NewFromFloat(value).Round(places).InexactFloat64()
}

// Quantize rounds a value to PublishedPlaces
func Quantize(value float64) float64 {
	return Round(value, PublishedPlaces)
}

// Clamp bounds value to [lo, hi]
func Clamp(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
