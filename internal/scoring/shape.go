package scoring

import (
	"math"
	"unicode/utf8"
)

// Richness divisors used by the confidence calculator
const (
	richListSize   = 10.0
	richStringSize = 200.0
	richDictSize   = 10.0
)

func listRichness(n int) float64      { return clamp(float64(n) / richListSize) }
func dictRichness(n int) float64      { return clamp(float64(n) / richDictSize) }
func stringRichness(s string) float64 {
	return clamp(float64(utf8.RuneCountInString(s)) / richStringSize)
}

func numberRichness(v float64) float64 {
	if v == 0 || math.IsNaN(v) {
		return 0
	}
	return 1
}

// clamp bounds v to [0, 1]; NaN maps to 0
func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
