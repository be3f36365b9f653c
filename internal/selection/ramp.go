package selection

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"neuromlcap/internal/model"
)

// Ramp returns n colors evenly spaced along a rainbow spectrum, from violet
// to red. Colors are pairwise distinct.
func Ramp(n int) []model.Color {
	if n <= 0 {
		return nil
	}
	xs := make([]float64, n)
	if n > 1 {
		floats.Span(xs, 0, 1)
	}
	out := make([]model.Color, n)
	for i, x := range xs {
		out[i] = rainbow(x)
	}
	return out
}

func rainbow(x float64) model.Color {
	return model.Color{
		math.Abs(2*x - 1),
		math.Sin(math.Pi * x),
		math.Cos(math.Pi * x / 2),
		1,
	}
}
