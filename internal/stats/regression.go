package stats

import "math"

// LinearFit is an ordinary least squares line over x = 0..n-1
type LinearFit struct {
	Intercept float64
	Slope     float64
	N         int
	MeanX     float64
	Sxx       float64 // Sum of squared x deviations
	SSE       float64 // Sum of squared residuals
}

// FitLine fits y = a + b*x where x is the index of each value.
// Fewer than two values give a flat line through the only value (or zero).
func FitLine(ys []float64) LinearFit {
	n := len(ys)
	fit := LinearFit{N: n}
	if n == 0 {
		return fit
	}
	if n == 1 {
		fit.Intercept = ys[0]
		return fit
	}

	fit.MeanX = float64(n-1) / 2
	meanY := Mean(ys)

	var sxy float64
	for i, y := range ys {
		dx := float64(i) - fit.MeanX
		fit.Sxx += dx * dx
		sxy += dx * (y - meanY)
	}

	fit.Slope = sxy / fit.Sxx
	fit.Intercept = meanY - fit.Slope*fit.MeanX

	for i, y := range ys {
		r := y - fit.Predict(float64(i))
		fit.SSE += r * r
	}

	return fit
}

// Predict evaluates the line at x
func (f LinearFit) Predict(x float64) float64 {
	return f.Intercept + f.Slope*x
}

// ResidualStdErr is sqrt(SSE / (n - 2)), 0 when undefined
func (f LinearFit) ResidualStdErr() float64 {
	if f.N <= 2 {
		return 0
	}
	return math.Sqrt(f.SSE / float64(f.N-2))
}

// PredictionStdErr is the standard error of a new observation at x
func (f LinearFit) PredictionStdErr(x float64, residualStdErr float64) float64 {
	if f.N == 0 {
		return 0
	}
	factor := 1 + 1/float64(f.N)
	if f.Sxx > 0 {
		dx := x - f.MeanX
		factor += dx * dx / f.Sxx
	}
	return residualStdErr * math.Sqrt(factor)
}
