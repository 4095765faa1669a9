// Package util holds the fixed-step BDF coefficient table and the CSV
// value formatter shared by the solver and CLI packages.
package util

// MaxBDFOrder is the highest backward-differentiation order the transient
// integrator will select; orders above 5 gain little stability margin for
// the cost of carrying a longer step history.
const MaxBDFOrder = 5

// BackwardDifferentialFormula holds a fixed-step BDF formula's history
// coefficients and its leading coefficient beta, in the y'=(y_n -
// sum(coefficients[i]*y_{n-i}))/(beta*dt) form.
type BackwardDifferentialFormula struct {
	coefficients []float64
	beta         float64
}

// BdfCoefficients[k-1] is the order-k fixed-step BDF formula.
var BdfCoefficients = [MaxBDFOrder]BackwardDifferentialFormula{
	{[]float64{1.0}, 1.0},
	{[]float64{4.0 / 3.0, -1.0 / 3.0}, 2.0 / 3.0},
	{[]float64{18.0 / 11.0, -9.0 / 11.0, 2.0 / 11.0}, 6.0 / 11.0},
	{[]float64{48.0 / 25.0, -36.0 / 25.0, 16.0 / 25.0, -3.0 / 25.0}, 12.0 / 25.0},
	{[]float64{300.0 / 137.0, -300.0 / 137.0, 200.0 / 137.0, -75.0 / 137.0, 12.0 / 137.0}, 60.0 / 137.0},
}

// GetBDFcoeffs returns coeffs such that, given the current step's unknown
// y_n and the order previous history points y_{n-1}..y_{n-order},
// y'_n ~= coeffs[0]*y_n + coeffs[1]*y_{n-1} + ... + coeffs[order]*y_{n-order}.
// An order outside [1, MaxBDFOrder] falls back to order 1.
func GetBDFcoeffs(order int, dt float64) []float64 {
	if order < 1 || order > MaxBDFOrder {
		order = 1
	}

	bdf := BdfCoefficients[order-1]
	coeffs := make([]float64, order+1)
	scale := 1.0 / (bdf.beta * dt)
	coeffs[0] = scale

	for i := 1; i <= order; i++ {
		coeffs[i] = -bdf.coefficients[i-1] * scale
	}

	return coeffs
}
