package matrix

import "gonum.org/v1/gonum/mat"

// ResidualFunc evaluates a residual vector F at y into F, which is
// pre-sized and owned by the caller; implementations must not retain y.
type ResidualFunc func(y, F []float64)

// Jacobian assembles a one-sided finite-difference Jacobian of fn at y0
// into a gonum dense matrix, perturbing one column at a time by
// delta*|y0[j]|, or by delta itself where y0[j] is zero.
// f0 is fn(y0), passed in so callers that already have it (every Newton
// iteration does) don't pay for a second residual evaluation.
func Jacobian(fn ResidualFunc, y0, f0 []float64, delta float64) *mat.Dense {
	n := len(y0)
	jac := mat.NewDense(n, n, nil)

	yPert := make([]float64, n)
	fPert := make([]float64, n)
	copy(yPert, y0)

	for j := 0; j < n; j++ {
		orig := yPert[j]
		step := delta
		if orig != 0 {
			step = delta * absf(orig)
		}
		yPert[j] = orig + step

		for i := range fPert {
			fPert[i] = 0
		}
		fn(yPert, fPert)

		for i := 0; i < n; i++ {
			jac.Set(i, j, (fPert[i]-f0[i])/step)
		}

		yPert[j] = orig
	}

	return jac
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
