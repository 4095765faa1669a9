// Package solver drives Newton-Raphson DC solves, DC sweeps, consistent
// initial-condition calculation, and the BDF transient integrator on top of
// a *circuit.Circuit. Every solve path shares the same finite-difference
// Jacobian and sparse linear-solve backend from package matrix.
package solver

import (
	"math"

	"github.com/kjbreil/mnaspice/internal/consts"
	"github.com/kjbreil/mnaspice/pkg/circuit"
	"github.com/kjbreil/mnaspice/pkg/matrix"
	"github.com/kjbreil/mnaspice/pkg/simerror"
)

// DC runs Newton-Raphson to convergence against the circuit's DC residual,
// starting from y0, and returns the converged solution. y0 is not mutated.
func DC(ckt *circuit.Circuit, y0 []float64) ([]float64, error) {
	n := ckt.N()
	y := append([]float64(nil), y0...)
	f := make([]float64, n)

	ls, err := matrix.NewLinearSystem(n)
	if err != nil {
		return nil, err
	}
	defer ls.Destroy()

	residual := func(yy, ff []float64) { ckt.DCResidual(yy, ff) }

	for iter := 0; iter < consts.NewtonMaxIter; iter++ {
		for i := range f {
			f[i] = 0
		}
		residual(y, f)

		if normInf(f) < consts.NewtonAbsTol && iter > 0 {
			return y, nil
		}

		jac := matrix.Jacobian(residual, y, f, consts.NewtonDelta)
		ls.LoadDense(jac)

		negF := make([]float64, n)
		for i := range f {
			negF[i] = -f[i]
		}

		dx, err := ls.SolveRHS(negF)
		if err != nil {
			return nil, err
		}

		for i := range y {
			y[i] += dx[i]
		}

		if normInf(dx) < consts.NewtonAbsTol {
			return y, nil
		}
	}

	return nil, simerror.New(simerror.DidNotConverge, "DC operating point")
}

func normInf(v []float64) float64 {
	m := 0.0
	for _, x := range v {
		if a := math.Abs(x); a > m {
			m = a
		}
	}
	return m
}
