package solver

import (
	"github.com/kjbreil/mnaspice/internal/consts"
	"github.com/kjbreil/mnaspice/pkg/circuit"
	"github.com/kjbreil/mnaspice/pkg/matrix"
	"github.com/kjbreil/mnaspice/pkg/simerror"
)

// ConsistentIC computes y and y' at t0 that satisfy F(t0,y,y')=0, holding
// the differential rows of y0 fixed (the caller's initial guess/.IC values)
// and solving for the algebraic rows of y plus the differential rows of y'.
// This mirrors IDA's IDA_YA_YDP_INIT mode: the user supplies initial values
// only for the true state variables (capacitor voltages, inductor
// currents), and everything else is derived.
func ConsistentIC(ckt *circuit.Circuit, t0 float64, y0, id []float64) (y, yp []float64, err error) {
	n := ckt.N()
	y = append([]float64(nil), y0...)
	yp = make([]float64, n)

	// z packs one free unknown per row: y[j] where algebraic, yp[j] where
	// differential. It is what Newton actually iterates over.
	z := make([]float64, n)
	for j := 0; j < n; j++ {
		if id[j] == 0 {
			z[j] = y[j]
		}
	}

	unpack := func(zz []float64) {
		for j := 0; j < n; j++ {
			if id[j] == 0 {
				y[j] = zz[j]
			} else {
				yp[j] = zz[j]
			}
		}
	}

	residual := func(zz, F []float64) {
		unpack(zz)
		ckt.Residual(t0, y, yp, F)
	}

	f := make([]float64, n)
	ls, lerr := matrix.NewLinearSystem(n)
	if lerr != nil {
		return nil, nil, lerr
	}
	defer ls.Destroy()

	for iter := 0; iter < consts.NewtonMaxIter; iter++ {
		for i := range f {
			f[i] = 0
		}
		residual(z, f)

		if normInf(f) < consts.NewtonAbsTol && iter > 0 {
			unpack(z)
			return y, yp, nil
		}

		jac := matrix.Jacobian(residual, z, f, consts.NewtonDelta)
		ls.LoadDense(jac)

		negF := make([]float64, n)
		for i := range f {
			negF[i] = -f[i]
		}

		dz, serr := ls.SolveRHS(negF)
		if serr != nil {
			return nil, nil, simerror.Wrap(simerror.ICFailed, serr, "consistent IC linear solve")
		}

		for i := range z {
			z[i] += dz[i]
		}

		if normInf(dz) < consts.NewtonAbsTol {
			unpack(z)
			return y, yp, nil
		}
	}

	return nil, nil, simerror.New(simerror.ICFailed, "consistent initial condition did not converge")
}
