// Package matrix wraps github.com/edp1096/sparse as the linear-solve
// backend for the Newton step and exposes a finite-difference Jacobian
// assembler that uses gonum's dense matrix as its scratch buffer.
package matrix

import (
	"github.com/edp1096/sparse"
	"gonum.org/v1/gonum/mat"

	"github.com/kjbreil/mnaspice/pkg/simerror"
)

// LinearSystem is a reusable sparse.Matrix sized for one circuit's N
// unknowns. Callers clear, load, and solve it once per Newton iteration.
type LinearSystem struct {
	size int
	m    *sparse.Matrix
	rhs  []float64
}

// NewLinearSystem allocates a real (non-complex) modified-nodal matrix of
// the given size, matching the configuration the teacher's CircuitMatrix
// used for its real-valued DC/transient solves.
func NewLinearSystem(size int) (*LinearSystem, error) {
	config := &sparse.Configuration{
		Real:           true,
		Expandable:     true,
		ModifiedNodal:  true,
		TiesMultiplier: 5,
		PrinterWidth:   140,
	}

	m, err := sparse.Create(int64(size), config)
	if err != nil {
		return nil, simerror.Wrap(simerror.LinearSolveFailed, err, "allocating matrix")
	}

	for i := 1; i <= size; i++ {
		for j := 1; j <= size; j++ {
			m.GetElement(int64(i), int64(j))
		}
	}

	return &LinearSystem{size: size, m: m, rhs: make([]float64, size+1)}, nil
}

// LoadDense copies a dense Jacobian (rows/cols 0-based, size x size) into
// the sparse matrix, overwriting whatever was there before.
func (ls *LinearSystem) LoadDense(jac *mat.Dense) {
	ls.m.Clear()
	for i := range ls.rhs {
		ls.rhs[i] = 0
	}
	for i := 0; i < ls.size; i++ {
		for j := 0; j < ls.size; j++ {
			v := jac.At(i, j)
			if v != 0 {
				ls.m.GetElement(int64(i+1), int64(j+1)).Real = v
			}
		}
	}
}

// SolveRHS factors the currently-loaded matrix and solves for rhs, which is
// 0-based length size (J*dx = rhs).
func (ls *LinearSystem) SolveRHS(rhs []float64) ([]float64, error) {
	for i, v := range rhs {
		ls.rhs[i+1] = v
	}

	if err := ls.m.Factor(); err != nil {
		return nil, simerror.Wrap(simerror.LinearSolveFailed, err, "factoring Jacobian")
	}

	sol, err := ls.m.Solve(ls.rhs)
	if err != nil {
		return nil, simerror.Wrap(simerror.LinearSolveFailed, err, "solving linear system")
	}

	out := make([]float64, ls.size)
	for i := range out {
		out[i] = sol[i+1]
	}
	return out, nil
}

// Destroy releases the backing sparse matrix.
func (ls *LinearSystem) Destroy() {
	if ls.m != nil {
		ls.m.Destroy()
	}
}
