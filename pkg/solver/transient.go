package solver

import (
	"math"

	"github.com/kjbreil/mnaspice/internal/consts"
	"github.com/kjbreil/mnaspice/pkg/circuit"
	"github.com/kjbreil/mnaspice/pkg/matrix"
	"github.com/kjbreil/mnaspice/pkg/simerror"
	"github.com/kjbreil/mnaspice/pkg/util"
)

// Sample is one reported point of a transient run.
type Sample struct {
	T float64
	Y []float64
}

// history is the ring of accepted transient steps the BDF formula and the
// dense-output interpolator both read from, most recent last.
type history struct {
	t  []float64
	y  [][]float64
	yp [][]float64
}

func (h *history) push(t float64, y, yp []float64) {
	h.t = append(h.t, t)
	h.y = append(h.y, append([]float64(nil), y...))
	h.yp = append(h.yp, append([]float64(nil), yp...))
	if len(h.t) > util.MaxBDFOrder+1 {
		h.t = h.t[1:]
		h.y = h.y[1:]
		h.yp = h.yp[1:]
	}
}

func (h *history) len() int { return len(h.t) }

// TransientParams bundles the .TRAN directive's fields plus the maximum
// internal step cap and the UIC flag.
type TransientParams struct {
	TStart  float64
	TStop   float64
	TStep   float64 // requested output interval
	MaxStep float64 // 0 means derive from TStep
	UseIC   bool
}

// Transient integrates the circuit from TStart to TStop with a variable-
// order, variable-step BDF method and returns one Sample per TStep grid
// point, with TStop always included. Internal steps, including those that
// stop at a source breakpoint, are not reported as samples.
func Transient(ckt *circuit.Circuit, p TransientParams, y0, id []float64) ([]Sample, error) {
	maxStep := p.MaxStep
	if maxStep <= 0 {
		maxStep = p.TStep
	}
	minStep := p.TStep / 1e6

	var y, yp []float64
	var err error
	if p.UseIC {
		y = append([]float64(nil), y0...)
		yp = make([]float64, ckt.N())
	} else {
		y, yp, err = ConsistentIC(ckt, p.TStart, y0, id)
		if err != nil {
			return nil, err
		}
	}

	hist := &history{}
	hist.push(p.TStart, y, yp)

	outputTimes := sampleGrid(p.TStart, p.TStop, p.TStep)
	breaks := mergeBreakpoints(ckt.Breakpoints(p.TStop), p.TStart, p.TStop)

	samples := []Sample{{T: p.TStart, Y: append([]float64(nil), y...)}}
	outIdx, brIdx := 1, 0 // outputTimes[0]==TStart already emitted

	ls, lerr := matrix.NewLinearSystem(ckt.N())
	if lerr != nil {
		return nil, lerr
	}
	defer ls.Destroy()

	t := p.TStart
	h := p.TStep
	order := 1
	goodStreak := 0

	for t < p.TStop-1e-15 {
		hTry := h

		// Snap to the next breakpoint instead of stepping over it.
		if brIdx < len(breaks) && t+hTry > breaks[brIdx]-1e-15 {
			hTry = breaks[brIdx] - t
		}
		if t+hTry > p.TStop {
			hTry = p.TStop - t
		}
		if hTry < minStep {
			hTry = minStep
		}

		yNew, ypNew, accepted, stepErr := tryStep(ckt, ls, hist, t, hTry, order)
		if stepErr != nil {
			return nil, stepErr
		}

		if !accepted {
			h = hTry / 2
			order = maxInt(1, order-1)
			goodStreak = 0
			if h < minStep {
				return nil, simerror.New(simerror.IntegratorFailed, "step size collapsed below minimum")
			}
			continue
		}

		tNew := t + hTry

		// Dense-output interpolation for every requested sample inside
		// (t, tNew], without perturbing the internal step sequence.
		for outIdx < len(outputTimes) && outputTimes[outIdx] <= tNew+1e-12 {
			ySample := denseOutput(hist, t, y, tNew, yNew, outputTimes[outIdx])
			samples = append(samples, Sample{T: outputTimes[outIdx], Y: ySample})
			outIdx++
		}

		hist.push(tNew, yNew, ypNew)
		t, y, yp = tNew, yNew, ypNew

		if brIdx < len(breaks) && math.Abs(t-breaks[brIdx]) < 1e-12 {
			brIdx++
			order = 1
			goodStreak = 0
		}

		goodStreak++
		if goodStreak >= 3 {
			if order < util.MaxBDFOrder && order < hist.len()-1 {
				order++
			}
			if hTry < maxStep {
				h = math.Min(hTry*1.1, maxStep)
			} else {
				h = maxStep
			}
			goodStreak = 0
		} else {
			h = hTry
		}
	}

	return samples, nil
}

// tryStep runs Newton on one BDF corrector step of size hTry starting from
// the circuit's current history and reports whether the step is accepted.
// A step is rejected, rather than erroring, on Newton non-convergence or a
// failed linear solve; the caller shrinks h and retries, and reports
// IntegratorFailed once h falls below the minimum step.
func tryStep(ckt *circuit.Circuit, ls *matrix.LinearSystem, hist *history, t, hTry float64, order int) (yNew, ypNew []float64, accepted bool, err error) {
	n := ckt.N()
	k := minInt(order, hist.len())
	coeffs := util.GetBDFcoeffs(k, hTry)

	// Predictor: extrapolate from history as the Newton starting point.
	y := lagrangeEval(hist.t, hist.y, t+hTry)

	computeYp := func(yy []float64) []float64 {
		out := make([]float64, n)
		copy(out, yy)
		for i := range out {
			out[i] *= coeffs[0]
		}
		for j := 1; j <= k; j++ {
			prev := hist.y[len(hist.y)-j]
			for i := 0; i < n; i++ {
				out[i] += coeffs[j] * prev[i]
			}
		}
		return out
	}

	residual := func(yy, F []float64) {
		ypTrial := computeYp(yy)
		ckt.Residual(t+hTry, yy, ypTrial, F)
	}

	f := make([]float64, n)
	for iter := 0; iter < consts.NewtonMaxIter; iter++ {
		for i := range f {
			f[i] = 0
		}
		residual(y, f)

		if normInf(f) < consts.TransientAbsTol && iter > 0 {
			ypNew = computeYp(y)
			return y, ypNew, true, nil
		}

		jac := matrix.Jacobian(residual, y, f, consts.NewtonDelta)
		ls.LoadDense(jac)

		negF := make([]float64, n)
		for i := range f {
			negF[i] = -f[i]
		}
		dy, serr := ls.SolveRHS(negF)
		if serr != nil {
			return nil, nil, false, nil
		}

		converged := true
		for i := range y {
			tol := consts.TransientRelTol*math.Abs(y[i]) + consts.TransientAbsTol
			if math.Abs(dy[i]) > tol {
				converged = false
			}
			y[i] += dy[i]
		}
		if converged {
			ypNew = computeYp(y)
			return y, ypNew, true, nil
		}
	}

	return nil, nil, false, nil
}

func denseOutput(hist *history, tPrev float64, yPrev []float64, tNew float64, yNew []float64, tEval float64) []float64 {
	times := append(append([]float64(nil), hist.t...), tNew)
	values := append(append([][]float64(nil), hist.y...), yNew)
	return lagrangeEval(times, values, tEval)
}

// lagrangeEval evaluates, component-wise, the polynomial interpolant
// through the given (time, value) pairs at tEval, via Neville's algorithm.
// With tEval outside [times[0], times[len-1]] this extrapolates, which is
// exactly what the BDF predictor needs.
func lagrangeEval(times []float64, values [][]float64, tEval float64) []float64 {
	m := len(times)
	if m == 0 {
		return nil
	}
	n := len(values[0])
	if m == 1 {
		return append([]float64(nil), values[0]...)
	}

	tab := make([][]float64, m)
	for i := range tab {
		tab[i] = append([]float64(nil), values[i]...)
	}

	for level := 1; level < m; level++ {
		for i := 0; i < m-level; i++ {
			j := i + level
			denom := times[j] - times[i]
			for c := 0; c < n; c++ {
				tab[i][c] = ((tEval-times[i])*tab[i+1][c] - (tEval-times[j])*tab[i][c]) / denom
			}
		}
	}
	return tab[0]
}

func sampleGrid(start, stop, step float64) []float64 {
	if step <= 0 {
		return []float64{start, stop}
	}
	var out []float64
	for t := start; t < stop+step*1e-6; t += step {
		out = append(out, t)
	}
	if out[len(out)-1] < stop-1e-12 {
		out = append(out, stop)
	}
	return out
}

func mergeBreakpoints(bps []float64, start, stop float64) []float64 {
	seen := make(map[float64]bool)
	var merged []float64
	add := func(t float64) {
		if t <= start || t > stop {
			return
		}
		if !seen[t] {
			seen[t] = true
			merged = append(merged, t)
		}
	}
	for _, t := range bps {
		add(t)
	}
	merged = append(merged, stop)
	sortFloats(merged)
	return merged
}

func sortFloats(s []float64) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
