package solver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjbreil/mnaspice/pkg/circuit"
	"github.com/kjbreil/mnaspice/pkg/element"
)

func TestSweepTracksLinearDivider(t *testing.T) {
	c := buildDivider(t)

	points, err := Sweep(c, "V1", 0, 10, 2)
	require.NoError(t, err)
	require.Len(t, points, 6)

	for _, p := range points {
		assert.InDelta(t, p.SweepValue/2, p.Y[1], 1e-6)
	}
}

func TestSweepRestoresSourceAfterwards(t *testing.T) {
	c := buildDivider(t)
	origKind := c.Elements[0].Wave.Kind
	origVal := c.Elements[0].Wave.DCValue

	_, err := Sweep(c, "V1", 0, 10, 2)
	require.NoError(t, err)

	assert.Equal(t, origKind, c.Elements[0].Wave.Kind)
	assert.Equal(t, origVal, c.Elements[0].Wave.DCValue)
}

// TestSweepDiodeDCCharacteristicIsMonotonic sweeps a diode's pinned anode
// voltage (Scenario D) and checks the solved source current against the
// same companion-model formula stamp.go uses, and that it rises with
// forward bias. Is is raised to 1e-6 (vs. the parser's fixed 1e-14) so the
// expected currents clear the Newton solver's 1e-9 residual floor by a
// comfortable margin; the shape of the curve is what's under test.
func TestSweepDiodeDCCharacteristicIsMonotonic(t *testing.T) {
	c := circuit.New("diode-sweep")
	na := c.NodeIndex("a")

	const vfwd, is, n, vt = 0.7, 1e-6, 1.0, 0.02585
	require.NoError(t, c.Add(element.NewVSource("V1", na, 0, element.Waveform{Kind: element.WaveDC, DCValue: 0})))
	require.NoError(t, c.Add(element.NewDiode("D1", na, 0, vfwd, is, n, vt)))

	_, err := c.Finalize()
	require.NoError(t, err)

	points, err := Sweep(c, "V1", 0, 1.0, 0.05)
	require.NoError(t, err)
	require.Len(t, points, 21)

	// V1 pins V(a) directly, so at convergence the node-a residual
	// iv+ieq=0 forces I(V1) = -ieq(v), evaluated with the same clamp and
	// shifted-exponent form as Element.diodeCompanion.
	expectedSourceCurrent := func(v float64) float64 {
		vd := v
		lo, hi := -100.0, vfwd+0.2
		if vd > hi {
			vd = hi
		}
		if vd < lo {
			vd = lo
		}
		nvt := n * vt
		arg := (vd - vfwd) / nvt
		if arg > 80 {
			arg = 80
		}
		ex := math.Exp(arg)
		id := is * (ex - 1)
		gd := is * ex / nvt
		return -(id - gd*vd)
	}

	checkpoint := func(v float64) SweepPoint {
		best := points[0]
		bestDiff := math.Abs(best.SweepValue - v)
		for _, p := range points[1:] {
			if d := math.Abs(p.SweepValue - v); d < bestDiff {
				best, bestDiff = p, d
			}
		}
		return best
	}

	checkpoints := []float64{0, 0.5, 0.7, 1.0}
	var prev float64
	for i, v := range checkpoints {
		p := checkpoint(v)
		want := expectedSourceCurrent(v)
		tol := math.Abs(want)*0.1 + 1e-9
		assert.InDelta(t, want, p.Y[1], tol)

		if i > 0 {
			assert.Greater(t, p.Y[1], prev, "source current should rise with forward bias")
		}
		prev = p.Y[1]
	}
}
