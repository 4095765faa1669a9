package solver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjbreil/mnaspice/pkg/circuit"
	"github.com/kjbreil/mnaspice/pkg/element"
)

func TestTransientRCStepResponseMatchesExponential(t *testing.T) {
	c := circuit.New("rc")
	n1 := c.NodeIndex("1")
	n2 := c.NodeIndex("2")

	require.NoError(t, c.Add(element.NewVSource("V1", n1, 0, element.Waveform{Kind: element.WaveDC, DCValue: 1})))
	require.NoError(t, c.Add(element.NewResistor("R1", n1, n2, 1000)))
	require.NoError(t, c.Add(element.NewCapacitor("C1", n2, 0, 1e-6)))

	id, err := c.Finalize()
	require.NoError(t, err)

	y0 := c.InitialGuess()
	params := TransientParams{TStart: 0, TStop: 3e-3, TStep: 1e-4}

	samples, err := Transient(c, params, y0, id)
	require.NoError(t, err)
	require.NotEmpty(t, samples)

	tau := 1000.0 * 1e-6
	last := samples[len(samples)-1]
	expected := 1 - math.Exp(-last.T/tau)

	assert.InDelta(t, expected, last.Y[1], 0.05)
}

func TestTransientRCStepResponseToPulseSource(t *testing.T) {
	c := circuit.New("rc-pulse")
	n1 := c.NodeIndex("1")
	n2 := c.NodeIndex("2")

	pulse := element.Waveform{Kind: element.WavePulse, VInit: 0, VPulse: 1, TDelay: 0, TRise: 1e-9, TFall: 1e-9, TWidth: 1, Period: 2}
	require.NoError(t, c.Add(element.NewVSource("V1", n1, 0, pulse)))
	require.NoError(t, c.Add(element.NewResistor("R1", n1, n2, 1000)))
	require.NoError(t, c.Add(element.NewCapacitor("C1", n2, 0, 1e-6)))

	id, err := c.Finalize()
	require.NoError(t, err)

	y0 := c.InitialGuess()
	params := TransientParams{TStart: 0, TStop: 5e-3, TStep: 1e-4}

	samples, err := Transient(c, params, y0, id)
	require.NoError(t, err)

	at1ms := sampleNear(samples, 1e-3)
	at5ms := sampleNear(samples, 5e-3)

	assert.InDelta(t, 0.632, at1ms.Y[1], 0.05)
	assert.InDelta(t, 0.993, at5ms.Y[1], 0.02)
}

func TestTransientRLTimeConstant(t *testing.T) {
	c := circuit.New("rl")
	na := c.NodeIndex("a")
	nb := c.NodeIndex("b")

	require.NoError(t, c.Add(element.NewVSource("V1", na, 0, element.Waveform{Kind: element.WaveDC, DCValue: 1})))
	require.NoError(t, c.Add(element.NewResistor("R1", na, nb, 10)))
	require.NoError(t, c.Add(element.NewInductor("L1", nb, 0, 1e-3)))

	id, err := c.Finalize()
	require.NoError(t, err)

	y0 := c.InitialGuess()
	params := TransientParams{TStart: 0, TStop: 1e-3, TStep: 1e-6}

	samples, err := Transient(c, params, y0, id)
	require.NoError(t, err)

	at100us := sampleNear(samples, 100e-6)
	at500us := sampleNear(samples, 500e-6)

	// I(L1) is the L-block row, after the node rows and the single
	// VSource branch row: K=2 (a,b), V=1 (V1), so I(L1)=Y[3].
	assert.InDelta(t, 0.0632, at100us.Y[3], 0.01)
	assert.InDelta(t, 0.0993, at500us.Y[3], 0.01)
}

func TestTransientSinusoidalSteadyStateAmplitude(t *testing.T) {
	c := circuit.New("rc-sine")
	nin := c.NodeIndex("in")
	nout := c.NodeIndex("out")

	sine := element.Waveform{Kind: element.WaveSin, Offset: 0, Amplitude: 5, Freq: 1000}
	require.NoError(t, c.Add(element.NewVSource("V1", nin, 0, sine)))
	require.NoError(t, c.Add(element.NewResistor("R1", nin, nout, 1000)))
	require.NoError(t, c.Add(element.NewCapacitor("C1", nout, 0, 159e-9)))

	id, err := c.Finalize()
	require.NoError(t, err)

	y0 := c.InitialGuess()
	params := TransientParams{TStart: 0, TStop: 10e-3, TStep: 1e-5}

	samples, err := Transient(c, params, y0, id)
	require.NoError(t, err)

	// Two steady-state samples a quarter period apart are in quadrature,
	// so sqrt(v1^2+v2^2) recovers the output amplitude independent of the
	// exact phase lag.
	const quarterPeriod = 0.25e-3
	s1 := sampleNear(samples, 8.0e-3)
	s2 := sampleNear(samples, 8.0e-3+quarterPeriod)

	amplitude := math.Sqrt(s1.Y[1]*s1.Y[1] + s2.Y[1]*s2.Y[1])
	assert.InDelta(t, 5/math.Sqrt2, amplitude, 0.2)
}

func sampleNear(samples []Sample, target float64) Sample {
	best := samples[0]
	bestDiff := math.Abs(best.T - target)
	for _, s := range samples[1:] {
		if d := math.Abs(s.T - target); d < bestDiff {
			best, bestDiff = s, d
		}
	}
	return best
}

func TestTransientOnPurelyAlgebraicCircuit(t *testing.T) {
	c := circuit.New("rc")
	n1 := c.NodeIndex("1")
	require.NoError(t, c.Add(element.NewVSource("V1", n1, 0, element.Waveform{Kind: element.WaveDC, DCValue: 1})))
	require.NoError(t, c.Add(element.NewResistor("R1", n1, 0, 1000)))
	id, err := c.Finalize()
	require.NoError(t, err)

	y0 := c.InitialGuess()
	params := TransientParams{TStart: 0, TStop: 1e-3, TStep: 1e-4}

	samples, err := Transient(c, params, y0, id)
	require.NoError(t, err)
	assert.Equal(t, 1.0, samples[0].Y[0])
}
