package element

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResistorDCStamp(t *testing.T) {
	r := NewResistor("R1", 1, 0, 100)
	y := []float64{5}
	F := make([]float64, 1)

	r.DCStamp(y, F)

	assert.InDelta(t, 5.0/100, F[0], 1e-12)
}

func TestCapacitorResidualUsesDerivative(t *testing.T) {
	c := NewCapacitor("C1", 1, 0, 1e-6)
	y := []float64{1}
	yp := []float64{2}
	F := make([]float64, 1)

	c.ResidualStamp(0, y, yp, F)

	const gmin = 1e-9
	assert.InDelta(t, 1e-6*2+gmin*1, F[0], 1e-12)
}

func TestDiodeCompanionIsContinuousAtZero(t *testing.T) {
	d := NewDiode("D1", 1, 0, 0.6, 1e-14, 1.0, 0.02585)
	y := []float64{0}
	F := make([]float64, 1)

	d.DCStamp(y, F)

	assert.InDelta(t, 0, F[0], 1e-6)
}

func TestVSourceBranchEquation(t *testing.T) {
	v := NewVSource("V1", 1, 0, Waveform{Kind: WaveDC, DCValue: 5})
	v.SetBranch(1)
	y := []float64{3, 0.5}
	F := make([]float64, 2)

	v.DCStamp(y, F)

	assert.InDelta(t, 0.5, F[0], 1e-12)
	assert.InDelta(t, 3-5, F[1], 1e-12)
}

func TestVCCSInjectsScaledControlVoltage(t *testing.T) {
	g := NewVCCS("G1", 1, 0, 2, 0, 0.1)
	y := []float64{0, 4}
	F := make([]float64, 2)

	g.DCStamp(y, F)

	assert.InDelta(t, 0.1*4, F[0], 1e-12)
}

func TestCCCSReadsSensorBranchCurrent(t *testing.T) {
	f := NewCCCS("F1", 1, 0, "Vsense", 2.0)
	f.SetSensorBranch(3)
	y := []float64{0, 0, 0, 1.5}
	F := make([]float64, 4)

	f.DCStamp(y, F)

	assert.InDelta(t, 2.0*1.5, F[0], 1e-12)
}

func TestInductorDCAndResidualStamps(t *testing.T) {
	l := NewInductor("L1", 1, 0, 1e-3)
	l.SetBranch(1)

	y := []float64{2, 0.01}
	F := make([]float64, 2)
	l.DCStamp(y, F)

	assert.InDelta(t, 0.01, F[0], 1e-12)
	assert.InDelta(t, 2.0, F[1], 1e-6) // node voltage minus a near-zero RMinInductorDC drop

	yp := []float64{0, 5}
	F2 := make([]float64, 2)
	l.ResidualStamp(0, y, yp, F2)

	assert.InDelta(t, 0.01, F2[0], 1e-12)
	assert.InDelta(t, 2.0-1e-3*5, F2[1], 1e-6)
}

func TestWaveformSinValue(t *testing.T) {
	w := Waveform{Kind: WaveSin, Offset: 0, Amplitude: 5, Freq: 1000}

	assert.InDelta(t, 5, w.Value(0), 1e-9)
	assert.InDelta(t, 0, w.Value(0.25e-3), 1e-6) // quarter period: cos(pi/2)=0
}

func TestWaveformPulseShape(t *testing.T) {
	w := Waveform{Kind: WavePulse, VInit: 0, VPulse: 5, TDelay: 1, TRise: 1, TFall: 1, TWidth: 2, Period: 0}

	assert.InDelta(t, 0, w.Value(0), 1e-12)
	assert.InDelta(t, 2.5, w.Value(1.5), 1e-9)
	assert.InDelta(t, 5, w.Value(2.5), 1e-9)
	assert.InDelta(t, 0, w.Value(5), 1e-9)
}

func TestWaveformPWLInterpolates(t *testing.T) {
	w := Waveform{Kind: WavePWL, Times: []float64{0, 1, 2}, Values: []float64{0, 10, 0}}

	assert.InDelta(t, 5, w.Value(0.5), 1e-9)
	assert.InDelta(t, 10, w.Value(1), 1e-9)
	assert.InDelta(t, 0, w.Value(3), 1e-9)
}
