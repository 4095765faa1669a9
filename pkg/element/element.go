// Package element implements the tagged-variant component model: every
// circuit primitive is one Element value carrying a Kind tag plus the flat
// set of parameters that tag uses. Dispatch for stamping is a switch on
// Kind rather than interface polymorphism, so there is no heap indirection
// per element and the residual/Jacobian dependency graph is visible by
// reading the Stamp switch directly.
package element

import "math"

// Kind tags which stamping rules an Element follows.
type Kind int

const (
	Resistor Kind = iota
	Capacitor
	Inductor
	Diode
	VSource
	ISource
	VCVS
	VCCS
	CCVS
	CCCS
)

func (k Kind) String() string {
	switch k {
	case Resistor:
		return "R"
	case Capacitor:
		return "C"
	case Inductor:
		return "L"
	case Diode:
		return "D"
	case VSource:
		return "V"
	case ISource:
		return "I"
	case VCVS:
		return "E"
	case VCCS:
		return "G"
	case CCVS:
		return "H"
	case CCCS:
		return "F"
	default:
		return "?"
	}
}

// WaveKind tags the time-function a VSource/ISource follows.
type WaveKind int

const (
	WaveDC WaveKind = iota
	WaveSin
	WavePulse
	WavePWL
)

// Waveform is the inner enum of source-specific parameters.
type Waveform struct {
	Kind WaveKind

	// DC
	DCValue float64

	// SIN: offset + amplitude*cos(2*pi*freq*(t-phase))*exp(-damping*max(0,t-delay))
	Offset    float64
	Amplitude float64
	Freq      float64
	Delay     float64
	Damping   float64
	Phase     float64

	// PULSE: piecewise-linear, periodic with Period.
	VInit  float64
	VPulse float64
	TDelay float64
	TRise  float64
	TFall  float64
	TWidth float64
	Period float64

	// PWL: explicit breakpoints, strictly increasing Times.
	Times  []float64
	Values []float64
}

// Value evaluates the waveform at time t.
func (w *Waveform) Value(t float64) float64 {
	switch w.Kind {
	case WaveDC:
		return w.DCValue
	case WaveSin:
		return w.sinValue(t)
	case WavePulse:
		return w.pulseValue(t)
	case WavePWL:
		return w.pwlValue(t)
	default:
		return 0
	}
}

func (w *Waveform) sinValue(t float64) float64 {
	damp := 1.0
	if d := t - w.Delay; d > 0 {
		damp = math.Exp(-w.Damping * d)
	}
	return w.Offset + w.Amplitude*math.Cos(2*math.Pi*w.Freq*(t-w.Phase))*damp
}

func (w *Waveform) pulseValue(t float64) float64 {
	rise := math.Max(w.TRise, 1e-9)
	fall := math.Max(w.TFall, 1e-9)

	if t <= w.TDelay {
		return w.VInit
	}

	tp := t - w.TDelay
	if w.Period > 0 {
		tp = math.Mod(tp, w.Period)
	}

	switch {
	case tp < rise:
		return w.VInit + (w.VPulse-w.VInit)*tp/rise
	case tp < rise+w.TWidth:
		return w.VPulse
	case tp < rise+w.TWidth+fall:
		return w.VPulse - (w.VPulse-w.VInit)*(tp-rise-w.TWidth)/fall
	default:
		return w.VInit
	}
}

func (w *Waveform) pwlValue(t float64) float64 {
	n := len(w.Times)
	if n == 0 {
		return 0
	}
	if t <= w.Times[0] {
		return w.Values[0]
	}
	if t >= w.Times[n-1] {
		return w.Values[n-1]
	}
	for i := 1; i < n; i++ {
		if t <= w.Times[i] {
			t0, t1 := w.Times[i-1], w.Times[i]
			v0, v1 := w.Values[i-1], w.Values[i]
			return v0 + (v1-v0)*(t-t0)/(t1-t0)
		}
	}
	return w.Values[n-1]
}

// Breakpoints returns the times at which this waveform has a slope
// discontinuity, used by the transient integrator to cap step size and
// reset order across pulse edges. A pulse contributes its four edges for
// every period that starts before tStop and a PWL source all of its
// times; points past tStop are not filtered out.
func (w *Waveform) Breakpoints(tStop float64) []float64 {
	switch w.Kind {
	case WavePulse:
		rise := math.Max(w.TRise, 1e-9)
		fall := math.Max(w.TFall, 1e-9)
		period := w.Period
		if period <= 0 {
			period = tStop + 1
		}
		var pts []float64
		for base := w.TDelay; base < tStop; base += period {
			pts = append(pts, base, base+rise, base+rise+w.TWidth, base+rise+w.TWidth+fall)
			if w.Period <= 0 {
				break
			}
		}
		return pts
	case WavePWL:
		return append([]float64{}, w.Times...)
	default:
		return nil
	}
}

// Element is the tagged-variant circuit primitive. Node indices are
// 1-based with 0 reserved for ground; Branch/SensorBranch are 0-based rows
// into the MNA system (see package circuit for the row layout).
type Element struct {
	Name string
	Kind Kind

	// Primary two-terminal nodes (R, C, L, D, V, I) or output nodes
	// (VCVS/VCCS/CCVS/CCCS "n1"/"n2" pair).
	N1, N2 int

	// Controlling node pair for VCVS/VCCS.
	NC1, NC2 int

	// Branch row this element owns, for V-source-like elements
	// (VSource, VCVS, CCVS) and Inductor. -1 if it owns none.
	Branch int

	// CCVS/CCCS sensor reference: resolved at sizing time.
	SensorName   string
	SensorBranch int

	R float64
	C float64
	L float64

	// Diode parameters.
	Is   float64
	N    float64
	Vfwd float64
	Vt   float64

	// VCVS/VCCS/CCVS/CCCS gain.
	Gain float64

	Wave Waveform
}

// NewResistor builds a resistor with resistance r (ohms).
func NewResistor(name string, n1, n2 int, r float64) *Element {
	return &Element{Name: name, Kind: Resistor, N1: n1, N2: n2, R: r, Branch: -1}
}

// NewCapacitor builds a capacitor with capacitance c (farads).
func NewCapacitor(name string, n1, n2 int, c float64) *Element {
	return &Element{Name: name, Kind: Capacitor, N1: n1, N2: n2, C: c, Branch: -1}
}

// NewInductor builds an inductor with inductance l (henries); its branch
// row is assigned by the sizing pass via SetBranch.
func NewInductor(name string, n1, n2 int, l float64) *Element {
	return &Element{Name: name, Kind: Inductor, N1: n1, N2: n2, L: l, Branch: -1}
}

// NewDiode builds a diode with the given forward-voltage shift, saturation
// current is, emission coefficient n and thermal voltage vt, all as given.
func NewDiode(name string, anode, cathode int, vfwd, is, n, vt float64) *Element {
	return &Element{Name: name, Kind: Diode, N1: anode, N2: cathode, Vfwd: vfwd, Is: is, N: n, Vt: vt, Branch: -1}
}

// NewVSource builds an independent voltage source; its branch row is
// assigned by the sizing pass.
func NewVSource(name string, n1, n2 int, wave Waveform) *Element {
	return &Element{Name: name, Kind: VSource, N1: n1, N2: n2, Wave: wave, Branch: -1}
}

// NewISource builds an independent current source (no branch unknown).
func NewISource(name string, n1, n2 int, wave Waveform) *Element {
	return &Element{Name: name, Kind: ISource, N1: n1, N2: n2, Wave: wave, Branch: -1}
}

// NewVCVS builds a voltage-controlled voltage source: V(n1,n2) = gain*V(nc1,nc2).
func NewVCVS(name string, n1, n2, nc1, nc2 int, gain float64) *Element {
	return &Element{Name: name, Kind: VCVS, N1: n1, N2: n2, NC1: nc1, NC2: nc2, Gain: gain, Branch: -1}
}

// NewVCCS builds a voltage-controlled current source: I(n1->n2) = gain*V(nc1,nc2).
func NewVCCS(name string, n1, n2, nc1, nc2 int, gain float64) *Element {
	return &Element{Name: name, Kind: VCCS, N1: n1, N2: n2, NC1: nc1, NC2: nc2, Gain: gain, Branch: -1}
}

// NewCCVS builds a current-controlled voltage source: V(n1,n2) = gain*I(sensor).
func NewCCVS(name string, n1, n2 int, sensorName string, gain float64) *Element {
	return &Element{Name: name, Kind: CCVS, N1: n1, N2: n2, SensorName: sensorName, Gain: gain, Branch: -1, SensorBranch: -1}
}

// NewCCCS builds a current-controlled current source: I(n1->n2) = gain*I(sensor).
func NewCCCS(name string, n1, n2 int, sensorName string, gain float64) *Element {
	return &Element{Name: name, Kind: CCCS, N1: n1, N2: n2, SensorName: sensorName, Gain: gain, Branch: -1, SensorBranch: -1}
}

// SetBranch records the MNA row this element's own branch current occupies.
func (e *Element) SetBranch(row int) { e.Branch = row }

// SetSensorBranch records the resolved sensor voltage-source's branch row.
func (e *Element) SetSensorBranch(row int) { e.SensorBranch = row }

// OwnsBranch reports whether this element introduces its own branch-current
// unknown (V-source-like or inductor).
func (e *Element) OwnsBranch() bool {
	switch e.Kind {
	case VSource, VCVS, CCVS, Inductor:
		return true
	default:
		return false
	}
}

// IsVoltageLike reports whether this element belongs to the V-block of the
// MNA row layout (rows [K, K+V)), as opposed to the inductor L-block.
func (e *Element) IsVoltageLike() bool {
	switch e.Kind {
	case VSource, VCVS, CCVS:
		return true
	default:
		return false
	}
}

// v reads node voltage from y, treating ground (node 0) as exactly zero.
func v(y []float64, node int) float64 {
	if node == 0 {
		return 0
	}
	return y[node-1]
}
