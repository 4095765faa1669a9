package element

import (
	"math"

	"github.com/kjbreil/mnaspice/internal/consts"
)

// add accumulates value into F at the row for node, if node isn't ground.
func add(F []float64, node int, value float64) {
	if node != 0 {
		F[node-1] += value
	}
}

// DCStamp adds this element's contribution to the DC residual F(y)=0.
// Capacitors are replaced by a 1 Mohm resistor and inductors by a near-short,
// so the same element set can be solved without time derivatives.
func (e *Element) DCStamp(y, F []float64) {
	switch e.Kind {
	case Resistor:
		i := (v(y, e.N1) - v(y, e.N2)) / e.R
		add(F, e.N1, i)
		add(F, e.N2, -i)

	case Capacitor:
		i := (v(y, e.N1) - v(y, e.N2)) / consts.RDCCapacitor
		add(F, e.N1, i)
		add(F, e.N2, -i)

	case Inductor:
		rMin := consts.RMinInductorDC
		iL := y[e.Branch]
		add(F, e.N1, iL)
		add(F, e.N2, -iL)
		F[e.Branch] += v(y, e.N1) - v(y, e.N2) - rMin*iL

	case Diode:
		id, gd := e.diodeCompanion(v(y, e.N1) - v(y, e.N2))
		add(F, e.N1, id)
		add(F, e.N2, -id)
		_ = gd

	case VSource:
		iv := y[e.Branch]
		add(F, e.N1, iv)
		add(F, e.N2, -iv)
		F[e.Branch] += v(y, e.N1) - v(y, e.N2) - e.Wave.DCValue

	case ISource:
		// Injected current is negated on N1's row and added on N2's,
		// the same sign convention as ResidualStamp.
		iSrc := e.Wave.DCValue
		add(F, e.N1, -iSrc)
		add(F, e.N2, iSrc)

	case VCVS:
		ie := y[e.Branch]
		add(F, e.N1, ie)
		add(F, e.N2, -ie)
		F[e.Branch] += v(y, e.N1) - v(y, e.N2) - e.Gain*(v(y, e.NC1)-v(y, e.NC2))

	case VCCS:
		i := e.Gain * (v(y, e.NC1) - v(y, e.NC2))
		add(F, e.N1, i)
		add(F, e.N2, -i)

	case CCVS:
		ie := y[e.Branch]
		isense := y[e.SensorBranch]
		add(F, e.N1, ie)
		add(F, e.N2, -ie)
		F[e.Branch] += v(y, e.N1) - v(y, e.N2) - e.Gain*isense

	case CCCS:
		isense := y[e.SensorBranch]
		i := e.Gain * isense
		add(F, e.N1, i)
		add(F, e.N2, -i)
	}
}

// ResidualStamp adds this element's contribution to the DAE residual
// F(t,y,y')=0. Called once per Newton iteration during transient solving;
// it must not allocate, perform I/O, or mutate the element.
func (e *Element) ResidualStamp(t float64, y, yp, F []float64) {
	switch e.Kind {
	case Resistor:
		i := (v(y, e.N1) - v(y, e.N2)) / e.R
		add(F, e.N1, i)
		add(F, e.N2, -i)

	case Capacitor:
		vd := v(y, e.N1) - v(y, e.N2)
		vpd := v(yp, e.N1) - v(yp, e.N2)
		i := e.C*vpd + consts.GMinCapacitor*vd
		add(F, e.N1, i)
		add(F, e.N2, -i)

	case Inductor:
		rMin := consts.RMinInductorTransient
		iL := y[e.Branch]
		iLp := yp[e.Branch]
		add(F, e.N1, iL)
		add(F, e.N2, -iL)
		F[e.Branch] += v(y, e.N1) - v(y, e.N2) - e.L*iLp - rMin*iL

	case Diode:
		// Same physically-correct form as DCStamp: no charge-storage
		// term in this model, so the transient stamp has no y' term.
		id, _ := e.diodeCompanion(v(y, e.N1) - v(y, e.N2))
		add(F, e.N1, id)
		add(F, e.N2, -id)

	case VSource:
		iv := y[e.Branch]
		add(F, e.N1, iv)
		add(F, e.N2, -iv)
		F[e.Branch] += v(y, e.N1) - v(y, e.N2) - e.Wave.Value(t)

	case ISource:
		iSrc := e.Wave.Value(t)
		add(F, e.N1, -iSrc)
		add(F, e.N2, iSrc)

	case VCVS:
		ie := y[e.Branch]
		add(F, e.N1, ie)
		add(F, e.N2, -ie)
		F[e.Branch] += v(y, e.N1) - v(y, e.N2) - e.Gain*(v(y, e.NC1)-v(y, e.NC2))

	case VCCS:
		i := e.Gain * (v(y, e.NC1) - v(y, e.NC2))
		add(F, e.N1, i)
		add(F, e.N2, -i)

	case CCVS:
		ie := y[e.Branch]
		isense := y[e.SensorBranch]
		add(F, e.N1, ie)
		add(F, e.N2, -ie)
		F[e.Branch] += v(y, e.N1) - v(y, e.N2) - e.Gain*isense

	case CCCS:
		isense := y[e.SensorBranch]
		i := e.Gain * isense
		add(F, e.N1, i)
		add(F, e.N2, -i)
	}
}

// diodeCompanion evaluates the Shockley current and its conductance at
// diode voltage vd, clamped for numeric safety, and returns the
// Norton-equivalent current i_eq = i_d - G*vd used by both DCStamp and
// ResidualStamp.
func (e *Element) diodeCompanion(vd float64) (ieq, g float64) {
	lo := -100.0
	hi := e.Vfwd + 0.2
	if vd > hi {
		vd = hi
	}
	if vd < lo {
		vd = lo
	}

	nvt := e.N * e.Vt
	arg := (vd - e.Vfwd) / nvt
	if arg > 80 {
		arg = 80
	}
	ex := math.Exp(arg)

	id := e.Is * (ex - 1)
	gd := e.Is * ex / nvt

	return id - gd*vd, gd
}
