package solver

import (
	"github.com/kjbreil/mnaspice/pkg/circuit"
	"github.com/kjbreil/mnaspice/pkg/element"
	"github.com/kjbreil/mnaspice/pkg/simerror"
)

// SweepPoint is one row of a DC sweep: the swept source value and the
// resulting operating point.
type SweepPoint struct {
	SweepValue float64
	Y          []float64
}

// Sweep steps a voltage or current source's DC value from start to stop in
// increments of step (inclusive of stop when it lands on a step boundary),
// re-solving the DC operating point at each value and using the previous
// point's solution as the next Newton start (continuation). It stops and
// returns what it has so far, without error, at the first value Newton
// fails to converge at: a partial sweep is more useful than none and the
// caller can see exactly how far the circuit got.
func Sweep(ckt *circuit.Circuit, sourceName string, start, stop, step float64) ([]SweepPoint, error) {
	var src *element.Element
	for _, e := range ckt.Elements {
		if e.Name == sourceName && (e.Kind == element.VSource || e.Kind == element.ISource) {
			src = e
			break
		}
	}
	if src == nil {
		return nil, simerror.New(simerror.ParseError, "sweep source not found: "+sourceName)
	}

	origWave := src.Wave
	defer func() { src.Wave = origWave }()

	var points []SweepPoint
	y := ckt.InitialGuess()

	for v := start; stepsRemain(v, stop, step); v += step {
		src.Wave = element.Waveform{Kind: element.WaveDC, DCValue: v}

		sol, err := DC(ckt, y)
		if err != nil {
			break
		}
		y = sol
		points = append(points, SweepPoint{SweepValue: v, Y: append([]float64(nil), sol...)})
	}

	return points, nil
}

func stepsRemain(v, stop, step float64) bool {
	if step == 0 {
		return false
	}
	if step > 0 {
		return v <= stop+1e-12
	}
	return v >= stop-1e-12
}
