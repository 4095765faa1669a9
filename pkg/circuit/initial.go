package circuit

import "github.com/kjbreil/mnaspice/pkg/element"

// InitialGuess builds the starting vector for DC Newton iteration: all
// zeros, except that a node tied directly to ground through a single DC
// voltage source is seeded at that source's value, which in the common
// case (a bias supply into an RC network) removes most of the Newton
// iterations that a flat-zero start would otherwise need.
func (c *Circuit) InitialGuess() []float64 {
	y := make([]float64, c.N())
	for _, e := range c.Elements {
		if e.Kind != element.VSource || e.Wave.Kind != element.WaveDC {
			continue
		}
		switch {
		case e.N1 != 0 && e.N2 == 0:
			y[e.N1-1] = e.Wave.DCValue
		case e.N2 != 0 && e.N1 == 0:
			y[e.N2-1] = -e.Wave.DCValue
		}
	}
	return y
}

// ApplyIC overwrites y's node-voltage rows with any ".IC V(node)=value"
// values the netlist specified, taking precedence over InitialGuess's
// source-seeded values. Unknown node names are ignored: a stale .IC line
// naming a node the rest of the netlist dropped is not an error.
func (c *Circuit) ApplyIC(y []float64, ic map[string]float64) {
	for name, val := range ic {
		if idx, ok := c.nodeIndex[name]; ok {
			y[idx-1] = val
		}
	}
}
