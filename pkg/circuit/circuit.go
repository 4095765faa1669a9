// Package circuit owns node/branch numbering, the element list, and residual
// assembly for the MNA system. It knows nothing about how elements were
// parsed or how the resulting F(y)=0 / F(t,y,y')=0 gets solved.
package circuit

import (
	"fmt"

	"github.com/kjbreil/mnaspice/pkg/element"
	"github.com/kjbreil/mnaspice/pkg/simerror"
)

// Circuit is the fully-resolved netlist: every node and branch has a fixed
// row, every CCVS/CCCS sensor has been tied to its voltage source's branch,
// and Elements is ready for repeated DCStamp/ResidualStamp calls.
type Circuit struct {
	Name string

	Elements []*element.Element

	nodeIndex map[string]int // "0"/"gnd" never appear here; ground is implicit 0
	nodeOrder []string       // node name for index i+1

	branchNames []string // branch row i -> owning element name

	elementNames map[string]int // element name -> index into Elements

	K int // node count (non-ground)
	V int // voltage-like branch count (VSource, VCVS, CCVS)
	L int // inductor branch count
}

// New creates an empty circuit ready to accept elements.
func New(name string) *Circuit {
	return &Circuit{
		Name:         name,
		nodeIndex:    make(map[string]int),
		elementNames: make(map[string]int),
	}
}

// N returns the total unknown count K+V+L, the size of y.
func (c *Circuit) N() int { return c.K + c.V + c.L }

func isGround(name string) bool {
	return name == "0" || name == "gnd" || name == "GND"
}

// nodeOf resolves a node name to its 1-based index, assigning a fresh index
// on first sight. Ground always maps to 0.
func (c *Circuit) nodeOf(name string) int {
	if isGround(name) {
		return 0
	}
	if idx, ok := c.nodeIndex[name]; ok {
		return idx
	}
	idx := len(c.nodeOrder) + 1
	c.nodeIndex[name] = idx
	c.nodeOrder = append(c.nodeOrder, name)
	return idx
}

// Add registers a constructed element, resolving its node names. Returns
// DuplicateElementName if the name has already been used.
func (c *Circuit) Add(e *element.Element) error {
	if _, exists := c.elementNames[e.Name]; exists {
		return simerror.New(simerror.DuplicateElementName, e.Name)
	}
	c.elementNames[e.Name] = len(c.Elements)
	c.Elements = append(c.Elements, e)
	return nil
}

// NodeIndex exposes the resolved 1-based index for a node name, for use by
// netlist construction before nodes are known to exist (VCVS/VCCS control
// pairs, sensor lookups). Call after all node-bearing elements exist if you
// need a stable total node count.
func (c *Circuit) NodeIndex(name string) int { return c.nodeOf(name) }

// Finalize assigns branch rows, resolves CCVS/CCCS sensors, validates
// grounding, and computes the differential/algebraic id vector. Must be
// called exactly once, after every element has been added.
func (c *Circuit) Finalize() ([]float64, error) {
	c.K = len(c.nodeOrder)

	// Pass 1: voltage-like branches (V, E, H) get rows [K, K+V).
	row := c.K
	for _, e := range c.Elements {
		if e.IsVoltageLike() {
			e.SetBranch(row)
			c.branchNames = append(c.branchNames, e.Name)
			row++
		}
	}
	c.V = row - c.K

	// Pass 2: inductor branches get rows [K+V, K+V+L).
	for _, e := range c.Elements {
		if e.Kind == element.Inductor {
			e.SetBranch(row)
			c.branchNames = append(c.branchNames, e.Name)
			row++
		}
	}
	c.L = row - c.K - c.V

	if err := c.resolveSensors(); err != nil {
		return nil, err
	}
	if err := c.checkGrounded(); err != nil {
		return nil, err
	}

	return c.IDVector(), nil
}

// resolveSensors ties each CCVS/CCCS to the branch row of the voltage source
// it senses.
func (c *Circuit) resolveSensors() error {
	for _, e := range c.Elements {
		if e.Kind != element.CCVS && e.Kind != element.CCCS {
			continue
		}
		idx, ok := c.elementNames[e.SensorName]
		if !ok {
			return simerror.New(simerror.SensorNotFound, e.SensorName)
		}
		sensor := c.Elements[idx]
		if !sensor.IsVoltageLike() {
			return simerror.New(simerror.SensorNotVoltageSource, e.SensorName)
		}
		e.SetSensorBranch(sensor.Branch)
	}
	return nil
}

// checkGrounded rejects a circuit where no element terminal ever touches
// node 0; such a circuit's node voltages are undetermined up to a constant
// and the MNA matrix is structurally singular.
func (c *Circuit) checkGrounded() error {
	for _, e := range c.Elements {
		if e.N1 == 0 || e.N2 == 0 {
			return nil
		}
	}
	return simerror.New(simerror.NoGround, c.Name)
}

// IDVector marks which rows of y carry a y' term: capacitor-touched node
// rows and inductor branch rows. Everything else is algebraic. It is a
// pure function of Elements, so callers may recompute it freely after
// Finalize instead of threading the Finalize return value around.
func (c *Circuit) IDVector() []float64 {
	id := make([]float64, c.N())
	for _, e := range c.Elements {
		switch e.Kind {
		case element.Capacitor:
			if e.N1 != 0 {
				id[e.N1-1] = 1
			}
			if e.N2 != 0 {
				id[e.N2-1] = 1
			}
		case element.Inductor:
			id[e.Branch] = 1
		}
	}
	return id
}

// DCResidual assembles F(y)=0 under the DC formulation (capacitors open,
// inductors shorted) into F, which must be length N and pre-zeroed by the
// caller.
func (c *Circuit) DCResidual(y, F []float64) {
	for _, e := range c.Elements {
		e.DCStamp(y, F)
	}
}

// Residual assembles the transient DAE residual F(t,y,y')=0 into F, which
// must be length N and pre-zeroed by the caller.
func (c *Circuit) Residual(t float64, y, yp, F []float64) {
	for _, e := range c.Elements {
		e.ResidualStamp(t, y, yp, F)
	}
}

// UnknownNames returns the ordered label for every row of y: "V(node)" for
// the K node rows followed by "I(element)" for the V+L branch rows, in the
// order CSV output should present them.
func (c *Circuit) UnknownNames() []string {
	names := make([]string, 0, c.N())
	for _, n := range c.nodeOrder {
		names = append(names, fmt.Sprintf("V(%s)", n))
	}
	for _, n := range c.branchNames {
		names = append(names, fmt.Sprintf("I(%s)", n))
	}
	return names
}

// Breakpoints collects every source's Waveform.Breakpoints(tStop); points
// past tStop are included, and sorting, deduplicating and range filtering
// are the caller's job (the transient integrator merges these with its own
// event list).
func (c *Circuit) Breakpoints(tStop float64) []float64 {
	var pts []float64
	for _, e := range c.Elements {
		switch e.Kind {
		case element.VSource, element.ISource:
			pts = append(pts, e.Wave.Breakpoints(tStop)...)
		}
	}
	return pts
}
