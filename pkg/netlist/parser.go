// Package netlist parses a SPICE-style deck into a *circuit.Circuit plus
// the simulation directive (.OP/.DC/.TRAN) that drives it.
package netlist

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"

	"github.com/kjbreil/mnaspice/pkg/circuit"
	"github.com/kjbreil/mnaspice/pkg/element"
	"github.com/kjbreil/mnaspice/pkg/simerror"
)

// AnalysisType records which analysis the deck requests; the CLI switches
// on it to pick the solver entry point.
type AnalysisType int

const (
	AnalysisOP AnalysisType = iota
	AnalysisDC
	AnalysisTRAN
)

// TranDirective mirrors a parsed ".TRAN tstep tstop [tstart] [tmax] [uic]" line.
type TranDirective struct {
	TStep  float64
	TStop  float64
	TStart float64
	TMax   float64
	UIC    bool
}

// DCDirective mirrors a parsed ".DC source start stop increment" line.
type DCDirective struct {
	Source    string
	Start     float64
	Stop      float64
	Increment float64
}

// Deck is everything a parsed netlist file carries besides the resolved
// circuit: its title, which analysis to run, that analysis's parameters,
// and any ".IC" node-voltage overrides.
type Deck struct {
	Title    string
	Analysis AnalysisType
	Tran     TranDirective
	DC       DCDirective
	IC       map[string]float64
}

var unitRe = regexp.MustCompile(`(?i)^([-+]?[0-9]*\.?[0-9]+(?:[eE][-+]?[0-9]+)?)(meg|t|g|k|m|u|n|p|f)?$`)

var unitMap = map[string]float64{
	"t":   1e12,
	"g":   1e9,
	"meg": 1e6,
	"k":   1e3,
	"m":   1e-3,
	"u":   1e-6,
	"n":   1e-9,
	"p":   1e-12,
	"f":   1e-15,
}

// ParseValue converts a SPICE numeric literal with an optional magnitude
// suffix (T, G, MEG, K, M, U, N, P, F; case-insensitive) into a float64.
func ParseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	m := unitRe.FindStringSubmatch(s)
	if m == nil {
		return 0, simerror.New(simerror.ParseError, "invalid numeric value: "+s)
	}

	num, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, simerror.Wrap(simerror.ParseError, err, "invalid numeric value: "+s)
	}

	if suffix := strings.ToLower(m[2]); suffix != "" {
		num *= unitMap[suffix]
	}
	return num, nil
}

// Parse reads a full netlist and returns the resolved circuit plus its
// directive. The circuit's Finalize has already been called by the time
// this returns successfully.
func Parse(input string) (*circuit.Circuit, *Deck, error) {
	ckt := circuit.New("")
	deck := &Deck{IC: make(map[string]float64)}

	lines := splitLines(input)
	if title, rest, ok := extractTitle(lines); ok {
		deck.Title = title
		lines = rest
	}

	sawDirective := false
	for _, raw := range lines {
		line := stripComment(raw)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") {
			fields := strings.Fields(line)
			switch strings.ToLower(fields[0]) {
			case ".end":
				continue
			case ".ic":
				if err := parseIC(deck, fields[1:]); err != nil {
					return nil, nil, err
				}
				continue
			}
			if err := parseDirective(deck, fields); err != nil {
				return nil, nil, err
			}
			sawDirective = true
			continue
		}

		if err := parseElementLine(ckt, line); err != nil {
			return nil, nil, err
		}
	}

	if !sawDirective {
		deck.Analysis = AnalysisOP
	}

	if _, err := ckt.Finalize(); err != nil {
		return nil, nil, err
	}

	return ckt, deck, nil
}

// elementKindLetters is every first-letter element dispatch parseElementLine
// recognizes; used by extractTitle to tell a title line from an element line
// without duplicating the full per-kind grammar.
var elementKindLetters = map[string]bool{
	"R": true, "C": true, "L": true, "D": true, "V": true, "I": true,
	"E": true, "G": true, "H": true, "F": true, "Z": true, "X": true,
	"A": true, "B": true,
}

// extractTitle implements the title rule: the first line of the deck is the
// circuit title unless it is blank, a "*" comment (handled separately by
// stripComment), a directive, or itself parses as an element line. A deck
// that opens directly with an element line has no title.
func extractTitle(lines []string) (title string, rest []string, ok bool) {
	if len(lines) == 0 {
		return "", lines, false
	}

	first := strings.TrimSpace(lines[0])
	switch {
	case first == "":
		return "", lines, false
	case strings.HasPrefix(first, "*"):
		return "", lines, false
	case strings.HasPrefix(first, "."):
		return "", lines, false
	}

	fields := strings.Fields(stripComment(first))
	if len(fields) >= 3 && elementKindLetters[strings.ToUpper(fields[0][:1])] {
		return "", lines, false
	}

	return first, lines[1:], true
}

func splitLines(input string) []string {
	scanner := bufio.NewScanner(strings.NewReader(input))
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}

func stripComment(line string) string {
	if i := strings.Index(line, ";"); i >= 0 {
		line = line[:i]
	}
	if i := strings.Index(line, "//"); i >= 0 {
		line = line[:i]
	}
	if strings.HasPrefix(strings.TrimSpace(line), "*") {
		return ""
	}
	return line
}

func parseIC(deck *Deck, fields []string) error {
	re := regexp.MustCompile(`(?i)^V\(([^)]+)\)=(.+)$`)
	for _, f := range fields {
		m := re.FindStringSubmatch(f)
		if m == nil {
			return simerror.New(simerror.ParseError, "invalid .IC term: "+f)
		}
		val, err := ParseValue(m[2])
		if err != nil {
			return err
		}
		deck.IC[m[1]] = val
	}
	return nil
}

func parseDirective(deck *Deck, fields []string) error {
	var err error
	switch strings.ToLower(fields[0]) {
	case ".op":
		deck.Analysis = AnalysisOP

	case ".tran":
		deck.Analysis = AnalysisTRAN
		if len(fields) < 3 {
			return simerror.New(simerror.ParseError, ".tran needs at least tstep and tstop")
		}
		if deck.Tran.TStep, err = ParseValue(fields[1]); err != nil {
			return err
		}
		if deck.Tran.TStop, err = ParseValue(fields[2]); err != nil {
			return err
		}
		for i := 3; i < len(fields); i++ {
			if strings.EqualFold(fields[i], "uic") {
				deck.Tran.UIC = true
				continue
			}
			var v float64
			if v, err = ParseValue(fields[i]); err != nil {
				return err
			}
			if i == 3 {
				deck.Tran.TStart = v
			} else if i == 4 {
				deck.Tran.TMax = v
			}
		}

	case ".dc":
		deck.Analysis = AnalysisDC
		if len(fields) < 5 {
			return simerror.New(simerror.ParseError, ".dc needs source, start, stop, increment")
		}
		deck.DC.Source = fields[1]
		if deck.DC.Start, err = ParseValue(fields[2]); err != nil {
			return err
		}
		if deck.DC.Stop, err = ParseValue(fields[3]); err != nil {
			return err
		}
		if deck.DC.Increment, err = ParseValue(fields[4]); err != nil {
			return err
		}

	default:
		return simerror.New(simerror.ParseError, "unsupported directive: "+fields[0])
	}
	return nil
}

func parseElementLine(ckt *circuit.Circuit, line string) error {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return simerror.New(simerror.ParseError, "malformed element line: "+line)
	}

	name := fields[0]
	kind := strings.ToUpper(name[:1])
	n1, n2 := ckt.NodeIndex(fields[1]), ckt.NodeIndex(fields[2])

	var e *element.Element
	var err error

	switch kind {
	case "R":
		e, err = buildR(name, n1, n2, fields)
	case "C":
		e, err = buildC(name, n1, n2, fields)
	case "L":
		e, err = buildL(name, n1, n2, fields)
	case "D":
		e, err = buildD(name, n1, n2, fields)
	case "V":
		e, err = buildSource(name, n1, n2, fields, true)
	case "I":
		e, err = buildSource(name, n1, n2, fields, false)
	case "E":
		e, err = buildVCVS(ckt, name, n1, n2, fields)
	case "G":
		e, err = buildVCCS(ckt, name, n1, n2, fields)
	case "H":
		e, err = buildCCVS(name, n1, n2, fields)
	case "F":
		e, err = buildCCCS(name, n1, n2, fields)
	case "Z":
		e, err = buildVPulse(name, n1, n2, fields)
	case "X":
		e, err = buildIPulse(name, n1, n2, fields)
	case "A":
		e = buildVDelta(name, n1, n2)
	case "B":
		e = buildIDelta(name, n1, n2)
	default:
		return simerror.New(simerror.ParseError, "unsupported element type: "+name)
	}
	if err != nil {
		return err
	}

	return ckt.Add(e)
}

func buildR(name string, n1, n2 int, fields []string) (*element.Element, error) {
	r, err := ParseValue(fields[len(fields)-1])
	if err != nil {
		return nil, err
	}
	return element.NewResistor(name, n1, n2, r), nil
}

func buildC(name string, n1, n2 int, fields []string) (*element.Element, error) {
	c, err := ParseValue(fields[len(fields)-1])
	if err != nil {
		return nil, err
	}
	return element.NewCapacitor(name, n1, n2, c), nil
}

func buildL(name string, n1, n2 int, fields []string) (*element.Element, error) {
	l, err := ParseValue(fields[len(fields)-1])
	if err != nil {
		return nil, err
	}
	return element.NewInductor(name, n1, n2, l), nil
}

// buildD parses "D<name> <anode> <cathode> <v_fwd>", strictly positional
// per the original netlist grammar; saturation current, emission
// coefficient, and thermal voltage are fixed model constants, not
// netlist-supplied parameters.
func buildD(name string, n1, n2 int, fields []string) (*element.Element, error) {
	if len(fields) < 4 {
		return nil, simerror.New(simerror.ParseError, "D needs anode cathode vfwd")
	}
	vfwd, err := ParseValue(fields[3])
	if err != nil {
		return nil, err
	}
	const is, n, vt = 1e-14, 1.0, 0.02585
	return element.NewDiode(name, n1, n2, vfwd, is, n, vt), nil
}

func buildSource(name string, n1, n2 int, fields []string, isVoltage bool) (*element.Element, error) {
	wave, err := parseWaveform(fields[3:])
	if err != nil {
		return nil, err
	}
	if isVoltage {
		return element.NewVSource(name, n1, n2, wave), nil
	}
	return element.NewISource(name, n1, n2, wave), nil
}

func parseWaveform(fields []string) (element.Waveform, error) {
	if len(fields) == 0 {
		return element.Waveform{Kind: element.WaveDC}, nil
	}

	joined := strings.Join(fields, " ")
	joined = strings.ReplaceAll(joined, "(", " ")
	joined = strings.ReplaceAll(joined, ")", " ")
	words := strings.Fields(joined)

	switch strings.ToUpper(words[0]) {
	case "DC":
		v, err := ParseValue(words[1])
		if err != nil {
			return element.Waveform{}, err
		}
		return element.Waveform{Kind: element.WaveDC, DCValue: v}, nil

	case "SIN":
		vals, err := parseValues(words[1:])
		if err != nil {
			return element.Waveform{}, err
		}
		w := element.Waveform{Kind: element.WaveSin}
		w.Offset = at(vals, 0)
		w.Amplitude = at(vals, 1)
		w.Freq = at(vals, 2)
		w.Delay = at(vals, 3)
		w.Damping = at(vals, 4)
		w.Phase = at(vals, 5)
		return w, nil

	case "PULSE":
		vals, err := parseValues(words[1:])
		if err != nil {
			return element.Waveform{}, err
		}
		if len(vals) < 7 {
			return element.Waveform{}, simerror.New(simerror.ParseError, "PULSE needs 7 parameters")
		}
		return element.Waveform{
			Kind: element.WavePulse,
			VInit: vals[0], VPulse: vals[1], TDelay: vals[2],
			TRise: vals[3], TFall: vals[4], TWidth: vals[5], Period: vals[6],
		}, nil

	case "PWL":
		vals, err := parseValues(words[1:])
		if err != nil {
			return element.Waveform{}, err
		}
		if len(vals) < 4 || len(vals)%2 != 0 {
			return element.Waveform{}, simerror.New(simerror.ParseError, "PWL needs time,value pairs")
		}
		w := element.Waveform{Kind: element.WavePWL}
		for i := 0; i < len(vals); i += 2 {
			w.Times = append(w.Times, vals[i])
			w.Values = append(w.Values, vals[i+1])
		}
		return w, nil

	default:
		// A bare number on a V/I line is shorthand for a DC value.
		v, err := ParseValue(words[0])
		if err != nil {
			return element.Waveform{}, simerror.New(simerror.ParseError, "unsupported source waveform: "+words[0])
		}
		return element.Waveform{Kind: element.WaveDC, DCValue: v}, nil
	}
}

func parseValues(words []string) ([]float64, error) {
	out := make([]float64, len(words))
	for i, w := range words {
		v, err := ParseValue(w)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func at(vals []float64, i int) float64 {
	if i < len(vals) {
		return vals[i]
	}
	return 0
}

func buildVCVS(ckt *circuit.Circuit, name string, n1, n2 int, fields []string) (*element.Element, error) {
	if len(fields) < 6 {
		return nil, simerror.New(simerror.ParseError, "E needs n1 n2 nc1 nc2 gain")
	}
	nc1, nc2 := ckt.NodeIndex(fields[3]), ckt.NodeIndex(fields[4])
	gain, err := ParseValue(fields[5])
	if err != nil {
		return nil, err
	}
	return element.NewVCVS(name, n1, n2, nc1, nc2, gain), nil
}

func buildVCCS(ckt *circuit.Circuit, name string, n1, n2 int, fields []string) (*element.Element, error) {
	if len(fields) < 6 {
		return nil, simerror.New(simerror.ParseError, "G needs n1 n2 nc1 nc2 gain")
	}
	nc1, nc2 := ckt.NodeIndex(fields[3]), ckt.NodeIndex(fields[4])
	gain, err := ParseValue(fields[5])
	if err != nil {
		return nil, err
	}
	return element.NewVCCS(name, n1, n2, nc1, nc2, gain), nil
}

func buildCCVS(name string, n1, n2 int, fields []string) (*element.Element, error) {
	if len(fields) < 5 {
		return nil, simerror.New(simerror.ParseError, "H needs n1 n2 sensor gain")
	}
	gain, err := ParseValue(fields[4])
	if err != nil {
		return nil, err
	}
	return element.NewCCVS(name, n1, n2, fields[3], gain), nil
}

func buildCCCS(name string, n1, n2 int, fields []string) (*element.Element, error) {
	if len(fields) < 5 {
		return nil, simerror.New(simerror.ParseError, "F needs n1 n2 sensor gain")
	}
	gain, err := ParseValue(fields[4])
	if err != nil {
		return nil, err
	}
	return element.NewCCCS(name, n1, n2, fields[3], gain), nil
}

// buildVPulse parses "Z<name> n1 n2 v_init v_on t_delay t_rise t_fall
// t_on t_period", a voltage pulse source with its own branch current.
func buildVPulse(name string, n1, n2 int, fields []string) (*element.Element, error) {
	if len(fields) < 10 {
		return nil, simerror.New(simerror.ParseError, "Z needs n1 n2 vinit von tdelay trise tfall ton tperiod")
	}
	w, err := parsePulseFields(fields[3:10])
	if err != nil {
		return nil, err
	}
	return element.NewVSource(name, n1, n2, w), nil
}

// buildIPulse parses "X<name> n1 n2 v_init v_on t_delay t_rise t_fall
// t_on t_period", the current-source counterpart of buildVPulse.
func buildIPulse(name string, n1, n2 int, fields []string) (*element.Element, error) {
	if len(fields) < 10 {
		return nil, simerror.New(simerror.ParseError, "X needs n1 n2 vinit von tdelay trise tfall ton tperiod")
	}
	w, err := parsePulseFields(fields[3:10])
	if err != nil {
		return nil, err
	}
	return element.NewISource(name, n1, n2, w), nil
}

func parsePulseFields(fields []string) (element.Waveform, error) {
	vals, err := parseValues(fields)
	if err != nil {
		return element.Waveform{}, err
	}
	return element.Waveform{
		Kind:   element.WavePulse,
		VInit:  vals[0],
		VPulse: vals[1],
		TDelay: vals[2],
		TRise:  vals[3],
		TFall:  vals[4],
		TWidth: vals[5],
		Period: vals[6],
	}, nil
}

// buildVDelta builds "A<name> n1 n2", a Dirac-delta voltage source
// approximated as a narrow triangular pulse of unit charge, matching the
// original program's fixed 2ns/1GV approximation.
func buildVDelta(name string, n1, n2 int) *element.Element {
	return element.NewVSource(name, n1, n2, diracPulseWaveform())
}

// buildIDelta is the current-source counterpart of buildVDelta.
func buildIDelta(name string, n1, n2 int) *element.Element {
	return element.NewISource(name, n1, n2, diracPulseWaveform())
}

func diracPulseWaveform() element.Waveform {
	const totalDuration = 2e-9
	const edge = totalDuration / 2
	const peak = 2.0 / totalDuration
	return element.Waveform{
		Kind:   element.WavePulse,
		VInit:  0,
		VPulse: peak,
		TDelay: 0,
		TRise:  edge,
		TFall:  edge,
		TWidth: 0,
		Period: 1.0,
	}
}
