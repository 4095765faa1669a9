package netlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjbreil/mnaspice/pkg/element"
	"github.com/kjbreil/mnaspice/pkg/simerror"
)

func TestParseValueSuffixes(t *testing.T) {
	cases := map[string]float64{
		"1k":    1e3,
		"1K":    1e3,
		"2.2MEG": 2.2e6,
		"3meg":  3e6,
		"10u":   10e-6,
		"100n":  100e-9,
		"5p":    5e-12,
		"1.5":   1.5,
	}
	for in, want := range cases {
		got, err := ParseValue(in)
		require.NoError(t, err, in)
		assert.InDelta(t, want, got, want*1e-9+1e-30, in)
	}
}

func TestParseValueRejectsGarbage(t *testing.T) {
	_, err := ParseValue("abc")
	assert.True(t, simerror.Is(err, simerror.ParseError))
}

func TestParseResistiveDivider(t *testing.T) {
	deck := "Test divider\n" +
		"V1 1 0 DC 10\n" +
		"R1 1 2 1k\n" +
		"R2 2 0 1k\n" +
		".op\n"

	ckt, d, err := Parse(deck)
	require.NoError(t, err)
	assert.Equal(t, "Test divider", d.Title)
	assert.Equal(t, AnalysisOP, d.Analysis)
	assert.Equal(t, 2, ckt.K)
	assert.Equal(t, 1, ckt.V)
}

func TestParseTranDirective(t *testing.T) {
	deck := "RC lowpass\n" +
		"V1 1 0 DC 1\n" +
		"R1 1 2 1k\n" +
		"C1 2 0 1u\n" +
		".tran 10u 5m\n"

	_, d, err := Parse(deck)
	require.NoError(t, err)
	assert.Equal(t, AnalysisTRAN, d.Analysis)
	assert.InDelta(t, 10e-6, d.Tran.TStep, 1e-15)
	assert.InDelta(t, 5e-3, d.Tran.TStop, 1e-12)
}

func TestParseRejectsMissingGround(t *testing.T) {
	deck := "floating\n" +
		"R1 1 2 1k\n" +
		".op\n"

	_, _, err := Parse(deck)
	assert.True(t, simerror.Is(err, simerror.NoGround))
}

func TestParseICDirective(t *testing.T) {
	deck := "ic test\n" +
		"V1 1 0 DC 5\n" +
		"C1 1 0 1u\n" +
		".ic V(1)=2.5\n" +
		".tran 1u 1m uic\n"

	_, d, err := Parse(deck)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, d.IC["1"], 1e-12)
	assert.True(t, d.Tran.UIC)
}

func TestParseVCVS(t *testing.T) {
	deck := "controlled sources\n" +
		"V1 1 0 DC 1\n" +
		"R1 1 0 1k\n" +
		"E1 2 0 1 0 2.0\n" +
		"R2 2 0 1k\n" +
		".op\n"

	ckt, _, err := Parse(deck)
	require.NoError(t, err)

	var e *element.Element
	for _, el := range ckt.Elements {
		if el.Name == "E1" {
			e = el
		}
	}
	require.NotNil(t, e)
	assert.Equal(t, element.VCVS, e.Kind)
	assert.InDelta(t, 2.0, e.Gain, 1e-12)
}
