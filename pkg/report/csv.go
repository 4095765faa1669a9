// Package report formats solver output per analysis mode: a table (header
// row of unknown names, one CSV row per solution point) for DC sweeps and
// transient runs, or one "name = value unit" line per unknown for a DC
// operating point. Every numeric field is scientific notation with six
// significant digits.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/kjbreil/mnaspice/pkg/util"
)

// WriteOP writes the single-point operating-point result: one
// "name = value unit" line per unknown, node voltages first then branch
// currents.
func WriteOP(w io.Writer, names []string, y []float64) error {
	for i, name := range names {
		unit := "V"
		if strings.HasPrefix(name, "I(") {
			unit = "A"
		}
		if _, err := fmt.Fprintf(w, "%s = %s %s\n", name, util.FormatScientific(y[i]), unit); err != nil {
			return err
		}
	}
	return nil
}

// WriteSweep writes a DC-sweep table: header "<sweepLabel>,<names...>"
// followed by one row per swept point.
func WriteSweep(w io.Writer, sweepLabel string, names []string, sweepVals []float64, ys [][]float64) error {
	if err := writeHeader(w, sweepLabel, names); err != nil {
		return err
	}
	for i, sv := range sweepVals {
		if err := writeRow(w, sv, ys[i]); err != nil {
			return err
		}
	}
	return nil
}

// WriteTransient writes a transient table: header "time,<names...>"
// followed by one row per reported sample.
func WriteTransient(w io.Writer, names []string, times []float64, ys [][]float64) error {
	if err := writeHeader(w, "time", names); err != nil {
		return err
	}
	for i, t := range times {
		if err := writeRow(w, t, ys[i]); err != nil {
			return err
		}
	}
	return nil
}

func writeHeader(w io.Writer, first string, names []string) error {
	if _, err := fmt.Fprint(w, first); err != nil {
		return err
	}
	for _, n := range names {
		if _, err := fmt.Fprintf(w, ",%s", n); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

func writeRow(w io.Writer, first float64, y []float64) error {
	if _, err := fmt.Fprint(w, util.FormatScientific(first)); err != nil {
		return err
	}
	for _, v := range y {
		if _, err := fmt.Fprintf(w, ",%s", util.FormatScientific(v)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}
