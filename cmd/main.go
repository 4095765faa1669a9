package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kjbreil/mnaspice/pkg/circuit"
	"github.com/kjbreil/mnaspice/pkg/netlist"
	"github.com/kjbreil/mnaspice/pkg/report"
	"github.com/kjbreil/mnaspice/pkg/simerror"
	"github.com/kjbreil/mnaspice/pkg/solver"
)

func main() {
	verbose := flag.Bool("v", false, "dump resolved circuit topology before solving")
	outPath := flag.String("o", "", "write CSV results to this file instead of stdout")
	flag.Parse()

	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: mnaspice [-v] [-o output.csv] <netlist>")
		os.Exit(1)
	}

	if err := run(flag.Arg(0), *outPath, *verbose); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(path, outPath string, verbose bool) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return simerror.Wrap(simerror.ParseError, err, "reading netlist file")
	}

	ckt, deck, err := netlist.Parse(string(content))
	if err != nil {
		return err
	}

	if verbose {
		dumpTopology(ckt, deck)
	}

	out := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return simerror.Wrap(simerror.ParseError, err, "creating output file")
		}
		defer f.Close()
		out = f
	}

	names := ckt.UnknownNames()

	switch deck.Analysis {
	case netlist.AnalysisOP:
		y0 := ckt.InitialGuess()
		ckt.ApplyIC(y0, deck.IC)
		y, err := solver.DC(ckt, y0)
		if err != nil {
			return err
		}
		return report.WriteOP(out, names, y)

	case netlist.AnalysisDC:
		points, err := solver.Sweep(ckt, deck.DC.Source, deck.DC.Start, deck.DC.Stop, deck.DC.Increment)
		if err != nil {
			return err
		}
		sweepVals := make([]float64, len(points))
		ys := make([][]float64, len(points))
		for i, p := range points {
			sweepVals[i] = p.SweepValue
			ys[i] = p.Y
		}
		return report.WriteSweep(out, deck.DC.Source, names, sweepVals, ys)

	case netlist.AnalysisTRAN:
		y0 := ckt.InitialGuess()
		ckt.ApplyIC(y0, deck.IC)

		id := ckt.IDVector()
		params := solver.TransientParams{
			TStart:  deck.Tran.TStart,
			TStop:   deck.Tran.TStop,
			TStep:   deck.Tran.TStep,
			MaxStep: deck.Tran.TMax,
			UseIC:   deck.Tran.UIC,
		}
		samples, err := solver.Transient(ckt, params, y0, id)
		if err != nil {
			return err
		}
		times := make([]float64, len(samples))
		ys := make([][]float64, len(samples))
		for i, s := range samples {
			times[i] = s.T
			ys[i] = s.Y
		}
		return report.WriteTransient(out, names, times, ys)
	}

	return nil
}

func dumpTopology(ckt *circuit.Circuit, deck *netlist.Deck) {
	names := ckt.UnknownNames()
	log.Debug().
		Str("title", deck.Title).
		Int("unknowns", len(names)).
		Strs("names", names).
		Msg("resolved circuit topology")
}
