// Diagnostic tool for inspecting RAMSES snapshots
package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-ramses/internal/logctx"
	"github.com/robert-malhotra/go-ramses/octree"
	"github.com/robert-malhotra/go-ramses/ramses"
)

// diagnoseT holds the command and its flag state.
type diagnoseT struct {
	Root *cobra.Command

	fields      []string
	domain      int
	minLevel    int
	concurrency int
	bigEndian   bool
	verbose     bool
	human       bool
}

func newDiagnose() *diagnoseT {
	d := &diagnoseT{}
	d.Root = &cobra.Command{
		Use:   "diagnose <output_NNNNN>",
		Short: "inspect a RAMSES snapshot",
		Long: `
Print the headers, octree statistics and hydro block layout of every domain
of a snapshot, then summarise the requested fields.
`,
		Args:          cobra.ExactArgs(1),
		RunE:          d.run,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	flags := d.Root.Flags()
	flags.StringSliceVar(&d.fields, "fields", nil, "fields to summarise (default: all)")
	flags.IntVar(&d.domain, "domain", 0, "only inspect this domain")
	flags.IntVar(&d.minLevel, "min-level", 0, "first level to index")
	flags.IntVar(&d.concurrency, "concurrency", 0, "domains read at once")
	flags.BoolVar(&d.bigEndian, "big-endian", false, "files are big-endian")
	flags.BoolVarP(&d.verbose, "verbose", "v", false, "debug logging")
	flags.BoolVar(&d.human, "human", true, "console log format")
	return d
}

func (d *diagnoseT) options() []ramses.Option {
	opts := []ramses.Option{ramses.WithMinLevel(d.minLevel)}
	if d.concurrency > 0 {
		opts = append(opts, ramses.WithConcurrency(d.concurrency))
	}
	if d.bigEndian {
		opts = append(opts, ramses.WithByteOrder(binary.BigEndian))
	}
	return opts
}

func (d *diagnoseT) run(cmd *cobra.Command, args []string) error {
	stdout := cmd.OutOrStdout()
	ctx := logctx.WithLogger(context.Background(), logctx.NewConfiguredLogger(d.verbose, d.human))

	snap, err := ramses.Open(args[0], d.options()...)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "=== %s ===\n", snap.Dir())
	fmt.Fprintf(stdout, "output %d: ncpu %d, ndim %d\n", snap.Output(), snap.NCPU(), snap.NDim())
	fmt.Fprintf(stdout, "fields: %v\n\n", snap.Fields())

	fields := d.fields
	if len(fields) == 0 {
		fields = snap.Fields()
	}

	domains := snap.Domains()
	if d.domain != 0 {
		dom, err := snap.Domain(d.domain)
		if err != nil {
			return err
		}
		domains = []*ramses.Domain{dom}
	} else if err := snap.Load(ctx); err != nil {
		return err
	}

	for _, dom := range domains {
		if err := dom.Load(logctx.WithInt(ctx, "domain", dom.ID())); err != nil {
			return err
		}
		printDomain(stdout, dom)
	}

	var values map[string][]float64
	if d.domain != 0 {
		values, err = domains[0].ReadFields(ctx, fields, octree.All)
	} else {
		values, err = snap.ReadFields(ctx, fields, octree.All)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, "Fields:")
	for _, f := range fields {
		printStats(stdout, f, values[f])
	}
	return nil
}

func printDomain(w io.Writer, dom *ramses.Domain) {
	h := dom.Header()
	fmt.Fprintf(w, "Domain %d:\n", dom.ID())
	fmt.Fprintf(w, "  amr:   %s\n", dom.AMRPath())
	fmt.Fprintf(w, "  hydro: %s\n", dom.HydroPath())
	fmt.Fprintf(w, "  nlevelmax %d, ngridmax %d, nboundary %d, ordering %s\n",
		h.NLevelMax, h.NGridMax, h.NBoundary, h.Ordering)
	fmt.Fprintf(w, "  boxlen %g, t %g, aexp %g\n", h.BoxLen, h.Time, h.AExp)
	fmt.Fprintf(w, "  depth %d, octs per level %v\n", dom.Depth(), dom.Index().Stats())

	t := dom.Offsets()
	for level := 0; level < t.NLevels(); level++ {
		for domain := 0; domain < t.NDomains(); domain++ {
			offset, count, ok := t.Block(domain, level)
			if !ok {
				continue
			}
			fmt.Fprintf(w, "  level %2d domain %4d: %8d grids at offset %d\n",
				level+t.MinLevel+1, domain+1, count, offset)
		}
	}
	fmt.Fprintln(w)
}

func printStats(w io.Writer, name string, vals []float64) {
	if len(vals) == 0 {
		fmt.Fprintf(w, "  %-16s no cells\n", name)
		return
	}
	lo, hi, sum := math.Inf(1), math.Inf(-1), 0.0
	for _, v := range vals {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
		sum += v
	}
	fmt.Fprintf(w, "  %-16s %8d cells  min %-12g max %-12g mean %g\n",
		name, len(vals), lo, hi, sum/float64(len(vals)))
}

func main() {
	if err := newDiagnose().Root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}
