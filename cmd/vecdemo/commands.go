package main

import (
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap/zapcore"

	"github.com/marcodamonte/concurrency/growable-array/internal/fill"
	"github.com/marcodamonte/concurrency/growable-array/internal/input"
	"github.com/marcodamonte/concurrency/growable-array/vector"
)

func zapSink(w io.Writer) zapcore.WriteSyncer {
	return zapcore.AddSync(w)
}

// readVector reads a count and that many integers from stdin into a vector
// built with the selected strategy.
func (r *runner) readVector(c *cli.Context) (*vector.Vector[int], error) {
	s, err := r.strategy(c)
	if err != nil {
		return nil, err
	}

	in := input.NewReader(c.App.Reader)
	n, err := in.Count()
	if err != nil {
		return nil, err
	}

	v, rep, err := fill.Fill(s, n, in.Ints, fill.Options{Vector: r.vectorOptions()})
	if err != nil {
		return nil, err
	}
	r.log.Infow("read input",
		"strategy", rep.Strategy,
		"len", rep.Len,
		"cap", rep.Cap,
		"growths", rep.Growths,
		"copied", rep.Copied,
		"elapsed", rep.Elapsed)
	return v, nil
}

func (r *runner) reverse(c *cli.Context) error {
	v, err := r.readVector(c)
	if err != nil {
		return err
	}
	defer v.Release()
	return writeInts(c.App.Writer, v.Len(), v.Backward())
}

func (r *runner) sort(c *cli.Context) error {
	v, err := r.readVector(c)
	if err != nil {
		return err
	}
	defer v.Release()
	vector.Sort(v)
	return writeInts(c.App.Writer, v.Len(), v.All())
}

func (r *runner) trace(c *cli.Context) error {
	opts := r.vectorOptions()
	opts.Capacity = 0
	v, err := vector.New[int](opts)
	if err != nil {
		return err
	}
	defer v.Release()

	if err := v.AppendAll(1, 2, 3, 4, 5); err != nil {
		return err
	}
	w := c.App.Writer
	fmt.Fprintf(w, "size: %d capacity: %d\n", v.Len(), v.Cap())

	for i := 6; i <= c.Int(uptoFlag.Name); i++ {
		if err := v.Append(i); err != nil {
			return fmt.Errorf("append %d: %w", i, err)
		}
		fmt.Fprintf(w, "size: %d capacity: %d\n", v.Len(), v.Cap())
	}
	return nil
}

func (r *runner) compare(c *cli.Context) error {
	n := c.Int(countFlag.Name)

	tw := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STRATEGY\tLEN\tCAP\tALLOCATIONS\tGROWTHS\tCOPIED\tELAPSED")
	for _, s := range fill.Strategies {
		v, rep, err := fill.Fill(s, n, fill.Generate, fill.Options{Vector: r.vectorOptions()})
		if err != nil {
			return err
		}
		v.Release()
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
			rep.Strategy, rep.Len, rep.Cap, rep.Allocations, rep.Growths, rep.Copied,
			rep.Elapsed.Round(time.Microsecond))
	}
	return tw.Flush()
}

// writeInts prints the sequence space separated on one line.
func writeInts(w io.Writer, n int, seq iter.Seq2[int, int]) error {
	parts := make([]string, 0, n)
	for _, x := range seq {
		parts = append(parts, strconv.Itoa(x))
	}
	_, err := fmt.Fprintln(w, strings.Join(parts, " "))
	return err
}
