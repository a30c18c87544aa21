package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/marcodamonte/concurrency/growable-array/config"
	"github.com/marcodamonte/concurrency/growable-array/internal/fill"
	"github.com/marcodamonte/concurrency/growable-array/internal/log"
	"github.com/marcodamonte/concurrency/growable-array/internal/metrics"
	"github.com/marcodamonte/concurrency/growable-array/vector"
)

// Automatically set through -ldflags
var (
	version   = "master"
	gitCommit = "none"
)

var configFlag = &cli.StringFlag{
	Name:    "config",
	Aliases: []string{"c"},
	Usage:   "load settings from a TOML or YAML file",
}

var verboseFlag = &cli.BoolFlag{
	Name:  "verbose",
	Usage: "print debug-level log messages, including every reallocation",
}

var jsonFlag = &cli.BoolFlag{
	Name:  "json",
	Usage: "log as JSON instead of console text",
}

var metricsFlag = &cli.BoolFlag{
	Name:  "metrics",
	Usage: "print reallocation metrics when the command finishes",
}

var strategyFlag = &cli.StringFlag{
	Name:    "strategy",
	Aliases: []string{"s"},
	Usage:   "how to build the vector: append, reserve or presize",
}

var uptoFlag = &cli.IntFlag{
	Name:  "upto",
	Usage: "append values up to and including this one",
	Value: 9,
}

var countFlag = &cli.IntFlag{
	Name:  "n",
	Usage: "number of elements to fill",
	Value: 1000,
}

func main() {
	app := newApp(os.Stdin, os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "vecdemo:", err)
		os.Exit(1)
	}
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *cli.App {
	r := &runner{stderr: stderr}

	app := cli.NewApp()
	app.Name = "vecdemo"
	app.Usage = "growable array demos: reading, reversing, sorting and tracing capacity"
	app.Version = fmt.Sprintf("%s (commit %s)", version, gitCommit)
	app.Reader = stdin
	app.Writer = stdout
	app.ErrWriter = stderr
	app.Flags = []cli.Flag{configFlag, verboseFlag, jsonFlag, metricsFlag}
	app.Before = r.setup
	app.After = r.teardown
	app.Commands = []*cli.Command{
		{
			Name:   "reverse",
			Usage:  "read n and n integers from stdin, print them in reverse order",
			Flags:  []cli.Flag{strategyFlag},
			Action: r.reverse,
		},
		{
			Name:   "sort",
			Usage:  "read n and n integers from stdin, print them sorted",
			Flags:  []cli.Flag{strategyFlag},
			Action: r.sort,
		},
		{
			Name:   "trace",
			Usage:  "append to {1, 2, 3, 4, 5} and print size and capacity after each step",
			Flags:  []cli.Flag{uptoFlag},
			Action: r.trace,
		},
		{
			Name:   "compare",
			Usage:  "fill n elements with every strategy and compare the storage work",
			Flags:  []cli.Flag{countFlag},
			Action: r.compare,
		},
		{
			Name:   "tour",
			Usage:  "walk through growth, reserve, checked access and failed growth",
			Action: r.tour,
		},
	}
	return app
}

// runner carries what the Before hook builds to the command actions.
type runner struct {
	stderr  io.Writer
	cfg     *config.Config
	log     log.Logger
	metrics *metrics.Metrics
	budget  *vector.Budget
}

func (r *runner) setup(c *cli.Context) error {
	cfg := config.Default()
	if path := c.String(configFlag.Name); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if c.Bool(verboseFlag.Name) {
		cfg.Log.Level = "debug"
	}
	if c.IsSet(jsonFlag.Name) {
		cfg.Log.JSON = c.Bool(jsonFlag.Name)
	}
	if c.IsSet(metricsFlag.Name) {
		cfg.Metrics.Enabled = c.Bool(metricsFlag.Name)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}

	r.cfg = cfg
	r.log = log.New(zapSink(r.stderr), level, cfg.Log.JSON).Named("vecdemo")
	r.budget = vector.NewBudget(cfg.Vector.MemoryLimit)
	if cfg.Metrics.Enabled {
		r.metrics = metrics.New()
	}
	r.log.Debugw("configured",
		"initial_capacity", cfg.Vector.InitialCapacity,
		"memory_limit", cfg.Vector.MemoryLimit,
		"strategy", cfg.Fill.Strategy,
		"metrics", cfg.Metrics.Enabled)
	return nil
}

func (r *runner) teardown(c *cli.Context) error {
	if r.log == nil {
		return nil
	}
	if r.budget != nil {
		r.log.Debugw("memory", "in_use", r.budget.InUse(), "peak", r.budget.Peak())
		if n := r.budget.Overfreed(); n > 0 {
			r.log.Warnw("storage freed twice", "bytes", n)
		}
	}
	if r.metrics != nil {
		samples, err := r.metrics.Snapshot()
		if err != nil {
			return fmt.Errorf("gather metrics: %w", err)
		}
		for _, s := range samples {
			fmt.Fprintf(c.App.Writer, "%s %g\n", s.Name, s.Value)
		}
	}
	_ = r.log.Sync()
	return nil
}

// vectorOptions returns the options every vector of a run is built with:
// the shared budget and an observer feeding the log and the metrics.
func (r *runner) vectorOptions() vector.Options {
	var toMetrics vector.Observer
	if r.metrics != nil {
		toMetrics = r.metrics.Observer()
	}
	return vector.Options{
		Capacity:  r.cfg.Vector.InitialCapacity,
		Allocator: r.budget,
		Observer: vector.ObserverFunc(func(ev vector.GrowEvent) {
			r.log.Debugw("storage reallocated", "old_cap", ev.OldCap, "new_cap", ev.NewCap, "copied", ev.Copied)
			if toMetrics != nil {
				toMetrics.Grow(ev)
			}
		}),
	}
}

func (r *runner) strategy(c *cli.Context) (fill.Strategy, error) {
	if c.IsSet(strategyFlag.Name) {
		return fill.ParseStrategy(c.String(strategyFlag.Name))
	}
	return r.cfg.Strategy()
}
