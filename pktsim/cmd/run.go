package cmd

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/sarchlab/pktflow/datarecording"
	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/monitoring"
	"github.com/sarchlab/pktflow/sim/naming"
	"github.com/sarchlab/pktflow/sim/timing"
	"github.com/sarchlab/pktflow/topology"
	"github.com/sarchlab/pktflow/tracing"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type runOptions struct {
	until       float64
	record      string
	monitor     bool
	port        int
	openBrowser bool
}

func newRunCommand() *cobra.Command {
	opts := runOptions{}

	runCmd := &cobra.Command{
		Use:   "run <topology.yaml>",
		Short: "Simulate a topology and print a summary.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTopology(cmd.OutOrStdout(), args[0], opts)
		},
	}

	flags := runCmd.Flags()
	flags.Float64Var(&opts.until, "until", 0,
		"virtual time to stop at, in seconds; overrides the topology file")
	flags.StringVar(&opts.record, "record", "",
		"record every packet event into the SQLite database <path>.sqlite3")
	flags.BoolVar(&opts.monitor, "monitor", false,
		"serve the simulation on a monitoring web server")
	flags.IntVar(&opts.port, "monitor-port", 0,
		"port of the monitoring server; 0 picks a random port")
	flags.BoolVar(&opts.openBrowser, "open-browser", false,
		"open the monitoring server in a web browser")

	return runCmd
}

type summary struct {
	drops     *tracing.DropCounter
	occupancy map[string]*tracing.OccupancyTracer
}

func runTopology(out io.Writer, path string, opts runOptions) error {
	cfg, err := topology.LoadFromPath(path)
	if err != nil {
		return err
	}

	until := cfg.Until
	if opts.until > 0 {
		until = opts.until
	}

	if until <= 0 {
		if name := endlessElement(cfg); name != "" {
			return fmt.Errorf("element %s schedules events forever, "+
				"set until in the topology or pass --until", name)
		}
	}

	engine := timing.NewSerialEngine()
	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		engine.AcceptHook(timing.NewEventLogger(logrus.StandardLogger()))
	}

	n, err := topology.Build(engine, cfg)
	if err != nil {
		return err
	}

	s := attachSummary(engine, n)

	if opts.record != "" {
		recorder, recErr := datarecording.New(opts.record)
		if recErr != nil {
			return recErr
		}
		defer recorder.Close()

		tracing.CollectTraceFromAll(n.Elements(),
			tracing.NewDBTracer(recorder))
	}

	if opts.monitor {
		if err := startMonitor(engine, n, until, opts); err != nil {
			return err
		}
	}

	n.Start()

	if until > 0 {
		err = engine.RunUntil(until)
	} else {
		err = engine.Run()
	}

	if err != nil {
		return err
	}

	s.print(out, n, engine.Now())

	return nil
}

// selfScheduling lists the kinds that keep scheduling events on their own.
// An active sink only stops when its provider runs dry, which a passive
// source never does.
var selfScheduling = map[string]bool{
	"ActiveSource":     true,
	"ActiveSink":       true,
	"TokenServer":      true,
	"MarkovScheduler":  true,
	"MarkovClassifier": true,
}

// endlessElement returns the first element that would keep a run without a
// stop time going forever.
func endlessElement(cfg *topology.Config) string {
	for _, e := range cfg.Elements {
		if selfScheduling[e.Kind] {
			return e.Name
		}
	}

	return ""
}

func attachSummary(engine *timing.SerialEngine, n *topology.Network) *summary {
	s := &summary{
		drops:     tracing.NewDropCounter(),
		occupancy: make(map[string]*tracing.OccupancyTracer),
	}

	tracing.CollectTraceFromAll(n.Elements(), s.drops)

	for _, e := range n.Elements() {
		c, ok := e.(flow.Collection)
		if !ok {
			continue
		}

		t := tracing.NewOccupancyTracer(c)
		engine.AcceptHook(t)
		s.occupancy[e.Name()] = t
	}

	return s
}

func startMonitor(
	engine timing.Engine,
	n *topology.Network,
	until timing.VTimeInSec,
	opts runOptions,
) error {
	m := monitoring.NewMonitor().
		WithPortNumber(opts.port).
		WithOpenBrowser(opts.openBrowser)
	m.RegisterEngine(engine)

	for _, e := range n.Elements() {
		m.RegisterElement(e)
	}

	if until > 0 {
		engine.AcceptHook(m.NewTimeProgress(until))
	}

	_, err := m.StartServer()

	return err
}

type consumer interface {
	naming.Named
	NumConsumed() int
}

func (s *summary) print(
	out io.Writer,
	n *topology.Network,
	now timing.VTimeInSec,
) {
	fmt.Fprintf(out, "Simulated %.6f s\n", now)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	var names []string
	for name := range s.occupancy {
		names = append(names, name)
	}

	sort.Strings(names)

	if len(names) > 0 {
		fmt.Fprintln(w, "\nCOLLECTION\tAVG PACKETS\tMAX PACKETS")

		for _, name := range names {
			t := s.occupancy[name]
			fmt.Fprintf(w, "%s\t%.3f\t%d\n",
				name, t.AverageLength(now), t.MaxLength())
		}
	}

	reasons := []flow.DropReason{flow.QueueOverflow, flow.Filtered, flow.Other}
	fmt.Fprintln(w, "\nELEMENT\tOVERFLOW\tFILTERED\tOTHER\tCONSUMED")

	for _, name := range s.drops.Elements() {
		fmt.Fprint(w, name)

		for _, r := range reasons {
			fmt.Fprintf(w, "\t%d", s.drops.CountAt(name, r))
		}

		fmt.Fprintf(w, "\t%d\n", s.drops.CountAt(name, flow.Consumed))
	}

	w.Flush()

	for _, e := range n.Elements() {
		if c, ok := e.(consumer); ok {
			fmt.Fprintf(out, "%s consumed %d packets\n",
				c.Name(), c.NumConsumed())
		}
	}
}
