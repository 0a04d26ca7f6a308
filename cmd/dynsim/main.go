// Command dynsim drives the event-queue simulator from the command line:
// build and run a network definition, watch one live in a terminal, step
// through the canonical scenarios the simulator's invariants are tested
// against, or run a standalone PID-controlled pendulum part.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/eventsim/internal/control"
	"github.com/san-kum/eventsim/internal/dynamo"
	"github.com/san-kum/eventsim/internal/event"
	"github.com/san-kum/eventsim/internal/integrator"
	"github.com/san-kum/eventsim/internal/netdoc"
	"github.com/san-kum/eventsim/internal/part"
	"github.com/san-kum/eventsim/internal/sampling"
	"github.com/san-kum/eventsim/internal/simulator"
	"github.com/san-kum/eventsim/internal/trace"
	"github.com/san-kum/eventsim/internal/tui"
	"github.com/san-kum/eventsim/internal/visitor"
)

var (
	flagPreset     string
	flagSeed       int64
	flagDuration   float64
	flagDt         float64
	flagIntegrator string
	flagTrace      string

	pendulumKp     float64
	pendulumKi     float64
	pendulumKd     float64
	pendulumTarget float64

	plotColumn string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dynsim",
		Short: "event-queue simulator: networks, scenarios, and a PID pendulum demo",
	}

	rootCmd.PersistentFlags().StringVar(&flagPreset, "preset", "", "use a built-in network preset instead of a file")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 1, "random seed (0 keeps the config/preset's own seed)")
	rootCmd.PersistentFlags().Float64Var(&flagDuration, "duration", 0, "run duration in seconds (0 keeps the config/preset's own duration)")
	rootCmd.PersistentFlags().Float64Var(&flagDt, "dt", 1e-3, "period each population's parts are scheduled under")
	rootCmd.PersistentFlags().StringVar(&flagIntegrator, "integrator", "rk4", "euler or rk4")
	rootCmd.PersistentFlags().StringVar(&flagTrace, "trace", "", "write sampled state to this tab-delimited file")

	runCmd := &cobra.Command{
		Use:   "run [network.yaml]",
		Short: "build a network and run it to completion",
		Args:  cobra.MaximumNArgs(1),
		RunE:  networkRun,
	}

	liveCmd := &cobra.Command{
		Use:   "live [network.yaml]",
		Short: "build a network and watch it run in a terminal view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  networkLive,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in network presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := netdoc.ListPresets()
			sort.Strings(names)
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [s1|s2|s3|s5|s6|connect]",
		Short: "run one of the canonical scheduler/integrator scenarios",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	pendulumCmd := &cobra.Command{
		Use:   "pendulum",
		Short: "run a single PID-controlled pendulum part",
		RunE:  runPendulum,
	}
	pendulumCmd.Flags().Float64Var(&pendulumKp, "kp", 10.0, "pid proportional gain")
	pendulumCmd.Flags().Float64Var(&pendulumKi, "ki", 0.1, "pid integral gain")
	pendulumCmd.Flags().Float64Var(&pendulumKd, "kd", 5.0, "pid derivative gain")
	pendulumCmd.Flags().Float64Var(&pendulumTarget, "target", 0.0, "target angle, radians")

	plotCmd := &cobra.Command{
		Use:   "plot <trace-file>",
		Short: "plot a column from a trace file written by --trace",
		Args:  cobra.ExactArgs(1),
		RunE:  runPlot,
	}
	plotCmd.Flags().StringVar(&plotColumn, "column", "", "column name to plot (required)")

	rootCmd.AddCommand(runCmd, liveCmd, presetsCmd, scenarioCmd, pendulumCmd, plotCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// pickIntegrator maps the --integrator flag to a concrete Integrator,
// defaulting to RungeKutta for anything other than an exact "euler" match.
func pickIntegrator(name string) integrator.Integrator {
	if name == "euler" {
		return integrator.Euler{}
	}
	return integrator.RungeKutta{}
}

// loadNetworkConfig resolves --preset or a positional file path into a
// NetworkConfig, applying --seed/--duration overrides.
func loadNetworkConfig(args []string) (*netdoc.NetworkConfig, error) {
	var cfg *netdoc.NetworkConfig
	if flagPreset != "" {
		preset, ok := netdoc.GetPreset(flagPreset)
		if !ok {
			return nil, fmt.Errorf("unknown preset %q (available: %v)", flagPreset, netdoc.ListPresets())
		}
		cfg = preset
	} else {
		if len(args) != 1 {
			return nil, errors.New("either a network file or --preset is required")
		}
		loaded, err := netdoc.Load(args[0])
		if err != nil {
			return nil, fmt.Errorf("load network: %w", err)
		}
		cfg = loaded
	}

	if flagSeed != 0 {
		cfg.Run.Seed = flagSeed
	}
	if flagDuration != 0 {
		cfg.Run.Duration = flagDuration
	}
	return cfg, nil
}

// buildRegistry extends netdoc's built-in "node" part type with "pendulum",
// backed by the same PID gains the pendulum subcommand exposes, so a
// network definition can declare a population of controlled pendulums
// alongside bare connection endpoints.
func buildRegistry() map[string]netdoc.PartFactory {
	reg := make(map[string]netdoc.PartFactory, len(netdoc.DefaultRegistry)+1)
	for name, factory := range netdoc.DefaultRegistry {
		reg[name] = factory
	}
	reg["pendulum"] = func() part.Part {
		return control.NewPendulum(pendulumKp, pendulumKi, pendulumKd, pendulumTarget)
	}
	return reg
}

// deadlineEvent is a bare one-shot Event whose only job is calling stopFn
// once simulated time reaches t — how both the pendulum demo and a
// duration-bounded network run stop a Simulator that would otherwise drain
// forever.
type deadlineEvent struct {
	t      float64
	stopFn func()
}

func deadline(t float64, stopFn func()) *deadlineEvent {
	return &deadlineEvent{t: t, stopFn: stopFn}
}

func (e *deadlineEvent) Time() float64     { return e.t }
func (e *deadlineEvent) Dt() float64       { return 0 }
func (e *deadlineEvent) Enqueue(part.Part) {}
func (e *deadlineEvent) Run()              { e.stopFn() }

// stateful is implemented by any part willing to report its state vector
// for tracing (control.Pendulum does).
type stateful interface {
	State() dynamo.State
}

func networkRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadNetworkConfig(args)
	if err != nil {
		return err
	}

	sampler := sampling.New(cfg.Run.Seed)
	net, err := netdoc.Build(cfg, buildRegistry(), sampler)
	if err != nil {
		return fmt.Errorf("build network: %w", err)
	}

	sim := simulator.New(pickIntegrator(flagIntegrator))
	for _, pop := range net.Populations {
		pop.Each(func(p part.Part) { sim.Enqueue(p, flagDt) })
	}
	sim.PushEvent(deadline(cfg.Run.Duration, sim.Stop))

	if flagTrace != "" {
		sink := trace.NewTabSink(flagTrace)
		for sim.Step() {
			recordNetworkState(sim, net, sink)
		}
		if err := sink.Close(); err != nil {
			return fmt.Errorf("write trace: %w", err)
		}
	} else {
		sim.Run()
	}

	return printNetworkSummary(net)
}

// recordNetworkState samples every stateful part's state vector into sink
// at the simulator's current time, skipping the tick entirely if nothing
// in the network carries state worth tracing.
func recordNetworkState(sim *simulator.Simulator, net *netdoc.Network, sink *trace.TabSink) {
	values := map[string]float64{}
	for name, pop := range net.Populations {
		i := 0
		pop.Each(func(p part.Part) {
			if sp, ok := p.(stateful); ok {
				for j, v := range sp.State() {
					values[fmt.Sprintf("%s[%d].%d", name, i, j)] = v
				}
			}
			i++
		})
	}
	if len(values) == 0 {
		return
	}
	sink.Record(sim.CurrentEvent().Time(), values)
}

func printNetworkSummary(net *netdoc.Network) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)

	names := make([]string, 0, len(net.Populations))
	for name := range net.Populations {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "POPULATION\tLIVE")
	for _, name := range names {
		fmt.Fprintf(w, "%s\t%d\n", name, net.Populations[name].Len())
	}

	if len(net.Connections) > 0 {
		cnames := make([]string, 0, len(net.Connections))
		for name := range net.Connections {
			cnames = append(cnames, name)
		}
		sort.Strings(cnames)

		fmt.Fprintln(w, "CONNECTION\tEDGES")
		for _, name := range cnames {
			fmt.Fprintf(w, "%s\t%d\n", name, len(*net.Accepted[name]))
		}
	}

	return w.Flush()
}

func networkLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadNetworkConfig(args)
	if err != nil {
		return err
	}

	sampler := sampling.New(cfg.Run.Seed)
	net, err := netdoc.Build(cfg, buildRegistry(), sampler)
	if err != nil {
		return fmt.Errorf("build network: %w", err)
	}

	sim := simulator.New(pickIntegrator(flagIntegrator))
	for _, pop := range net.Populations {
		pop.Each(func(p part.Part) { sim.Enqueue(p, flagDt) })
	}

	model := tui.NewModel(sim, net.Populations)
	_, err = tea.NewProgram(model).Run()
	return err
}

func runPendulum(cmd *cobra.Command, args []string) error {
	p := control.NewPendulum(pendulumKp, pendulumKi, pendulumKd, pendulumTarget)
	p.Init(sampling.New(flagSeed))

	duration := flagDuration
	if duration == 0 {
		duration = 10.0
	}

	sim := simulator.New(pickIntegrator(flagIntegrator))
	sim.Enqueue(p, flagDt)
	sim.PushEvent(deadline(duration, sim.Stop))

	if flagTrace != "" {
		sink := trace.NewTabSink(flagTrace)
		for sim.Step() {
			st := p.State()
			sink.Record(sim.CurrentEvent().Time(), map[string]float64{"theta": st[0], "omega": st[1]})
		}
		if err := sink.Close(); err != nil {
			return fmt.Errorf("write trace: %w", err)
		}
	} else {
		sim.Run()
	}

	st := p.State()
	fmt.Printf("pendulum settled at theta=%.6f omega=%.6f (target %.6f)\n", st[0], st[1], pendulumTarget)
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	switch args[0] {
	case "s1":
		return scenarioS1()
	case "s2":
		return scenarioS2()
	case "s3":
		return scenarioS3()
	case "s5":
		return scenarioS5()
	case "s6":
		return scenarioS6()
	case "connect":
		return scenarioConnect()
	default:
		return fmt.Errorf("unknown scenario %q (available: s1, s2, s3, s5, s6, connect)", args[0])
	}
}

// tickPart is a minimal periodic part for S1: it records how many times it
// was updated and retires itself after the tenth.
type tickPart struct {
	part.Timed
	updates int
	lastT   float64
}

func (p *tickPart) Init(sampling.Sampler) {}
func (p *tickPart) Update() {
	p.updates++
	p.lastT = p.GetEvent().Time()
}
func (p *tickPart) Finalize() bool { return p.updates < 10 }

func scenarioS1() error {
	p := &tickPart{}
	p.Bind(p)

	sim := simulator.New(integrator.Euler{})
	sim.Enqueue(p, 1e-3)
	sim.Run()

	fmt.Printf("S1: %d updates, last update at t=%.6f\n", p.updates, p.lastT)
	return nil
}

// logPart appends its tag to a shared log every time it is updated, and
// retires once maxUpdates is reached (0 means it never retires on its own).
type logPart struct {
	part.Timed
	log        *[]string
	tag        string
	updates    int
	maxUpdates int
}

func (p *logPart) Init(sampling.Sampler) {}
func (p *logPart) Update() {
	p.updates++
	*p.log = append(*p.log, p.tag)
}
func (p *logPart) Finalize() bool {
	if p.maxUpdates == 0 {
		return true
	}
	return p.updates < p.maxUpdates
}

func scenarioS2() error {
	var log []string

	stepPart := &logPart{log: &log, tag: "step", maxUpdates: 2}
	stepPart.Bind(stepPart)
	st := event.NewStep(0, 1, integrator.Euler{})
	st.Enqueue(stepPart)

	spikeTarget := &logPart{log: &log, tag: "spike"}
	spikeTarget.Bind(spikeTarget)
	spike := &event.SingleSpike{T: 0.5, Target: spikeTarget, Latch: -1, Integrator: integrator.Euler{}}

	sim := simulator.New(integrator.Euler{})
	sim.PushEvent(st)
	sim.PushEvent(spike)
	sim.Run()

	fmt.Printf("S2: event order = %v\n", log)
	return nil
}

func scenarioS3() error {
	var log []string
	a := &logPart{log: &log, tag: "a"}
	a.Bind(a)
	b := &logPart{log: &log, tag: "b", maxUpdates: 1}
	b.Bind(b)
	c := &logPart{log: &log, tag: "c"}
	c.Bind(c)

	st := event.NewStep(0, 1, integrator.Euler{})
	st.Enqueue(a)
	st.Enqueue(b)
	st.Enqueue(c)
	st.Run()

	var remaining []string
	st.Visit(func(v *visitor.Visitor) {
		remaining = append(remaining, v.Part.(*logPart).tag)
	})

	fmt.Printf("S3: visited = %v, remaining after b's death = %v\n", log, remaining)
	return nil
}

// tieEvent is a bare Event used only to observe pop order among same-time
// pushes.
type tieEvent struct {
	t    float64
	name string
	log  *[]string
}

func (e *tieEvent) Time() float64     { return e.t }
func (e *tieEvent) Dt() float64       { return 0 }
func (e *tieEvent) Enqueue(part.Part) {}
func (e *tieEvent) Run()              { *e.log = append(*e.log, e.name) }

func scenarioS5() error {
	var log []string
	sim := simulator.New(integrator.Euler{})
	for _, name := range []string{"E1", "E2", "E3"} {
		sim.PushEvent(&tieEvent{t: 5, name: name, log: &log})
	}
	sim.Run()

	fmt.Printf("S5: pop order = %v\n", log)
	return nil
}

// freeFallPart integrates dv/dt = -9.8, a constant independent of v, via the
// snapshot/push/update/finalize/multiply hook sequence RungeKutta drives.
type freeFallPart struct {
	part.Timed
	v, vSnap, d, stack float64
}

func (p *freeFallPart) Init(sampling.Sampler) {}
func (p *freeFallPart) Snapshot()              { p.vSnap = p.v }
func (p *freeFallPart) PushDerivative() {
	p.d = -9.8
	p.stack = p.d
}
func (p *freeFallPart) Integrate()                   { p.v = p.vSnap + p.GetEvent().Dt()*p.d }
func (p *freeFallPart) UpdateDerivative()             { p.d = -9.8 }
func (p *freeFallPart) FinalizeDerivative()           {}
func (p *freeFallPart) MultiplyAddToStack(s float64)  { p.stack += s * p.d }
func (p *freeFallPart) AddToMembers() {
	p.stack += p.d
	p.d = p.stack
	p.stack = 0
}
func (p *freeFallPart) Multiply(s float64) { p.d *= s }
func (p *freeFallPart) Restore()           {}

func scenarioS6() error {
	p := &freeFallPart{}
	p.Bind(p)

	st := event.NewStep(0, 0.1, integrator.RungeKutta{})
	st.Enqueue(p)
	for i := 0; i < 10; i++ {
		st.Run()
	}

	fmt.Printf("S6: v after 10 steps of dt=0.1 under dv/dt=-9.8 = %.9f\n", p.v)
	return nil
}

// scenarioConnect runs the "chain" preset's connection-matching pass and
// reports the edges each connection accepted, demonstrating the max-degree
// matching algorithm scenario S4 exercises at the population level.
func scenarioConnect() error {
	cfg := netdoc.Presets["chain"]
	sampler := sampling.New(cfg.Run.Seed)
	net, err := netdoc.Build(cfg, nil, sampler)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(net.Accepted))
	for name := range net.Accepted {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Printf("connect: %s -> %d accepted edges\n", name, len(*net.Accepted[name]))
	}
	return nil
}

// runPlot reads a trace.TabSink-written file's header and rows directly
// (the sink itself is write-only) and plots one named column.
func runPlot(cmd *cobra.Command, args []string) error {
	if plotColumn == "" {
		return errors.New("--column is required")
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return fmt.Errorf("empty trace file: %s", args[0])
	}
	header := strings.Split(scanner.Text(), "\t")

	col := -1
	for i, name := range header {
		if name == plotColumn {
			col = i
			break
		}
	}
	if col == -1 {
		return fmt.Errorf("column %q not found (available: %v)", plotColumn, header[1:])
	}

	var values []float64
	for scanner.Scan() {
		cells := strings.Split(scanner.Text(), "\t")
		if col >= len(cells) || cells[col] == "" {
			continue
		}
		v, err := strconv.ParseFloat(cells[col], 64)
		if err != nil {
			continue
		}
		values = append(values, v)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if len(values) == 0 {
		return fmt.Errorf("column %q has no recorded values", plotColumn)
	}

	fmt.Println(asciigraph.Plot(values, asciigraph.Height(12), asciigraph.Caption(plotColumn)))
	return nil
}
