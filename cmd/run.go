package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/flowsim/flowsim/sim"
	"github.com/flowsim/flowsim/sim/scenario"
	"github.com/flowsim/flowsim/sim/trace"
)

var (
	seed     int64   // Seed override for the run
	speed    float64 // Real-time multiplier override; 0 or less runs fast-forward
	maxClock float64 // Simulated-time horizon override
	quiet    bool    // Suppress progress and summary rendering
)

// Summary styles.
var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00CC66")).Bold(true)
)

// runCmd executes a scenario end to end
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scenario",
	Run: func(cmd *cobra.Command, args []string) {
		sc := mustLoadScenario()
		opts := resolveOptions(cmd.Flags(), sc)

		graph, lookup := sc.Build()
		engine := sim.New(opts)
		if err := engine.Initialize(graph, lookup); err != nil {
			logrus.Fatalf("Initializing engine: %v", err)
		}
		recorder := trace.NewRecorder(trace.Config{})
		engine.Subscribe(recorder)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigChan
			fmt.Println("\nInterrupted, stopping run...")
			cancel()
		}()

		start := time.Now()
		err := driveEngine(ctx, engine, opts)
		if err != nil && ctx.Err() == nil {
			logrus.Fatalf("Run failed: %v", err)
		}
		if !quiet {
			printSummary(sc, engine, recorder, time.Since(start))
		}
	},
}

// resolveOptions merges the scenario's run parameters with CLI overrides.
// A flag wins only when it was set on the command line.
func resolveOptions(flags *pflag.FlagSet, sc *scenario.Scenario) sim.Options {
	opts := sc.Options()
	if flags.Changed("seed") {
		opts.Seed = seed
	}
	if flags.Changed("speed") {
		opts.Speed = speed
		if speed <= 0 {
			// Zero would read as "unset" downstream; any negative value
			// selects fast-forward.
			opts.Speed = -1
		}
	}
	if flags.Changed("max-clock") {
		opts.MaxClock = sim.Time(maxClock)
	}
	return opts
}

// driveEngine runs the engine and, for horizon-bounded fast-forward runs,
// a progress bar keyed to the simulated clock.
func driveEngine(ctx context.Context, engine *sim.Engine, opts sim.Options) error {
	g, ctx := errgroup.WithContext(ctx)
	done := make(chan struct{})
	g.Go(func() error {
		defer close(done)
		return engine.Run(ctx)
	})
	effSpeed := opts.Speed
	if effSpeed == 0 {
		effSpeed = 1 // the engine reads zero as unset and paces at 1x
	}
	if !quiet && opts.MaxClock > 0 && effSpeed <= 0 {
		g.Go(func() error {
			bar := clockProgress(int64(opts.MaxClock))
			ticker := time.NewTicker(100 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					_ = bar.Finish()
					return nil
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					_ = bar.Set64(int64(engine.Now()))
				}
			}
		})
	}
	return g.Wait()
}

// clockProgress renders simulated-clock progress against the horizon.
func clockProgress(horizon int64) *progressbar.ProgressBar {
	return progressbar.NewOptions64(horizon,
		progressbar.OptionSetDescription("simulating"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowBytes(false),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "",
			BarEnd:        "",
		}),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func printSummary(sc *scenario.Scenario, engine *sim.Engine, rec *trace.Recorder, elapsed time.Duration) {
	sum := trace.Summarize(rec)
	fmt.Println()
	fmt.Println(titleStyle.Render("Run complete"))
	fmt.Printf("  %s %s\n", labelStyle.Render("run:"), engine.RunID())
	fmt.Printf("  %s %.6g\n", labelStyle.Render("final clock:"), sum.FinalClock)
	fmt.Printf("  %s %d created, %d consumed, %d counter hits (%d events)\n",
		labelStyle.Render("entities:"), sum.CreatedCount, sum.ConsumedCount, sum.CounterHits, sum.TotalEvents)
	fmt.Printf("  %s %s\n", labelStyle.Render("wall time:"), elapsed.Round(time.Millisecond))

	for _, n := range sc.Nodes {
		if n.Role != "counter" {
			continue
		}
		snap, ok := engine.CounterStats(sim.NodeID(n.ID))
		if !ok {
			continue
		}
		fmt.Println()
		fmt.Println(valueStyle.Render("counter " + n.ID))
		fmt.Printf("  %s %d\n", labelStyle.Render("total:"), snap.TotalCount)
		for _, entityType := range sortedKeys(snap.CountByType) {
			fmt.Printf("  %s %s=%d\n", labelStyle.Render("by type:"), entityType, snap.CountByType[entityType])
		}
		if snap.InterArrival.Count > 0 {
			fmt.Printf("  %s mean=%.4g min=%.4g max=%.4g stddev=%.4g\n",
				labelStyle.Render("inter-arrival:"),
				snap.InterArrival.Mean, snap.InterArrival.Min, snap.InterArrival.Max, snap.InterArrival.StdDev)
		}
		fmt.Printf("  %s %.4g per unit over window %g\n",
			labelStyle.Render("throughput:"), snap.Throughput, float64(snap.Window))
	}
}

func sortedKeys(m map[string]uint64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// addRunFlags binds the run flags to their package variables. Registration
// resets each variable to its default, which tests rely on.
func addRunFlags(flags *pflag.FlagSet) {
	flags.Int64Var(&seed, "seed", 42, "Seed for random variate generation")
	flags.Float64Var(&speed, "speed", 1.0, "Real-time multiplier (0 or less runs fast-forward)")
	flags.Float64Var(&maxClock, "max-clock", 0, "Stop once the next event passes this simulated time (0 = unbounded)")
	flags.BoolVar(&quiet, "quiet", false, "Suppress progress and summary output")
}

// init sets up run flags and attaches the subcommand
func init() {
	addRunFlags(runCmd.Flags())
	rootCmd.AddCommand(runCmd)
}
