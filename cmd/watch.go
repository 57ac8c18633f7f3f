package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/flowsim/flowsim/sim"
	"github.com/flowsim/flowsim/sim/scenario"
	"github.com/flowsim/flowsim/sim/trace"
)

// watchDebounce coalesces editor write bursts into one re-run.
const watchDebounce = 500 * time.Millisecond

var watchMu sync.Mutex

// watchCmd re-runs a scenario whenever its file changes
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run a scenario on every file change",
	Run: func(cmd *cobra.Command, args []string) {
		if scenarioPath == "" {
			logrus.Fatalf("--scenario is required")
		}
		absPath, err := filepath.Abs(scenarioPath)
		if err != nil {
			logrus.Fatalf("Resolving %s: %v", scenarioPath, err)
		}
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			logrus.Fatalf("Creating watcher: %v", err)
		}
		defer watcher.Close()
		// Watch the directory rather than the file: editors that write a
		// temp file and rename it would otherwise detach the watch.
		if err := watcher.Add(filepath.Dir(absPath)); err != nil {
			logrus.Fatalf("Watching %s: %v", filepath.Dir(absPath), err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigChan
			fmt.Println("\nInterrupted, stopping watch...")
			cancel()
		}()

		flags := cmd.Flags()
		watchRun(ctx, flags)
		fmt.Printf("watching %s for changes\n", absPath)

		var debounce *time.Timer
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				evPath, err := filepath.Abs(event.Name)
				if err != nil || evPath != absPath {
					continue
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(watchDebounce, func() { watchRun(ctx, flags) })
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logrus.Warnf("watch error: %v", err)
			}
		}
	},
}

// watchRun executes one run of the current scenario file, honoring the
// usual run flag overrides. Errors are reported without exiting so a
// mid-edit save cannot kill the watcher.
func watchRun(ctx context.Context, flags *pflag.FlagSet) {
	watchMu.Lock()
	defer watchMu.Unlock()
	if ctx.Err() != nil {
		return
	}

	sc, err := scenario.Load(scenarioPath)
	if err != nil {
		logrus.Errorf("Loading scenario: %v", err)
		return
	}
	if err := sc.Validate(); err != nil {
		logrus.Errorf("Invalid scenario %s: %v", scenarioPath, err)
		return
	}
	opts := resolveOptions(flags, sc)
	if !flags.Changed("speed") {
		opts.Speed = -1 // re-runs are for results; pace only on request
	}

	graph, lookup := sc.Build()
	engine := sim.New(opts)
	if err := engine.Initialize(graph, lookup); err != nil {
		logrus.Errorf("Initializing engine: %v", err)
		return
	}
	recorder := trace.NewRecorder(trace.Config{})
	engine.Subscribe(recorder)

	start := time.Now()
	if err := engine.Run(ctx); err != nil {
		if ctx.Err() == nil {
			logrus.Errorf("Run failed: %v", err)
		}
		return
	}
	if !quiet {
		printSummary(sc, engine, recorder, time.Since(start))
	}
}

func init() {
	addRunFlags(watchCmd.Flags())
	rootCmd.AddCommand(watchCmd)
}
