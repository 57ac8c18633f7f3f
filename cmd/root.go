package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/flowsim/flowsim/sim/scenario"
)

var (
	scenarioPath string // Scenario YAML path
	logLevel     string // Log verbosity level
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "flowsim",
	Short: "Discrete-event simulator for entity flow graphs",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// mustLoadScenario loads and validates the --scenario flag target, exiting
// on any failure.
func mustLoadScenario() *scenario.Scenario {
	if scenarioPath == "" {
		logrus.Fatalf("--scenario is required")
	}
	sc, err := scenario.Load(scenarioPath)
	if err != nil {
		logrus.Fatalf("Loading scenario: %v", err)
	}
	if err := sc.Validate(); err != nil {
		logrus.Fatalf("Invalid scenario %s: %v", scenarioPath, err)
	}
	return sc
}

// init sets up flags shared by every subcommand
func init() {
	rootCmd.PersistentFlags().StringVar(&scenarioPath, "scenario", "", "Scenario YAML path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
}
