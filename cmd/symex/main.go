// Command symex is the CLI driver for the symbolic execution engine. Per
// spec.md §1 the driver is an external collaborator: it loads a project,
// builds the initial state and path, calls the engine's Run, and formats
// results - it never reaches into executor internals directly.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/archsymex/symex/pkg/config"
)

var version = "0.1.0"

func main() {
	var cfgPath string

	rootCmd := &cobra.Command{
		Use:     "symex",
		Short:   "Symbolic execution engine for compiled binaries and LLVM IR",
		Version: version,
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Path to a symex.yaml config file")

	var watch bool
	var metricsAddr string
	runCmd := &cobra.Command{
		Use:   "run <binary-or-bitcode>",
		Short: "Explore every path of the given program and report results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(args[0], cfgPath, metricsAddr)
		},
	}
	runCmd.Flags().BoolVarP(&watch, "watch", "w", false, "Re-run exploration whenever the target file changes on disk")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Address to expose Prometheus metrics on (e.g. :9090); empty disables metrics")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(newQueryCmd())

	runCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if watch {
			return watchAndRun(args, cfgPath, metricsAddr)
		}
		return runOnce(args[0], cfgPath, metricsAddr)
	}

	if err := rootCmd.Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

func runOnce(target, cfgPath, metricsAddr string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}

	report, err := Explore(target, cfg)
	if err != nil {
		return err
	}
	fmt.Print(report)
	return nil
}

// watchAndRun re-runs runOnce every time target's containing directory
// reports a write/create event for a file with target's base name,
// debounced the way the teacher's hot reload manager debounces editor
// auto-saves.
func watchAndRun(args []string, cfgPath, metricsAddr string) error {
	if len(args) != 1 {
		return fmt.Errorf("symex: --watch requires exactly one target file")
	}
	target := args[0]

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("symex: creating watcher: %w", err)
	}
	defer watcher.Close()

	dir := dirOf(target)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("symex: watching %s: %w", dir, err)
	}

	run := func() {
		if err := runOnce(target, cfgPath, metricsAddr); err != nil {
			printError(err)
		}
	}
	run()

	const debounce = 200 * time.Millisecond
	var timer *time.Timer
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if baseOf(event.Name) != baseOf(target) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, run)
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			printError(werr)
		}
	}
}

func printError(err error) {
	fmt.Fprintln(os.Stderr, color.New(color.FgRed, color.Bold).Sprintf("symex: %v", err))
}
