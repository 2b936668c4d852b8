// run.go implements the 'phenolphthalein run' command.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/MattWindsor91/phenolphthalein/internal/litmus/aggregate"
	"github.com/MattWindsor91/phenolphthalein/internal/litmus/builtin"
	"github.com/MattWindsor91/phenolphthalein/internal/litmus/config"
	"github.com/MattWindsor91/phenolphthalein/internal/litmus/module"
	"github.com/MattWindsor91/phenolphthalein/internal/litmus/permute"
	"github.com/MattWindsor91/phenolphthalein/internal/litmus/report"
	"github.com/MattWindsor91/phenolphthalein/internal/litmus/runner"
	syncer "github.com/MattWindsor91/phenolphthalein/internal/litmus/sync"
	"github.com/MattWindsor91/phenolphthalein/internal/litmus/worker"
)

// Exit codes, per spec.md §6: 0 on clean completion including
// cancellation-drain and policy stops, non-zero on fatal engine
// errors.
const (
	exitOK            = 0
	exitConfigError   = 1
	exitResourceError = 2
	exitContractError = 3
)

func runCommand(args []string) {
	flags, configPath, dumpConfig, err := parseRunArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitConfigError)
	}

	cfg := config.Default()
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", configPath, err)
			os.Exit(exitConfigError)
		}
		cfg, err = config.ParseConfig(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitConfigError)
		}
	}
	cfg = cfg.Override(flags)

	if dumpConfig {
		fmt.Print(cfg.String())
		return
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitConfigError)
	}

	mod, err := resolveModule(cfg.ModulePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitConfigError)
	}

	m, err := mod.Manifest().ToManifest()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid module manifest: %v\n", err)
		os.Exit(exitConfigError)
	}

	syncNew, err := syncFactory(cfg.Sync)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitConfigError)
	}

	checkMode := worker.CheckEnabled
	if cfg.Check == config.CheckDisable {
		checkMode = worker.CheckDisabled
	}

	exitOn, exitEnabled := cfg.ExitOutcome()

	r, err := runner.Builder{
		Module:       mod,
		SyncNew:      syncNew,
		Permuter:     permuter(cfg),
		Check:        checkMode,
		ExitPolicy:   aggregate.ExitPolicy{Enabled: exitEnabled, On: exitOn},
		RotatePeriod: cfg.Period,
		IterationCap: cfg.Iterations,
	}.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitConfigError)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		if _, ok := <-sigCh; ok {
			r.Cancel()
		}
	}()

	result, err := r.Run()
	signal.Stop(sigCh)
	close(sigCh)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitResourceError)
	}

	rep := report.Build(m, result.Total, result.Entries)
	if writeErr := writeReport(os.Stdout, cfg.Output, rep); writeErr != nil {
		fmt.Fprintf(os.Stderr, "Error writing report: %v\n", writeErr)
	}

	if result.FatalErr != nil {
		fmt.Fprintf(os.Stderr, "Fatal: %v\n", result.FatalErr)
		os.Exit(exitContractError)
	}
}

func writeReport(w *os.File, kind config.OutputKind, rep report.Report) error {
	if kind == config.OutputJSON {
		return report.WriteJSON(w, rep)
	}
	return report.WriteHistogram(w, rep)
}

func resolveModule(path string) (module.Module, error) {
	if path == "" {
		return nil, errors.New("--module is required (a plugin path, or builtin:NAME)")
	}
	if name, ok := strings.CutPrefix(path, "builtin:"); ok {
		m, ok := builtin.Registry().Lookup(name)
		if !ok {
			return nil, errors.Errorf("no such builtin module %q", name)
		}
		return m, nil
	}
	return module.LoadPlugin(path)
}

func syncFactory(kind config.SyncKind) (syncer.Factory, error) {
	switch kind {
	case config.SyncSpinner:
		return syncer.NewSpinner, nil
	case config.SyncSpinBarrier:
		return syncer.NewSpinBarrier, nil
	case config.SyncBarrier:
		return syncer.NewBarrier, nil
	default:
		return nil, errors.Errorf("unrecognised sync strategy %q", kind)
	}
}

func permuter(cfg config.Config) permute.Permuter {
	if cfg.Permute == config.PermuteRandom {
		return permute.NewRandom(cfg.Seed1, cfg.Seed2)
	}
	return permute.Static{}
}

// parseRunArgs scans args for --key=value flags (per spec.md §6's CLI
// surface), returning the parsed overlay config, a separate --config
// path, and whether --dump-config was requested.
func parseRunArgs(args []string) (overlay config.Config, configPath string, dumpConfig bool, err error) {
	for _, arg := range args {
		if arg == "--dump-config" {
			dumpConfig = true
			continue
		}
		key, value, ok := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if !ok || !strings.HasPrefix(arg, "--") {
			return config.Config{}, "", false, errors.Errorf("unrecognised argument %q", arg)
		}
		switch key {
		case "config":
			configPath = value
		case "module":
			overlay.ModulePath = value
		case "iterations":
			overlay.Iterations, err = parseNonNegative(key, value)
		case "period":
			overlay.Period, err = parseNonNegative(key, value)
		case "sync":
			overlay.Sync = config.SyncKind(value)
		case "permute":
			overlay.Permute = config.PermuteKind(value)
		case "check":
			overlay.Check = config.CheckKind(value)
		case "output-type":
			overlay.Output = config.OutputKind(value)
		case "seed1":
			overlay.Seed1, err = parseUint64(key, value)
		case "seed2":
			overlay.Seed2, err = parseUint64(key, value)
		default:
			err = errors.Errorf("unrecognised flag --%s", key)
		}
		if err != nil {
			return config.Config{}, "", false, err
		}
	}
	return overlay, configPath, dumpConfig, nil
}

func parseNonNegative(flag, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, errors.Errorf("--%s requires a non-negative integer, got %q", flag, value)
	}
	return n, nil
}

func parseUint64(flag, value string) (uint64, error) {
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, errors.Errorf("--%s requires an unsigned integer, got %q", flag, value)
	}
	return n, nil
}
