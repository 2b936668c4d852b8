// Package main implements the phenolphthalein CLI tool.
//
// phenolphthalein drives a concurrency litmus test module through
// repeated iterations under a configurable synchroniser and permuter,
// accumulating a histogram of observed final states. It works with
// either an in-process built-in module (--module=builtin:NAME) or a
// dynamically loaded Go plugin (--module=PATH) implementing the
// test-module contract.
//
// Usage:
//
//	phenolphthalein run --module=builtin:sb --iterations=100000
//	phenolphthalein run --config=litmus.toml --module=plugins/sb.so
//	phenolphthalein build --module=testdata/sb --output=sb.so
//	phenolphthalein version
//
// This is the CLI entry point for the litmus test runner.
package main

import (
	"fmt"
	"os"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "run":
		runCommand(os.Args[2:])
	case "build":
		buildCommand(os.Args[2:])
	case "version", "--version", "-v":
		fmt.Printf("phenolphthalein version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`phenolphthalein - concurrency litmus test runner

USAGE:
    phenolphthalein <command> [arguments]

COMMANDS:
    run        Run a litmus test module and report observed states
    build      Compile a litmus test module's source into a Go plugin
    version    Show version information
    help       Show this help message

RUN FLAGS:
    --config=PATH            Load a TOML config file before applying the
                              flags below as overrides.
    --module=PATH             Path to a compiled Go plugin, or
                              builtin:NAME for an in-process test module
                              (builtin:sb, builtin:reseed, builtin:always-pass,
                              builtin:always-fail).
    --iterations=N            Iteration cap (0 = unbounded).
    --period=N                Thread-rotation period (0 = never).
    --sync=STRATEGY           spinner, spin-barrier, or barrier.
    --permute=STRATEGY        static or random.
    --seed1=N --seed2=N       Seed pair for --permute=random.
    --check=POLICY            disable, report, exit-on-pass, exit-on-fail,
                              or exit-on-unknown.
    --output-type=FORMAT      histogram or json.
    --dump-config             Print the fully resolved configuration as
                              TOML to stdout and exit without running.

BUILD FLAGS:
    --module=DIR              Directory containing the litmus test
                              module's source and go.mod.
    --output=PATH             Where to write the compiled plugin.
    --engine-version=VERSION  Engine require directive's version.
    --replace=DIR             Point the engine require at a local
                              checkout instead (development builds).

EXAMPLES:
    phenolphthalein run --module=builtin:sb --iterations=1000000 --period=1000
    phenolphthalein run --config=litmus.toml --output-type=json
    phenolphthalein build --module=./testmodules/sb --output=sb.so

ABOUT:
    phenolphthalein runs a test module's racy access pattern across a
    configurable number of worker threads and iterations, recording
    every distinct final state it observes along with the module's
    accept/reject classification of that state. Low-latency
    synchronisation (the default spinner strategy) and thread-rotation
    across epochs both exist to surface weak memory behaviours that a
    naive scheduler would rarely hit.

`)
}
