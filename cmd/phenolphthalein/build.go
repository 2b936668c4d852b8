// build.go implements the 'phenolphthalein build' command.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/MattWindsor91/phenolphthalein/cmd/phenolphthalein/pluginbuild"
)

// buildCommand implements the 'phenolphthalein build' command: it
// compiles a litmus test module's source directory into a Go plugin
// the run command can load with --module=PATH.
func buildCommand(args []string) {
	opts, err := parseBuildArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := pluginbuild.Build(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Build failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Built successfully: %s\n", opts.OutputPath)
}

func parseBuildArgs(args []string) (pluginbuild.Options, error) {
	opts := pluginbuild.Options{}
	for _, arg := range args {
		key, value, ok := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if !ok || !strings.HasPrefix(arg, "--") {
			return pluginbuild.Options{}, errors.Errorf("unrecognised argument %q", arg)
		}
		switch key {
		case "module":
			opts.SourceDir = value
		case "output":
			opts.OutputPath = value
		case "engine-version":
			opts.EngineVersion = value
		case "replace":
			opts.ReplaceWithDir = value
		default:
			return pluginbuild.Options{}, errors.Errorf("unrecognised flag --%s", key)
		}
	}
	if opts.SourceDir == "" {
		return pluginbuild.Options{}, errors.New("--module is required (a directory containing the test module's source)")
	}
	if opts.OutputPath == "" {
		return pluginbuild.Options{}, errors.New("--output is required")
	}
	return opts, nil
}
