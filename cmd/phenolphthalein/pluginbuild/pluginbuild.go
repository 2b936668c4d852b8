// Package pluginbuild compiles a litmus test module's source into a
// Go plugin the engine can load with module.LoadPlugin. It patches
// the target's go.mod so it can import this module's litmus.Env/
// ManifestData types, then shells out to the Go toolchain, the same
// "patch go.mod, then build" shape
// cmd/racedetector/runtime/link.go uses to inject its own runtime
// into a user's build.
package pluginbuild

import (
	"os"
	"os/exec"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/mod/modfile"
)

// enginePath is this module's import path, the dependency a litmus
// test source file needs in order to reference litmus.Env and
// litmus.ManifestData.
const enginePath = "github.com/MattWindsor91/phenolphthalein"

// Options configures a Build.
type Options struct {
	// SourceDir is the directory containing the litmus test module's
	// source and go.mod.
	SourceDir string
	// OutputPath is where the compiled plugin (.so) is written.
	OutputPath string
	// EngineVersion is the require directive's version for this
	// module; tests built against a checked-out copy of the engine
	// use a replace directive instead (see ReplaceWithDir).
	EngineVersion string
	// ReplaceWithDir, if non-empty, adds a replace directive pointing
	// enginePath at a local checkout instead of a published version.
	ReplaceWithDir string
}

// Build patches opts.SourceDir's go.mod to require the engine, then
// invokes `go build -buildmode=plugin` to produce opts.OutputPath.
func Build(opts Options) error {
	modPath := filepath.Join(opts.SourceDir, "go.mod")

	if err := patchGoMod(modPath, opts); err != nil {
		return errors.Wrap(err, "pluginbuild: patching go.mod")
	}

	cmd := exec.Command("go", "build", "-buildmode=plugin", "-o", opts.OutputPath, ".")
	cmd.Dir = opts.SourceDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return errors.Wrap(err, "pluginbuild: go build -buildmode=plugin")
	}
	return nil
}

// patchGoMod ensures the target go.mod requires enginePath, adding
// a replace directive when opts.ReplaceWithDir is set.
func patchGoMod(modPath string, opts Options) error {
	data, err := os.ReadFile(modPath)
	if err != nil {
		return errors.Wrapf(err, "reading %s", modPath)
	}

	f, err := modfile.Parse(modPath, data, nil)
	if err != nil {
		return errors.Wrapf(err, "parsing %s", modPath)
	}

	version := opts.EngineVersion
	if version == "" {
		version = "v0.0.0"
	}
	if err := f.AddRequire(enginePath, version); err != nil {
		return errors.Wrap(err, "adding require directive")
	}

	if opts.ReplaceWithDir != "" {
		if err := f.AddReplace(enginePath, "", opts.ReplaceWithDir, ""); err != nil {
			return errors.Wrap(err, "adding replace directive")
		}
	}

	f.Cleanup()
	out, err := f.Format()
	if err != nil {
		return errors.Wrap(err, "formatting go.mod")
	}

	return os.WriteFile(modPath, out, 0o644)
}
