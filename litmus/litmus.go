// Package litmus is the public surface a litmus test module's source
// compiles against: the environment and manifest types that cross the
// plugin ABI boundary described in SPEC_FULL.md's TEST-MODULE
// CONTRACT. It is the thin public wrapper over internal/litmus/{env,
// module}, the same role race/api.go plays over
// internal/race/api for this module's teacher.
//
// A litmus test module is a separate Go module built with
// `go build -buildmode=plugin` (see cmd/phenolphthalein/pluginbuild);
// it can only import this package, never anything under internal/.
package litmus

import (
	"github.com/MattWindsor91/phenolphthalein/internal/litmus/env"
	"github.com/MattWindsor91/phenolphthalein/internal/litmus/module"
)

// Env is the raw, directly addressable cell arrays a test module's
// dispatcher and checker operate on.
type Env = env.Env

// AtomicCell is one atomic int32 slot in an Env.
type AtomicCell = env.AtomicCell

// Ordering selects the memory ordering of an atomic access.
type Ordering = env.Ordering

// Memory orderings a test module may request for an atomic access.
// See the doc comment on internal/litmus/env.Ordering for why all four
// compile down to the same sequentially-consistent operation.
const (
	Relaxed = env.Relaxed
	Acquire = env.Acquire
	Release = env.Release
	SeqCst  = env.SeqCst
)

// ManifestData is the plugin-exported form of a manifest: a module's
// `var Manifest litmus.ManifestData` declares its thread count and
// cell layout.
type ManifestData = module.ManifestData
