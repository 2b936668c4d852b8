// Package config defines the engine's resolved configuration: the
// permute/sync/check/iteration strategies spec.md §6's CLI surface
// exposes, an optional TOML file form, and the override-if-present
// merge between the two. Grounded on
// original_source/src/config/{top,clap,sync,permute,check}.rs.
package config

import (
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"

	"github.com/MattWindsor91/phenolphthalein/internal/litmus/outcome"
)

// SyncKind names a synchroniser strategy.
type SyncKind string

const (
	SyncSpinner     SyncKind = "spinner"
	SyncSpinBarrier SyncKind = "spin-barrier"
	SyncBarrier     SyncKind = "barrier"
)

// PermuteKind names a permuter strategy.
type PermuteKind string

const (
	PermuteStatic PermuteKind = "static"
	PermuteRandom PermuteKind = "random"
)

// CheckKind names a check policy.
type CheckKind string

const (
	CheckDisable       CheckKind = "disable"
	CheckReport        CheckKind = "report"
	CheckExitOnPass    CheckKind = "exit-on-pass"
	CheckExitOnFail    CheckKind = "exit-on-fail"
	CheckExitOnUnknown CheckKind = "exit-on-unknown"
)

// OutputKind names a report output format.
type OutputKind string

const (
	OutputHistogram OutputKind = "histogram"
	OutputJSON      OutputKind = "json"
)

// Config is the engine's fully resolved, serialisable configuration.
// Zero values correspond to spec.md's documented defaults except
// where noted.
type Config struct {
	// Iterations is the iteration cap; 0 means unbounded.
	Iterations int `toml:"iterations"`
	// Period is the thread-rotation period; 0 means never rotate.
	Period int `toml:"period"`

	Sync    SyncKind    `toml:"sync"`
	Permute PermuteKind `toml:"permute"`
	Check   CheckKind   `toml:"check"`
	Output  OutputKind  `toml:"output"`

	// Seed1/Seed2 seed the random permuter; ignored for Permute ==
	// PermuteStatic.
	Seed1 uint64 `toml:"seed1"`
	Seed2 uint64 `toml:"seed2"`

	// ModulePath is the path to a compiled Go plugin implementing the
	// test-module contract.
	ModulePath string `toml:"module"`
}

// Default returns the engine's default configuration: a spinner
// synchroniser, static permuter, and report-only check policy, per
// spec.md §4.S's "chosen by default" note on the spinner.
func Default() Config {
	return Config{
		Sync:    SyncSpinner,
		Permute: PermuteStatic,
		Check:   CheckReport,
		Output:  OutputHistogram,
	}
}

// Validate reports a configuration error (spec.md §7.1) for any
// unrecognised enum value or inconsistent combination.
func (c Config) Validate() error {
	switch c.Sync {
	case SyncSpinner, SyncSpinBarrier, SyncBarrier:
	default:
		return errors.Errorf("config: unrecognised sync strategy %q", c.Sync)
	}
	switch c.Permute {
	case PermuteStatic, PermuteRandom:
	default:
		return errors.Errorf("config: unrecognised permute strategy %q", c.Permute)
	}
	switch c.Check {
	case CheckDisable, CheckReport, CheckExitOnPass, CheckExitOnFail, CheckExitOnUnknown:
	default:
		return errors.Errorf("config: unrecognised check policy %q", c.Check)
	}
	switch c.Output {
	case OutputHistogram, OutputJSON:
	default:
		return errors.Errorf("config: unrecognised output type %q", c.Output)
	}
	if c.Iterations < 0 {
		return errors.New("config: iterations must be non-negative")
	}
	if c.Period < 0 {
		return errors.New("config: period must be non-negative")
	}
	return nil
}

// ExitOutcome returns the outcome.Outcome a --check=exit-on-* policy
// stops on, and whether the policy is stop-driven at all.
func (c Config) ExitOutcome() (outcome.Outcome, bool) {
	switch c.Check {
	case CheckExitOnPass:
		return outcome.Accepted, true
	case CheckExitOnFail:
		return outcome.Rejected, true
	case CheckExitOnUnknown:
		return outcome.Unknown, true
	default:
		return outcome.Accepted, false
	}
}

// String renders the configuration as TOML, the original's
// `Config.to_string` round trip (SPEC_FULL.md SUPPLEMENTED FEATURES).
func (c Config) String() string {
	b, err := toml.Marshal(c)
	if err != nil {
		return ""
	}
	return string(b)
}

// ParseConfig parses a TOML document into a Config, starting from
// Default() so a partial file only overrides the fields it mentions.
func ParseConfig(data []byte) (Config, error) {
	c := Default()
	if err := toml.Unmarshal(data, &c); err != nil {
		return Config{}, errors.Wrap(err, "config: parsing TOML")
	}
	return c, nil
}

// Override applies any non-zero field of o onto c, implementing the
// CLI-flags-override-file behaviour of config/clap.rs.
func (c Config) Override(o Config) Config {
	if o.Iterations != 0 {
		c.Iterations = o.Iterations
	}
	if o.Period != 0 {
		c.Period = o.Period
	}
	if o.Sync != "" {
		c.Sync = o.Sync
	}
	if o.Permute != "" {
		c.Permute = o.Permute
	}
	if o.Check != "" {
		c.Check = o.Check
	}
	if o.Output != "" {
		c.Output = o.Output
	}
	if o.Seed1 != 0 {
		c.Seed1 = o.Seed1
	}
	if o.Seed2 != 0 {
		c.Seed2 = o.Seed2
	}
	if o.ModulePath != "" {
		c.ModulePath = o.ModulePath
	}
	return c
}
