package config

import (
	"strings"
	"testing"

	"github.com/MattWindsor91/phenolphthalein/internal/litmus/outcome"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
}

func TestValidateRejectsUnknownEnums(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"sync", Config{Sync: "bogus", Permute: PermuteStatic, Check: CheckReport, Output: OutputHistogram}},
		{"permute", Config{Sync: SyncSpinner, Permute: "bogus", Check: CheckReport, Output: OutputHistogram}},
		{"check", Config{Sync: SyncSpinner, Permute: PermuteStatic, Check: "bogus", Output: OutputHistogram}},
		{"output", Config{Sync: SyncSpinner, Permute: PermuteStatic, Check: CheckReport, Output: "bogus"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); err == nil {
				t.Fatalf("Validate() should reject %+v", tt.cfg)
			}
		})
	}
}

func TestExitOutcome(t *testing.T) {
	tests := []struct {
		check   CheckKind
		want    outcome.Outcome
		wantSet bool
	}{
		{CheckExitOnPass, outcome.Accepted, true},
		{CheckExitOnFail, outcome.Rejected, true},
		{CheckExitOnUnknown, outcome.Unknown, true},
		{CheckReport, outcome.Accepted, false},
		{CheckDisable, outcome.Accepted, false},
	}
	for _, tt := range tests {
		c := Config{Check: tt.check}
		got, ok := c.ExitOutcome()
		if ok != tt.wantSet || (ok && got != tt.want) {
			t.Fatalf("ExitOutcome(%v) = (%v,%v), want (%v,%v)", tt.check, got, ok, tt.want, tt.wantSet)
		}
	}
}

func TestStringParseRoundTrip(t *testing.T) {
	c := Default()
	c.Iterations = 1000
	c.Period = 50
	c.Permute = PermuteRandom
	c.Seed1 = 7

	got, err := ParseConfig([]byte(c.String()))
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if got != c {
		t.Fatalf("round trip = %+v, want %+v", got, c)
	}
}

func TestParseConfigPartialFileKeepsDefaults(t *testing.T) {
	got, err := ParseConfig([]byte(`period = 10`))
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if got.Period != 10 {
		t.Fatalf("Period = %d, want 10", got.Period)
	}
	if got.Sync != SyncSpinner {
		t.Fatalf("Sync = %v, want default %v", got.Sync, SyncSpinner)
	}
}

func TestOverride(t *testing.T) {
	base := Default()
	base.Iterations = 100

	override := Config{Iterations: 500, Check: CheckExitOnFail}
	merged := base.Override(override)

	if merged.Iterations != 500 {
		t.Fatalf("Iterations = %d, want 500", merged.Iterations)
	}
	if merged.Check != CheckExitOnFail {
		t.Fatalf("Check = %v, want %v", merged.Check, CheckExitOnFail)
	}
	if merged.Sync != SyncSpinner {
		t.Fatalf("Sync = %v, want unchanged default %v", merged.Sync, SyncSpinner)
	}
}

func TestStringContainsIterations(t *testing.T) {
	c := Default()
	c.Iterations = 42
	if !strings.Contains(c.String(), "42") {
		t.Fatalf("String() = %q, want it to mention 42", c.String())
	}
}
