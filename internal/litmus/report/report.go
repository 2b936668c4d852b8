// Package report renders a finished run's histogram as either a
// coloured text table or a JSON document, and stamps it with a run ID
// and the host's CPU topology. Grounded on
// original_source/src/ux/{report,out/histo,out/json}.rs.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/MattWindsor91/phenolphthalein/internal/litmus/aggregate"
	"github.com/MattWindsor91/phenolphthalein/internal/litmus/manifest"
	"github.com/MattWindsor91/phenolphthalein/internal/litmus/outcome"
)

// Host captures the hardware facts worth recording alongside a
// histogram: the original's motivation for rotating threads
// (spec.md §4.R) is hardware-dependent, so reports carry enough
// context to sanity-check n_threads against it.
type Host struct {
	LogicalCPUs int      `json:"logical_cpus"`
	ModelNames  []string `json:"model_names"`
}

// DetectHost queries the local machine's CPU topology via gopsutil.
// Errors are swallowed into a zero-value Host — host info is
// diagnostic, never load-bearing for the run's correctness.
func DetectHost() Host {
	infos, err := cpu.Info()
	if err != nil {
		return Host{}
	}
	names := make([]string, 0, len(infos))
	total := 0
	for _, info := range infos {
		names = append(names, info.ModelName)
		total += int(info.Cores)
	}
	if total == 0 {
		total = len(infos)
	}
	return Host{LogicalCPUs: total, ModelNames: names}
}

// StateInfo is one histogram row rendered for output: the observed
// cell values by name, the classification, and how many times it
// occurred.
type StateInfo struct {
	Values  []NamedValue    `json:"values"`
	Outcome outcome.Outcome `json:"outcome"`
	Occurs  int             `json:"occurs"`
}

// NamedValue pairs a manifest-declared cell name with its observed
// value in one state.
type NamedValue struct {
	Name  string `json:"name"`
	Value int32  `json:"value"`
}

// Report is the final, renderable product of a completed run.
type Report struct {
	RunID  uuid.UUID   `json:"run_id"`
	Host   Host        `json:"host"`
	Total  int         `json:"total"`
	States []StateInfo `json:"states"`
}

// Build converts an Aggregator's accumulated entries into a Report,
// naming each cell per m. RunID is generated fresh via
// github.com/google/uuid so repeated JSON-output invocations can be
// correlated by whoever is collecting them.
func Build(m manifest.Manifest, total int, entries []aggregate.Entry) Report {
	states := make([]StateInfo, 0, len(entries))
	for _, e := range entries {
		named := e.State.Named(m)
		values := make([]NamedValue, len(named))
		for i, nv := range named {
			values[i] = NamedValue{Name: nv.Name, Value: nv.Value}
		}
		states = append(states, StateInfo{Values: values, Outcome: e.Outcome, Occurs: e.Occurs})
	}
	return Report{
		RunID:  uuid.New(),
		Host:   DetectHost(),
		Total:  total,
		States: states,
	}
}

// sigil returns the histogram's original pass/fail/unknown marker
// (ux/out/histo.rs) for an Outcome.
func sigil(o outcome.Outcome) string {
	switch o {
	case outcome.Accepted:
		return "*"
	case outcome.Rejected:
		return ":"
	default:
		return "?"
	}
}

// sigilColor returns the fatih/color printer for a sigil, matching
// the original's green/red/yellow convention.
func sigilColor(o outcome.Outcome) *color.Color {
	switch o {
	case outcome.Accepted:
		return color.New(color.FgGreen)
	case outcome.Rejected:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgYellow)
	}
}

// WriteHistogram renders r as an aligned, coloured text table.
func WriteHistogram(w io.Writer, r Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "run\t%s\n", r.RunID)
	fmt.Fprintf(tw, "host\t%d logical CPUs\n", r.Host.LogicalCPUs)
	fmt.Fprintf(tw, "total\t%d\n", r.Total)
	fmt.Fprintln(tw)

	for _, s := range r.States {
		sig := sigilColor(s.Outcome).Sprint(sigil(s.Outcome))
		fmt.Fprintf(tw, "%s\t%s\t%d\n", sig, formatValues(s.Values), s.Occurs)
	}

	return tw.Flush()
}

func formatValues(values []NamedValue) string {
	out := ""
	for i, v := range values {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s=%d", v.Name, v.Value)
	}
	return out
}

// WriteJSON renders r as a JSON document, for --output-type=json.
func WriteJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
