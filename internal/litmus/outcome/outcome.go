// Package outcome classifies an observed final state of a litmus test
// run against its postcondition.
package outcome

import "strings"

// Outcome is the classification of an observed State by a test's check.
//
// Outcomes are ordered by severity for check-policy evaluation: Unknown
// dominates Rejected dominates Accepted, mirroring the original
// implementation's Ord derivation and its documented `max` semantics
// (an iterator of outcomes reduces to Unknown if any is Unknown, else
// Rejected if any is Rejected, else Accepted).
type Outcome uint8

const (
	// Accepted means check(env) returned true.
	Accepted Outcome = iota
	// Rejected means check(env) returned false.
	Rejected
	// Unknown means the test declined to classify the state. Reserved
	// for future extension; a total check never produces it, but the
	// classification must remain representable.
	Unknown
)

const (
	stringAccepted = "accepted"
	stringRejected = "rejected"
	stringUnknown  = "unknown"
)

// String returns the lowercase name of the outcome.
func (o Outcome) String() string {
	switch o {
	case Accepted:
		return stringAccepted
	case Rejected:
		return stringRejected
	case Unknown:
		return stringUnknown
	default:
		return stringUnknown
	}
}

// Parse parses a string representation of an Outcome, case-insensitively.
func Parse(s string) (Outcome, bool) {
	switch strings.ToLower(s) {
	case stringAccepted:
		return Accepted, true
	case stringRejected:
		return Rejected, true
	case stringUnknown:
		return Unknown, true
	default:
		return Unknown, false
	}
}

// FromPassBool converts a check's boolean result into an Outcome.
func FromPassBool(passed bool) Outcome {
	if passed {
		return Accepted
	}
	return Rejected
}

// All returns every representable Outcome.
func All() []Outcome {
	return []Outcome{Accepted, Rejected, Unknown}
}

// Reduce folds a sequence of outcomes down to the single most severe
// one, per the Unknown > Rejected > Accepted ordering. Reduce of an
// empty slice returns Accepted (the identity element: aggregating zero
// observations has produced no failure or indeterminacy).
func Reduce(outcomes []Outcome) Outcome {
	result := Accepted
	for _, o := range outcomes {
		if o > result {
			result = o
		}
	}
	return result
}
