// Package manifest describes the compile-time shape of a litmus test:
// its thread count and the named, typed cells its environment carries.
//
// A Manifest is immutable once built and is shared read-only by every
// worker and by the environment it describes.
package manifest

import "github.com/pkg/errors"

// CellRecord names one cell and its initial value.
type CellRecord struct {
	// Name is the human-readable name of the cell, e.g. "x" or "0:r0".
	Name string
	// Initial is the value the cell is reset to before each iteration.
	Initial int32
}

// Manifest is the immutable description of a litmus test's shared
// environment and thread count.
//
// AtomicInt32s and Int32s preserve declaration order: the original
// Rust implementation keys these by name in a BTreeMap (so iteration
// order is alphabetical); this rewrite keeps the order the test module
// declared them in, since that order is already what a Go plugin's
// ManifestData struct naturally encodes as parallel slices.
type Manifest struct {
	// NThreads is the number of threads the test requires.
	NThreads int
	// AtomicInt32s is the ordered list of atomic 32-bit signed int cells.
	AtomicInt32s []CellRecord
	// Int32s is the ordered list of non-atomic 32-bit signed int cells.
	Int32s []CellRecord
}

// Reservation is the sizing step between "manifest decoded" and
// "storage allocated" for an Environment: a plain count of each cell
// kind, computed before any cell storage is allocated.
type Reservation struct {
	NAtomicInt32 int
	NInt32       int
}

// Reserve computes the storage Reservation implied by this Manifest.
func (m Manifest) Reserve() Reservation {
	return Reservation{
		NAtomicInt32: len(m.AtomicInt32s),
		NInt32:       len(m.Int32s),
	}
}

// Validate checks the structural invariants a Manifest must hold
// before an engine can be built around it: at least one thread, and no
// duplicate cell names within either cell kind.
func (m Manifest) Validate() error {
	if m.NThreads <= 0 {
		return errors.New("manifest: n_threads must be at least 1")
	}
	if err := checkUniqueNames(m.AtomicInt32s); err != nil {
		return errors.Wrap(err, "manifest: atomic int32 cells")
	}
	if err := checkUniqueNames(m.Int32s); err != nil {
		return errors.Wrap(err, "manifest: int32 cells")
	}
	return nil
}

func checkUniqueNames(recs []CellRecord) error {
	seen := make(map[string]struct{}, len(recs))
	for _, r := range recs {
		if _, ok := seen[r.Name]; ok {
			return errors.Errorf("duplicate cell name %q", r.Name)
		}
		seen[r.Name] = struct{}{}
	}
	return nil
}

// AtomicInt32Names returns the declared names of the atomic int32
// cells, in declaration order.
func (m Manifest) AtomicInt32Names() []string {
	return names(m.AtomicInt32s)
}

// Int32Names returns the declared names of the non-atomic int32 cells,
// in declaration order.
func (m Manifest) Int32Names() []string {
	return names(m.Int32s)
}

func names(recs []CellRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Name
	}
	return out
}
