package module

import (
	"testing"

	"github.com/MattWindsor91/phenolphthalein/internal/litmus/env"
)

type fakeModule struct {
	manifest ManifestData
}

func (f fakeModule) Manifest() ManifestData { return f.manifest }
func (f fakeModule) Test(_ int, _ *env.Env) {}
func (f fakeModule) Check(_ *env.Env) bool  { return true }

func TestRegistryRegisterLookup(t *testing.T) {
	r := NewRegistry()
	m := fakeModule{manifest: ManifestData{NThreads: 2}}
	r.Register("sb", m)

	got, ok := r.Lookup("sb")
	if !ok {
		t.Fatalf("Lookup(sb) not found")
	}
	if got.Manifest().NThreads != 2 {
		t.Fatalf("Lookup(sb).Manifest().NThreads = %d, want 2", got.Manifest().NThreads)
	}

	if _, ok := r.Lookup("missing"); ok {
		t.Fatalf("Lookup(missing) should not be found")
	}
}

func TestRegistryNames(t *testing.T) {
	r := NewRegistry()
	r.Register("a", fakeModule{})
	r.Register("b", fakeModule{})
	names := r.Names()
	if len(names) != 2 {
		t.Fatalf("Names() = %v, want 2 entries", names)
	}
}

func TestManifestDataToManifest(t *testing.T) {
	d := ManifestData{
		NThreads:            2,
		AtomicInt32Names:    []string{"x", "y"},
		AtomicInt32Initials: []int32{0, 0},
		Int32Names:          []string{"0:r0", "1:r0"},
		Int32Initials:       []int32{0, 0},
	}
	m, err := d.ToManifest()
	if err != nil {
		t.Fatalf("ToManifest() error = %v", err)
	}
	if m.NThreads != 2 || len(m.AtomicInt32s) != 2 || len(m.Int32s) != 2 {
		t.Fatalf("ToManifest() = %+v", m)
	}
}

func TestManifestDataToManifestInvalid(t *testing.T) {
	d := ManifestData{NThreads: 0}
	if _, err := d.ToManifest(); err == nil {
		t.Fatalf("ToManifest() with zero threads should error")
	}
}
