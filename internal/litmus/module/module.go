// Package module defines the contract between the engine and a
// compiled litmus test, and the two ways the engine obtains one: an
// in-process Registry (for built-in and example tests) or a dynamically
// loaded Go plugin (for externally compiled ones).
//
// The engine never interprets a module's code; it only calls the three
// entry points Module exposes, per spec.md §4.M.
package module

import (
	"plugin"

	"github.com/pkg/errors"

	"github.com/MattWindsor91/phenolphthalein/internal/litmus/env"
	"github.com/MattWindsor91/phenolphthalein/internal/litmus/manifest"
)

// ManifestData is the plugin-exported form of a manifest: plain Go
// slices instead of the raw C pointers spec.md §6 specifies for the
// bit-exact C ABI. See SPEC_FULL.md's TEST-MODULE CONTRACT section for
// why this rewrite renders the ABI this way.
type ManifestData struct {
	NThreads int

	AtomicInt32Names    []string
	AtomicInt32Initials []int32

	Int32Names    []string
	Int32Initials []int32
}

// ToManifest converts the plugin-exported ManifestData into the
// engine's internal manifest.Manifest.
func (d ManifestData) ToManifest() (manifest.Manifest, error) {
	m := manifest.Manifest{
		NThreads:     d.NThreads,
		AtomicInt32s: zipRecords(d.AtomicInt32Names, d.AtomicInt32Initials),
		Int32s:       zipRecords(d.Int32Names, d.Int32Initials),
	}
	if err := m.Validate(); err != nil {
		return manifest.Manifest{}, err
	}
	return m, nil
}

func zipRecords(names []string, initials []int32) []manifest.CellRecord {
	recs := make([]manifest.CellRecord, len(names))
	for i, n := range names {
		var initial int32
		if i < len(initials) {
			initial = initials[i]
		}
		recs[i] = manifest.CellRecord{Name: n, Initial: initial}
	}
	return recs
}

// Module is the contract the engine requires from a loaded litmus
// test: a manifest, a per-thread dispatcher, and a postcondition.
type Module interface {
	// Manifest returns the test's static manifest.
	Manifest() ManifestData
	// Test executes thread tid's body against env. tid is in
	// [0, Manifest().NThreads).
	Test(tid int, env *env.Env)
	// Check classifies the environment's current state as accepted
	// (true) or rejected (false).
	Check(env *env.Env) bool
}

// Registry holds in-process modules by name, for built-in example
// tests and for engine tests that cannot shell out to
// `go build -buildmode=plugin`.
type Registry struct {
	modules map[string]Module
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]Module)}
}

// Register adds a module under the given name, replacing any module
// previously registered under it.
func (r *Registry) Register(name string, m Module) {
	r.modules[name] = m
}

// Lookup returns the module registered under name, if any.
func (r *Registry) Lookup(name string) (Module, bool) {
	m, ok := r.modules[name]
	return m, ok
}

// Names returns the names of all registered modules.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.modules))
	for n := range r.modules {
		names = append(names, n)
	}
	return names
}

// pluginSymbols names the exported symbols a plugin-based test module
// must provide, per SPEC_FULL.md's TEST-MODULE CONTRACT.
const (
	symManifest = "Manifest"
	symTest     = "Test"
	symCheck    = "Check"
)

// pluginModule adapts a dynamically loaded Go plugin's exported
// Manifest/Test/Check symbols to the Module interface.
type pluginModule struct {
	manifest ManifestData
	test     func(tid int, e *env.Env)
	check    func(e *env.Env) bool
}

func (m pluginModule) Manifest() ManifestData   { return m.manifest }
func (m pluginModule) Test(tid int, e *env.Env) { m.test(tid, e) }
func (m pluginModule) Check(e *env.Env) bool    { return m.check(e) }

// LoadPlugin opens the Go plugin at path and adapts its exported
// Manifest/Test/Check symbols into a Module.
func LoadPlugin(path string) (Module, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "module: opening plugin %s", path)
	}

	manifestSym, err := p.Lookup(symManifest)
	if err != nil {
		return nil, errors.Wrapf(err, "module: plugin %s missing %s symbol", path, symManifest)
	}
	manifestPtr, ok := manifestSym.(*ManifestData)
	if !ok {
		return nil, errors.Errorf("module: plugin %s: %s symbol has wrong type", path, symManifest)
	}

	testSym, err := p.Lookup(symTest)
	if err != nil {
		return nil, errors.Wrapf(err, "module: plugin %s missing %s symbol", path, symTest)
	}
	testFn, ok := testSym.(func(int, *env.Env))
	if !ok {
		return nil, errors.Errorf("module: plugin %s: %s symbol has wrong type", path, symTest)
	}

	checkSym, err := p.Lookup(symCheck)
	if err != nil {
		return nil, errors.Wrapf(err, "module: plugin %s missing %s symbol", path, symCheck)
	}
	checkFn, ok := checkSym.(func(*env.Env) bool)
	if !ok {
		return nil, errors.Errorf("module: plugin %s: %s symbol has wrong type", path, symCheck)
	}

	return pluginModule{
		manifest: *manifestPtr,
		test:     testFn,
		check:    checkFn,
	}, nil
}
