// Package vmod implements the per-realm virtual module registry: modules
// synthesized from Go or JS values rather than loaded from disk,
// registered either as a lazy factory or as a ready-made export object.
package vmod

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dop251/goja"
)

// formatObject is the only defined value of the vmod config "format"
// field; other values are rejected at registration time.
const formatObject = "object"

// cell is the registry entry: ready flags whether payload already holds
// the resolved exports, or whether factory still has to be invoked to
// produce them.
type cell struct {
	ready   bool
	payload goja.Value
	factory goja.Callable
}

// Registry is a per-realm virtual module table, exposed to JS as the
// host-installed `vmod` object (exists/resolve/remove).
type Registry struct {
	mu      sync.Mutex
	modules map[string]*cell
	rt      *goja.Runtime
}

// New returns an empty registry bound to rt, used to invoke factories.
func New(rt *goja.Runtime) *Registry {
	return &Registry{modules: make(map[string]*cell), rt: rt}
}

// Exists reports whether name has been registered.
func (r *Registry) Exists(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.modules[name]
	return ok
}

// Remove deletes a registration, returning false if it was not present.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.modules[name]; !ok {
		return false
	}
	delete(r.modules, name)
	return true
}

// Register adds name -> payload. payload must be either a callable
// (lazy factory) or a config object per the "object" format schema.
// Re-registering an already-present name is an error.
func (r *Registry) Register(name string, payload goja.Value) error {
	if !isValidPackageName(name) {
		return fmt.Errorf("invalid virtual module name %q", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.modules[name]; ok {
		return fmt.Errorf("virtual module %q is already registered", name)
	}

	if fn, ok := goja.AssertFunction(payload); ok {
		r.modules[name] = &cell{ready: false, factory: fn}
		return nil
	}

	exports, err := parseConfig(payload)
	if err != nil {
		return err
	}
	r.modules[name] = &cell{ready: true, payload: exports}
	return nil
}

// Resolve returns the export value for name, invoking its factory on
// first use and caching the result.
func (r *Registry) Resolve(name string) (goja.Value, error) {
	r.mu.Lock()
	c, ok := r.modules[name]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("virtual module %q is not registered", name)
	}

	if c.ready {
		return c.payload, nil
	}

	result, err := c.factory(goja.Undefined())
	if err != nil {
		return nil, err
	}

	exports, err := parseConfig(result)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	c.ready = true
	c.payload = exports
	r.mu.Unlock()

	return exports, nil
}

// parseConfig interprets a factory result or registration payload as a
// vmod config object: {format?: "object", exports: any}.
func parseConfig(v goja.Value) (goja.Value, error) {
	obj, ok := v.(*goja.Object)
	if !ok {
		return nil, errors.New("virtual module config must be an object")
	}

	format := formatObject
	if f := obj.Get("format"); f != nil && !goja.IsUndefined(f) {
		format = f.String()
	}
	if format != formatObject {
		return nil, fmt.Errorf("unsupported virtual module format %q", format)
	}

	exports := obj.Get("exports")
	if exports == nil || goja.IsUndefined(exports) {
		return nil, errors.New("virtual module config missing 'exports'")
	}
	return exports, nil
}

// isValidPackageName enforces npm-style name validity: length <= 214, no
// leading '.' or '_', lowercase only, restricted character set.
func isValidPackageName(name string) bool {
	if name == "" || len(name) > 214 {
		return false
	}
	if name[0] == '.' || name[0] == '_' {
		return false
	}
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_' || c == '.' || c == '@' || c == '/' || c == ':':
		default:
			return false
		}
	}
	return true
}
