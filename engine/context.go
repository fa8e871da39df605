package engine

import (
	"github.com/dop251/goja"
	"github.com/sirupsen/logrus"

	"github.com/lightsourceengine/jjs-go/module"
	"github.com/lightsourceengine/jjs-go/pmap"
	"github.com/lightsourceengine/jjs-go/platform"
)

// Context is the top-level, embedder-owned handle: one platform facade,
// one optional package map, one config, and a set of host callback
// slots that every Realm it creates shares, matching spec.md §2 C11's
// "per-context module cache roots" framing generalized from "one VU
// per test iteration" (moio-k6's ModuleResolver/VU shape) to "one
// Context per embedder-created engine instance".
type Context struct {
	// Platform is the filesystem/stdio facade every Realm's default
	// resolver and loader reads through.
	Platform platform.Platform
	// Config is the assembled engine configuration (see LoadConfig).
	Config Config
	// Log receives debug/warn/error events from every package a Realm
	// wires; nil falls back to logrus.StandardLogger().
	Log *logrus.Entry

	// OnModuleStateChanged, if set, is informed of each module.State
	// string this Context's realms produce for diagnostic/observability
	// purposes; it is not load-bearing for evaluation itself, since
	// goja.ModuleRecord/CyclicModuleRecord own the actual state machine.
	OnModuleStateChanged func(path string, state module.State)
	// OnImportMeta, if set, receives the populated import.meta object
	// the first time a module's metadata is computed.
	OnImportMeta func(mod goja.ModuleRecord, meta *goja.Object)
	// OnImport, if set, is informed of every dynamic import(specifier)
	// call before it's dispatched.
	OnImport func(specifier, userValue string)
	// OnResolve/OnLoad override the default filesystem resolver/loader
	// chain; leaving either nil falls back to DefaultResolver bound to
	// Platform/pmap, per DESIGN.md OQ-C.
	OnResolve module.ResolveFunc
	OnLoad    module.LoadFunc

	pmap *pmap.Map
}

// NewContext returns a Context backed by pf and cfg. pf must not be nil;
// cfg may be the zero value (equivalent to DefaultConfig()).
func NewContext(pf platform.Platform, cfg Config) *Context {
	return &Context{Platform: pf, Config: cfg}
}

// LoadPackageMap parses text as a package map rooted at cfg.PmapRoot (or
// root if non-empty) and installs it as this Context's default package
// map, consulted for package specifiers by the default resolver of every
// Realm created after this call; realms created earlier keep the map
// they were created with. Passing an explicit root overrides
// Config.PmapRoot.
func (c *Context) LoadPackageMap(text string, root string) error {
	if root == "" {
		root = c.Config.PmapRoot
	}
	m, err := pmap.Load(text, root, c.Platform)
	if err != nil {
		return err
	}
	c.pmap = m
	return nil
}

// PackageMap returns the Context's currently installed package map, or
// nil if none has been loaded.
func (c *Context) PackageMap() *pmap.Map {
	return c.pmap
}

// NewRealm creates a fresh Realm: a new goja.Runtime plus independent
// commonjs_cache/esm_cache/vmod_cache, with require/import/
// queueMicrotask/vmod installed as globals.
func (c *Context) NewRealm() (*Realm, error) {
	return c.newRealm()
}
