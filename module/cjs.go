package module

import (
	"fmt"

	"github.com/dop251/goja"

	jjspath "github.com/lightsourceengine/jjs-go/path"
	"github.com/lightsourceengine/jjs-go/vmod"
)

type cjsEntry struct {
	object *goja.Object
	loaded bool
}

// CJSLoader implements require(specifier) for a realm: resolve, consult
// the commonjs_cache, wrap and evaluate the source, and publish
// module.exports. The cache is realm-owned; a CJSLoader must not be
// shared across realms.
type CJSLoader struct {
	rt      *goja.Runtime
	resolve ResolveFunc
	load    LoadFunc
	vmod    *vmod.Registry
	cache   map[string]*cjsEntry
}

// NewCJSLoader returns a loader bound to rt using resolve/load for the
// resolver/loader chain. vm may be nil if no virtual modules are
// registered for the realm.
func NewCJSLoader(rt *goja.Runtime, resolve ResolveFunc, load LoadFunc, vm *vmod.Registry) *CJSLoader {
	return &CJSLoader{rt: rt, resolve: resolve, load: load, vmod: vm, cache: make(map[string]*cjsEntry)}
}

// Cache returns a copy of the commonjs_cache: path -> CommonJS module
// object (its exports are under the "exports" property).
// NewRequireFunction copies it into require.cache.
func (l *CJSLoader) Cache() map[string]*goja.Object {
	out := make(map[string]*goja.Object, len(l.cache))
	for path, e := range l.cache {
		out[path] = e.object
	}
	return out
}

// ResolvePath implements require.resolve(specifier): resolve only, no
// load or evaluate.
func (l *CJSLoader) ResolvePath(specifier, referrerDir string) (string, error) {
	res, err := l.resolve(specifier, ResolveOptions{ReferrerPath: referrerDir, Kind: KindCommonJS})
	if err != nil {
		return "", err
	}
	return res.Path, nil
}

// Require implements the CommonJS require(specifier) algorithm from a
// module whose directory is referrerDir.
func (l *CJSLoader) Require(specifier, referrerDir string) (*goja.Object, error) {
	if specifier == "" {
		return nil, ErrEmptySpecifier
	}

	if l.vmod != nil && l.vmod.Exists(specifier) {
		exports, err := l.vmod.Resolve(specifier)
		if err != nil {
			return nil, err
		}
		return exports.ToObject(l.rt), nil
	}

	res, err := l.resolve(specifier, ResolveOptions{ReferrerPath: referrerDir, Kind: KindCommonJS})
	if err != nil {
		return nil, err
	}

	// A cache hit with loaded == false means this path's top-level
	// function is still on the call stack (execution is synchronous and
	// single-threaded, so there's no other way for an unloaded entry to
	// be observable) - the classic CommonJS cycle case from S2. Return
	// whatever module.exports holds right now rather than failing;
	// Node's require() does the same.
	if entry, ok := l.cache[res.Path]; ok {
		return entry.object.Get("exports").ToObject(l.rt), nil
	}

	moduleObj := l.rt.NewObject()
	dirname, _ := jjspath.Dirname(res.Path)
	_ = moduleObj.Set("id", res.Path)
	_ = moduleObj.Set("filename", res.Path)
	_ = moduleObj.Set("path", dirname)
	_ = moduleObj.Set("exports", l.rt.NewObject())
	_ = moduleObj.Set("loaded", false)
	moduleObj.PreventExtensions()

	entry := &cjsEntry{object: moduleObj, loaded: false}
	l.cache[res.Path] = entry

	loadResult, err := l.load(res.Path, LoadOptions{Format: res.Format, Kind: KindCommonJS})
	if err != nil {
		delete(l.cache, res.Path)
		return nil, err
	}

	if execErr := l.execute(moduleObj, res.Path, dirname, loadResult); execErr != nil {
		delete(l.cache, res.Path)
		return nil, execErr
	}

	entry.loaded = true
	_ = moduleObj.Set("loaded", true)

	return moduleObj.Get("exports").ToObject(l.rt), nil
}

func (l *CJSLoader) execute(moduleObj *goja.Object, filename, dirname string, loadResult LoadResult) error {
	switch loadResult.Format {
	case FormatJS, FormatCommonJS:
		wrapped := "(function(module, exports, require, __filename, __dirname) {\n" +
			loadResult.Source + "\n})"
		prg, err := goja.Compile(filename, wrapped, false)
		if err != nil {
			return err
		}
		fnValue, err := l.rt.RunProgram(prg)
		if err != nil {
			return err
		}
		fn, ok := goja.AssertFunction(fnValue)
		if !ok {
			return fmt.Errorf("module %q did not compile to a function", filename)
		}
		requireFn := l.NewRequireFunction(dirname)
		_, err = fn(goja.Undefined(), moduleObj, moduleObj.Get("exports"), requireFn,
			l.rt.ToValue(filename), l.rt.ToValue(dirname))
		return err

	case FormatSnapshot:
		prg, err := goja.Compile(filename, "(function(module, exports, require, __filename, __dirname) {"+
			string(loadResult.Bytes)+"})", false)
		if err != nil {
			return err
		}
		fnValue, err := l.rt.RunProgram(prg)
		if err != nil {
			return err
		}
		fn, ok := goja.AssertFunction(fnValue)
		if !ok {
			return fmt.Errorf("snapshot %q did not compile to a function", filename)
		}
		requireFn := l.NewRequireFunction(dirname)
		_, err = fn(goja.Undefined(), moduleObj, moduleObj.Get("exports"), requireFn,
			l.rt.ToValue(filename), l.rt.ToValue(dirname))
		return err

	default:
		return ErrInvalidFormat
	}
}

// NewRequireFunction builds the require(specifier) function object bound
// to dir, with resolve and cache properties attached per require.resolve
// and require.cache.
func (l *CJSLoader) NewRequireFunction(dir string) goja.Value {
	fn := l.rt.ToValue(l.requireFuncFor(dir))
	obj := fn.ToObject(l.rt)

	resolveFn := func(call goja.FunctionCall) goja.Value {
		specifier := call.Argument(0).String()
		p, err := l.ResolvePath(specifier, dir)
		if err != nil {
			panic(l.rt.NewGoError(err))
		}
		return l.rt.ToValue(p)
	}
	_ = obj.Set("resolve", l.rt.ToValue(resolveFn))

	cacheObj := l.rt.NewObject()
	for path, exports := range l.Cache() {
		_ = cacheObj.Set(path, exports)
	}
	_ = obj.Set("cache", cacheObj)

	return obj
}

// requireFuncFor returns the require(specifier) closure bound to dir,
// exposed to JS. It translates Go errors into thrown JS exceptions
// following the goja idiom of panicking with an Exception-producing
// value from within a native function.
func (l *CJSLoader) requireFuncFor(dir string) func(call goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		specifier := call.Argument(0).String()
		if len(call.Arguments) == 0 {
			panic(l.rt.NewTypeError("require() can't be used with an empty specifier"))
		}
		exports, err := l.Require(specifier, dir)
		if err == ErrInvalidFormat {
			panic(l.rt.NewTypeError(err.Error()))
		}
		if err != nil {
			panic(l.rt.NewGoError(err))
		}
		return exports
	}
}
