package engine

import (
	"context"

	"github.com/dop251/goja"
	"github.com/sirupsen/logrus"

	"github.com/lightsourceengine/jjs-go/jobqueue"
	"github.com/lightsourceengine/jjs-go/module"
	jjstrace "github.com/lightsourceengine/jjs-go/trace"
	"github.com/lightsourceengine/jjs-go/vmod"
)

// Realm is one goja.Runtime plus the three realm-owned caches spec.md
// §4 assigns it: commonjs_cache (via CJSLoader), esm_cache (via
// ESMLoader), and vmod_cache (via vmod.Registry). A Context may own
// several realms; each has its own runtime, caches and job queue, and
// they share only the Context's platform, package map and callbacks.
type Realm struct {
	ctx  *Context
	rt   *goja.Runtime
	cjs  *module.CJSLoader
	esm  *module.ESMLoader
	vmod *vmod.Registry
	jobs *jobqueue.Queue
	dyn  *module.DynamicImporter
	meta *module.ImportMetaPopulator
}

// newRealm builds a Realm for ctx: wires the resolver/loader chain
// (falling back to ctx's platform/pmap defaults when ctx.OnResolve/
// OnLoad are nil, per DESIGN.md OQ-C), and installs the require/
// import/queueMicrotask/vmod globals a script sees.
func (c *Context) newRealm() (*Realm, error) {
	rt := goja.New()
	log := c.logEntry()

	resolve, load := c.resolveLoadFuncs()

	vm := vmod.New(rt)
	cjs := module.NewCJSLoader(rt, resolve, load, vm)
	esm := module.NewESMLoader(rt, resolve, load, cjs, vm)
	jobs := jobqueue.New(log)
	dyn := module.NewDynamicImporter(rt, esm, c.Platform, jobs)
	meta := module.NewImportMetaPopulator(rt, esm)

	r := &Realm{ctx: c, rt: rt, cjs: cjs, esm: esm, vmod: vm, jobs: jobs, dyn: dyn, meta: meta}

	if err := r.installGlobals(); err != nil {
		return nil, err
	}
	return r, nil
}

// resolveLoadFuncs returns ctx's host-overridden resolve/load callbacks
// if set, else the default filesystem-backed resolver bound to ctx's
// platform and package map.
func (c *Context) resolveLoadFuncs() (module.ResolveFunc, module.LoadFunc) {
	resolve := c.OnResolve
	load := c.OnLoad
	if resolve == nil || load == nil {
		def := &module.DefaultResolver{Platform: c.Platform, PMap: c.pmap}
		if resolve == nil {
			resolve = def.Resolve
		}
		if load == nil {
			load = def.Load
		}
	}
	return resolve, load
}

func (c *Context) logEntry() *logrus.Entry {
	if c.Log != nil {
		return c.Log
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

func (r *Realm) cwd() string {
	if r.ctx.Config.DefaultCwd != "" {
		return r.ctx.Config.DefaultCwd
	}
	if r.ctx.Platform != nil {
		if cwd, err := r.ctx.Platform.Cwd(); err == nil {
			return cwd
		}
	}
	return "/"
}

// installGlobals installs require, import, queueMicrotask, and vmod as
// globals on the realm's runtime, matching spec.md §6.3's JS-visible
// surface.
func (r *Realm) installGlobals() error {
	dir := r.cwd()

	if err := r.rt.Set("require", r.cjs.NewRequireFunction(dir)); err != nil {
		return err
	}

	// import as a global only reaches Script-goal code (RunString, and
	// CJS module bodies, which are wrapped and compiled as plain
	// functions, not Module goal - see CJSLoader.execute). It is NOT
	// reachable from real ES module source: "import" is a reserved word
	// there, so `import(` parses as the ImportCall production rather
	// than a call on a global identifier, and this goja version has no
	// working dynamic-import host hook regardless (DESIGN.md OQ-E).
	importFn := func(call goja.FunctionCall) goja.Value {
		specifier := call.Argument(0).String()
		userValue := ""
		if len(call.Arguments) > 1 {
			userValue = call.Argument(1).String()
		}
		if r.ctx.OnImport != nil {
			r.ctx.OnImport(specifier, userValue)
		}
		return r.rt.ToValue(r.dyn.Import(specifier, userValue))
	}
	if err := r.rt.Set("import", importFn); err != nil {
		return err
	}

	queueMicrotaskFn := func(call goja.FunctionCall) goja.Value {
		fn, ok := goja.AssertFunction(call.Argument(0))
		if !ok {
			panic(r.rt.NewTypeError("queueMicrotask requires a callable argument"))
		}
		r.jobs.EnqueueMicrotask(fn)
		return goja.Undefined()
	}
	if err := r.rt.Set("queueMicrotask", queueMicrotaskFn); err != nil {
		return err
	}

	return r.installVmodGlobal()
}

// installVmodGlobal builds the callable `vmod(name, value)` global with
// exists/resolve/remove methods attached, per spec.md §4.5/§6.3.
func (r *Realm) installVmodGlobal() error {
	registerFn := func(call goja.FunctionCall) goja.Value {
		name := call.Argument(0).String()
		if err := r.vmod.Register(name, call.Argument(1)); err != nil {
			panic(r.rt.NewGoError(err))
		}
		return goja.Undefined()
	}
	fn := r.rt.ToValue(registerFn)
	obj := fn.ToObject(r.rt)

	existsFn := func(call goja.FunctionCall) goja.Value {
		return r.rt.ToValue(r.vmod.Exists(call.Argument(0).String()))
	}
	resolveFn := func(call goja.FunctionCall) goja.Value {
		v, err := r.vmod.Resolve(call.Argument(0).String())
		if err != nil {
			panic(r.rt.NewGoError(err))
		}
		return v
	}
	removeFn := func(call goja.FunctionCall) goja.Value {
		return r.rt.ToValue(r.vmod.Remove(call.Argument(0).String()))
	}

	if err := obj.Set("exists", r.rt.ToValue(existsFn)); err != nil {
		return err
	}
	if err := obj.Set("resolve", r.rt.ToValue(resolveFn)); err != nil {
		return err
	}
	if err := obj.Set("remove", r.rt.ToValue(removeFn)); err != nil {
		return err
	}

	return r.rt.Set("vmod", obj)
}

// Runtime returns the realm's goja.Runtime, for embedders that need
// direct access (e.g. to register additional Go-backed globals).
func (r *Realm) Runtime() *goja.Runtime { return r.rt }

// Jobs returns the realm's microtask queue.
func (r *Realm) Jobs() *jobqueue.Queue { return r.jobs }

// Vmod returns the realm's virtual module registry.
func (r *Realm) Vmod() *vmod.Registry { return r.vmod }

// CommonJSRequire implements commonjs_require(specifier): resolves
// relative to the realm's cwd, exactly like the `require` global.
func (r *Realm) CommonJSRequire(specifier string) (goja.Value, error) {
	_, end := jjstrace.StartStep(context.Background(), jjstrace.StepLoad, specifier, module.KindCommonJS.String())
	exports, err := r.cjs.Require(specifier, r.cwd())
	end(err)
	return exports, err
}

// ImportModule implements esm_import(specifier): resolve, link,
// evaluate, and return the module's namespace object.
func (r *Realm) ImportModule(specifier string) (*goja.Object, error) {
	_, end := jjstrace.StartStep(context.Background(), jjstrace.StepImport, specifier, module.KindModule.String())
	mod, err := r.esm.EsmRead(specifier, r.cwd())
	if err != nil {
		end(err)
		return nil, err
	}
	r.fireModuleCallbacks(mod)

	ns, err := r.linkAndEvaluate(mod, module.ResultNamespace)
	end(err)
	if err != nil {
		return nil, err
	}
	return ns.ToObject(r.rt), nil
}

// EvaluateModule implements esm_evaluate(specifier): resolve, link,
// evaluate, and return the module's last evaluation value instead of
// its namespace.
func (r *Realm) EvaluateModule(specifier string) (goja.Value, error) {
	mod, err := r.esm.EsmRead(specifier, r.cwd())
	if err != nil {
		return nil, err
	}
	r.fireModuleCallbacks(mod)
	return r.linkAndEvaluate(mod, module.ResultEvaluate)
}

// ImportSource implements esm_import_source(buffer, opts): parse an
// in-memory ES module body, link, evaluate, and return its namespace.
func (r *Realm) ImportSource(src string, opts module.SourceOptions) (*goja.Object, error) {
	mod, err := r.esm.LoadFromSource(src, opts)
	if err != nil {
		return nil, err
	}
	r.fireModuleCallbacks(mod)
	ns, err := r.linkAndEvaluate(mod, module.ResultNamespace)
	if err != nil {
		return nil, err
	}
	return ns.ToObject(r.rt), nil
}

// EvaluateSource implements esm_evaluate_source(buffer, opts): parse,
// link, evaluate, and return the last evaluation value.
func (r *Realm) EvaluateSource(src string, opts module.SourceOptions) (goja.Value, error) {
	mod, err := r.esm.LoadFromSource(src, opts)
	if err != nil {
		return nil, err
	}
	r.fireModuleCallbacks(mod)
	return r.linkAndEvaluate(mod, module.ResultEvaluate)
}

// linkAndEvaluate wraps ESMLoader.LinkAndEvaluate with
// OnModuleStateChanged notifications. goja.ModuleRecord doesn't expose
// its internal state machine, so these are coarse, pipeline-level
// state reports (linking -> evaluating -> evaluated/error) rather than a faithful
// per-transition mirror of module.State's full enum.
func (r *Realm) linkAndEvaluate(mod goja.ModuleRecord, mode module.ResultMode) (goja.Value, error) {
	path, _ := r.esm.PathOf(mod)
	r.notifyState(path, module.StateLinking)
	r.notifyState(path, module.StateEvaluating)

	result, err := r.esm.LinkAndEvaluate(mod, mode)
	if err != nil {
		r.notifyState(path, module.StateError)
		return nil, err
	}
	r.notifyState(path, module.StateEvaluated)
	return result, nil
}

func (r *Realm) notifyState(path string, state module.State) {
	if r.ctx.OnModuleStateChanged != nil {
		r.ctx.OnModuleStateChanged(path, state)
	}
}

// fireModuleCallbacks invokes ctx.OnImportMeta (if set) for a freshly
// read module by populating its import.meta object eagerly, matching
// "computed exactly once and memoized" (spec.md §9).
func (r *Realm) fireModuleCallbacks(mod goja.ModuleRecord) {
	if r.ctx.OnImportMeta == nil {
		return
	}
	meta := r.rt.NewObject()
	r.meta.Populate(mod, meta)
	if len(meta.Keys()) == 0 {
		// Populate leaves meta empty for a module it has already filled.
		return
	}
	r.ctx.OnImportMeta(mod, meta)
}
