package module

import (
	"errors"

	"github.com/dop251/goja"

	jjspath "github.com/lightsourceengine/jjs-go/path"
	"github.com/lightsourceengine/jjs-go/vmod"
)

// ResultMode selects what LinkAndEvaluate returns once a module reaches
// the linked/evaluated state.
type ResultMode int

const (
	ResultNamespace ResultMode = iota
	ResultEvaluate
	ResultNone
)

// ESMLoader implements esm_read / esm_link_and_evaluate for a realm: the
// source-module path goes through goja.ModuleFromAST; the commonjs and
// vmod paths go through a synthetic module bridge.
type ESMLoader struct {
	rt      *goja.Runtime
	resolve ResolveFunc
	load    LoadFunc
	cjs     *CJSLoader
	vmod    *vmod.Registry

	cache   map[string]goja.ModuleRecord
	dirOf   map[goja.ModuleRecord]string
	pathOf  map[goja.ModuleRecord]string
	metaSet map[goja.ModuleRecord]bool
}

// NewESMLoader returns a loader bound to rt.
func NewESMLoader(rt *goja.Runtime, resolve ResolveFunc, load LoadFunc, cjs *CJSLoader, vm *vmod.Registry) *ESMLoader {
	return &ESMLoader{
		rt:      rt,
		resolve: resolve,
		load:    load,
		cjs:     cjs,
		vmod:    vm,
		cache:   make(map[string]goja.ModuleRecord),
		dirOf:   make(map[goja.ModuleRecord]string),
		pathOf:  make(map[goja.ModuleRecord]string),
		metaSet: make(map[goja.ModuleRecord]bool),
	}
}

// HostResolveImportedModule adapts EsmRead to goja's
// HostResolveImportedModuleFunc signature, used both as the link
// callback and as the resolver goja.ModuleFromAST needs for nested
// imports.
func (l *ESMLoader) HostResolveImportedModule(referencingScriptOrModule interface{}, specifier string) (goja.ModuleRecord, error) {
	referrerDir := l.referrerDirFor(referencingScriptOrModule)
	return l.EsmRead(specifier, referrerDir)
}

func (l *ESMLoader) referrerDirFor(referencingScriptOrModule interface{}) string {
	if referencingScriptOrModule == nil {
		return ""
	}
	mod, ok := referencingScriptOrModule.(goja.ModuleRecord)
	if !ok {
		return ""
	}
	return l.dirOf[mod]
}

// EsmRead implements the esm_read(specifier, referrer_path) algorithm.
func (l *ESMLoader) EsmRead(specifier, referrerPath string) (goja.ModuleRecord, error) {
	if l.vmod != nil && l.vmod.Exists(specifier) {
		return l.syntheticFromVmod(specifier)
	}

	res, err := l.resolve(specifier, ResolveOptions{ReferrerPath: referrerPath, Kind: KindModule})
	if err != nil {
		return nil, err
	}

	if cached, ok := l.cache[res.Path]; ok {
		return cached, nil
	}

	loadResult, err := l.load(res.Path, LoadOptions{Format: res.Format, Kind: KindModule})
	if err != nil {
		return nil, err
	}

	dirname, _ := jjspath.Dirname(res.Path)
	url, _ := jjspath.ToFileURL(res.Path, false)

	var mod goja.ModuleRecord
	switch loadResult.Format {
	case FormatJS, FormatModule:
		prg, perr := parseModuleSource(res.Path, loadResult.Source)
		if perr != nil {
			return nil, perr
		}
		mod, err = goja.ModuleFromAST(prg, l.HostResolveImportedModule)
		if err != nil {
			return nil, err
		}

	case FormatCommonJS:
		mod = l.newCommonJSSyntheticModule(res.Path, dirname)

	default:
		return nil, ErrInvalidFormat
	}

	l.cache[res.Path] = mod
	l.dirOf[mod] = dirname
	l.pathOf[mod] = res.Path
	_ = url

	return mod, nil
}

func (l *ESMLoader) syntheticFromVmod(specifier string) (goja.ModuleRecord, error) {
	if cached, ok := l.cache[specifier]; ok {
		return cached, nil
	}
	mod := l.newVmodSyntheticModule(specifier)
	l.cache[specifier] = mod
	l.dirOf[mod] = ""
	l.pathOf[mod] = specifier
	return mod, nil
}

// LinkAndEvaluate implements esm_link_and_evaluate(module, result_mode).
func (l *ESMLoader) LinkAndEvaluate(mod goja.ModuleRecord, mode ResultMode) (goja.Value, error) {
	if err := mod.Link(); err != nil {
		return nil, err
	}

	cyclic, ok := mod.(goja.CyclicModuleRecord)
	if !ok {
		return l.resultFor(mod, mode), nil
	}

	promise := l.rt.CyclicModuleRecordEvaluate(cyclic, l.HostResolveImportedModule)
	switch promise.State() {
	case goja.PromiseStateRejected:
		if err, ok := promise.Result().Export().(error); ok {
			return nil, err
		}
		return nil, errors.New("module evaluation failed")
	case goja.PromiseStateFulfilled:
		return l.resultFor(mod, mode), nil
	default:
		return nil, errors.New("top-level await is not supported")
	}
}

func (l *ESMLoader) resultFor(mod goja.ModuleRecord, mode ResultMode) goja.Value {
	switch mode {
	case ResultNone:
		return goja.Undefined()
	default:
		return l.rt.NamespaceObjectFor(mod)
	}
}

// PathOf returns the absolute path (or vmod specifier) a module was
// cached under, used by import.meta population and dynamic import's
// referrer derivation.
func (l *ESMLoader) PathOf(mod goja.ModuleRecord) (string, bool) {
	p, ok := l.pathOf[mod]
	return p, ok
}

// Lookup returns a previously-cached module by its cache key (path or
// vmod specifier), used to satisfy the import() referrer lookup rule.
func (l *ESMLoader) Lookup(key string) (goja.ModuleRecord, bool) {
	mod, ok := l.cache[key]
	return mod, ok
}
