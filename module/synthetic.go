package module

import (
	"fmt"

	"github.com/dop251/goja"
)

// syntheticModule is a goja.ModuleRecord whose exports are produced by a
// host evaluate callback rather than parsed source - the bridge used for
// CommonJS interop and virtual modules (§4.10).
type syntheticModule struct {
	exportNames []string
	evaluate    func(rt *goja.Runtime, set func(name string, v goja.Value)) error
}

var _ goja.ModuleRecord = (*syntheticModule)(nil)

func (sm *syntheticModule) Link() error                 { return nil }
func (sm *syntheticModule) InitializeEnvironment() error { return nil }
func (sm *syntheticModule) RequestedModules() []string   { return nil }

func (sm *syntheticModule) Instantiate(rt *goja.Runtime) (goja.CyclicModuleInstance, error) {
	return &syntheticModuleInstance{rt: rt, w: sm, exports: make(map[string]goja.Value)}, nil
}

func (sm *syntheticModule) Evaluate(_ *goja.Runtime) *goja.Promise {
	panic("synthetic modules are evaluated through CyclicModuleRecordEvaluate, not Evaluate")
}

func (sm *syntheticModule) GetExportedNames(_ ...goja.ModuleRecord) []string {
	return sm.exportNames
}

func (sm *syntheticModule) ResolveExport(exportName string, _ ...goja.ResolveSetElement) (*goja.ResolvedBinding, bool) {
	return &goja.ResolvedBinding{Module: sm, BindingName: exportName}, false
}

type syntheticModuleInstance struct {
	rt      *goja.Runtime
	w       *syntheticModule
	exports map[string]goja.Value
}

func (smi *syntheticModuleInstance) HasTLA() bool               { return false }
func (smi *syntheticModuleInstance) RequestedModules() []string { return nil }

func (smi *syntheticModuleInstance) ExecuteModule(rt *goja.Runtime, _, _ func(any)) (goja.CyclicModuleInstance, error) {
	set := func(name string, v goja.Value) {
		smi.exports[name] = v
	}
	if err := smi.w.evaluate(rt, set); err != nil {
		return nil, err
	}
	return smi, nil
}

func (smi *syntheticModuleInstance) GetBindingValue(name string) goja.Value {
	if v, ok := smi.exports[name]; ok {
		return v
	}
	return goja.Undefined()
}

// newCommonJSSyntheticModule builds the synthetic module §4.8 step 5
// describes for a CommonJS target imported via ESM: a single "default"
// export that invokes require(path) at evaluation time.
func (l *ESMLoader) newCommonJSSyntheticModule(path, dirname string) goja.ModuleRecord {
	return &syntheticModule{
		exportNames: []string{"default"},
		evaluate: func(rt *goja.Runtime, set func(string, goja.Value)) error {
			exports, err := l.cjs.Require(path, dirname)
			if err != nil {
				return err
			}
			if d := exports.Get("default"); d != nil && !goja.IsUndefined(d) {
				set("default", d)
			} else {
				set("default", exports)
			}
			return nil
		},
	}
}

// newVmodSyntheticModule builds the synthetic module §4.10 describes for
// a virtual module: enumerate the vmod's resolved exports, ensure a
// "default" binding exists, and bind every name at evaluation time.
func (l *ESMLoader) newVmodSyntheticModule(specifier string) goja.ModuleRecord {
	exports, err := l.vmod.Resolve(specifier)
	if err != nil {
		return &syntheticModule{
			exportNames: []string{"default"},
			evaluate: func(_ *goja.Runtime, _ func(string, goja.Value)) error {
				return fmt.Errorf("failed to resolve virtual module %q: %w", specifier, err)
			},
		}
	}

	obj, isObject := exports.(*goja.Object)
	var names []string
	hasDefault := false

	if isObject {
		names = obj.Keys()
		for _, n := range names {
			if n == "default" {
				hasDefault = true
				break
			}
		}
		if !hasDefault {
			names = append(names, "default")
		}
	} else {
		names = []string{"default"}
	}

	return &syntheticModule{
		exportNames: names,
		evaluate: func(_ *goja.Runtime, set func(string, goja.Value)) error {
			if isObject {
				for _, n := range names {
					if n == "default" && !hasDefault {
						set("default", obj)
						continue
					}
					set(n, obj.Get(n))
				}
			} else {
				set("default", exports)
			}
			return nil
		},
	}
}
