package module

import (
	"github.com/dop251/goja"

	jjspath "github.com/lightsourceengine/jjs-go/path"
)

// ImportMetaPopulator fires once per module to populate import.meta with
// url/filename/dirname, a resolve() helper bound to the module's
// dirname, and the module's extension value if set.
type ImportMetaPopulator struct {
	rt      *goja.Runtime
	esm     *ESMLoader
	fired   map[goja.ModuleRecord]bool
	extensions map[goja.ModuleRecord]goja.Value
}

// NewImportMetaPopulator returns a populator bound to rt/esm.
func NewImportMetaPopulator(rt *goja.Runtime, esm *ESMLoader) *ImportMetaPopulator {
	return &ImportMetaPopulator{
		rt:         rt,
		esm:        esm,
		fired:      make(map[goja.ModuleRecord]bool),
		extensions: make(map[goja.ModuleRecord]goja.Value),
	}
}

// SetExtension records the host-supplied extension value for a module,
// exposed as import.meta.extension if populated.
func (p *ImportMetaPopulator) SetExtension(mod goja.ModuleRecord, value goja.Value) {
	p.extensions[mod] = value
}

// Populate fills meta for mod exactly once; subsequent calls are no-ops,
// matching "computed exactly once and memoized" from the concurrency
// model.
func (p *ImportMetaPopulator) Populate(mod goja.ModuleRecord, meta *goja.Object) {
	if p.fired[mod] {
		return
	}
	p.fired[mod] = true

	modPath, _ := p.esm.PathOf(mod)
	dirname, _ := jjspath.Dirname(modPath)
	url, _ := jjspath.ToFileURL(modPath, false)

	_ = meta.Set("url", url)
	_ = meta.Set("filename", modPath)
	_ = meta.Set("dirname", dirname)

	resolveFn := func(call goja.FunctionCall) goja.Value {
		specifier := call.Argument(0).String()
		asPath := false
		if opts, ok := call.Argument(1).(*goja.Object); ok {
			if v := opts.Get("path"); v != nil && !goja.IsUndefined(v) {
				asPath = v.ToBoolean()
			}
		}

		resolved, err := p.resolveFromDir(specifier, dirname)
		if err != nil {
			panic(p.rt.NewGoError(err))
		}

		if asPath {
			return p.rt.ToValue(resolved)
		}
		fileURL, ok := jjspath.ToFileURL(resolved, false)
		if !ok {
			return p.rt.ToValue(resolved)
		}
		return p.rt.ToValue(fileURL)
	}
	_ = meta.Set("resolve", p.rt.ToValue(resolveFn))

	if ext, ok := p.extensions[mod]; ok {
		_ = meta.Set("extension", ext)
	}
}

func (p *ImportMetaPopulator) resolveFromDir(specifier, dirname string) (string, error) {
	if p.esm.vmod != nil && p.esm.vmod.Exists(specifier) {
		return specifier, nil
	}
	res, err := p.esm.resolve(specifier, ResolveOptions{ReferrerPath: dirname, Kind: KindModule})
	if err != nil {
		return "", err
	}
	return res.Path, nil
}
