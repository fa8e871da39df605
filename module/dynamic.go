package module

import (
	"errors"

	"github.com/dop251/goja"

	"github.com/lightsourceengine/jjs-go/jobqueue"
	jjspath "github.com/lightsourceengine/jjs-go/path"
	"github.com/lightsourceengine/jjs-go/platform"
)

// DynamicImporter exposes import() to JS: resolve/link/evaluate a
// specifier relative to the calling module and resolve a Promise with
// its namespace.
type DynamicImporter struct {
	rt   *goja.Runtime
	esm  *ESMLoader
	pf   platform.Platform
	jobs *jobqueue.Queue
}

// NewDynamicImporter returns an importer bound to rt, backed by esm for
// module resolution and pf for the cwd fallback. The actual
// read/link/evaluate work runs as a job on jobs, matching "import() is
// synchronous under the hood but exposes asynchronous semantics".
func NewDynamicImporter(rt *goja.Runtime, esm *ESMLoader, pf platform.Platform, jobs *jobqueue.Queue) *DynamicImporter {
	return &DynamicImporter{rt: rt, esm: esm, pf: pf, jobs: jobs}
}

// referrerPathFromUserValue implements host_import's referrer-derivation
// rule: an absolute path looks itself up in esm_cache for its dirname
// (and is dirnamed directly when it is not cached); a file URL fails;
// an empty value or any other non-absolute value falls back to cwd.
func (d *DynamicImporter) referrerPathFromUserValue(userValue string) (string, error) {
	if userValue == "" {
		return d.cwdFallback()
	}

	switch jjspath.ClassifySpecifier(userValue) {
	case jjspath.SpecifierTypeAbsolute:
		if mod, ok := d.esm.Lookup(userValue); ok {
			if p, ok := d.esm.PathOf(mod); ok {
				dirname, ok := jjspath.Dirname(p)
				if ok {
					return dirname, nil
				}
			}
		}
		dirname, ok := jjspath.Dirname(userValue)
		if !ok {
			return d.cwdFallback()
		}
		return dirname, nil

	case jjspath.SpecifierTypeFileURL:
		return "", errors.New("import() referrer must not be a file URL")

	default:
		return d.cwdFallback()
	}
}

func (d *DynamicImporter) cwdFallback() (string, error) {
	if d.pf == nil {
		return "", errors.New("no cwd available for import() referrer")
	}
	return d.pf.Cwd()
}

// Import implements JS-visible import(specifier): it always returns a
// Promise synchronously and defers the actual read/link/evaluate work to
// a microtask, so it never throws once a valid specifier value has been
// produced.
func (d *DynamicImporter) Import(specifier, userValue string) *goja.Promise {
	promise, resolve, reject := d.rt.NewPromise()

	d.jobs.Enqueue(func() {
		mod, err := d.HostImport(specifier, userValue)
		if err != nil {
			reject(d.rt.NewGoError(err))
			return
		}
		resolve(d.rt.NamespaceObjectFor(mod))
	})

	return promise
}

// HostImport implements host_import(specifier, user_value): resolve,
// link, and evaluate the target module and return it; the caller (the
// engine's import() builtin) resolves the surrounding Promise with
// rt.NamespaceObjectFor(mod).
func (d *DynamicImporter) HostImport(specifier, userValue string) (goja.ModuleRecord, error) {
	referrerPath, err := d.referrerPathFromUserValue(userValue)
	if err != nil {
		return nil, err
	}

	mod, err := d.esm.EsmRead(specifier, referrerPath)
	if err != nil {
		return nil, err
	}

	if _, err := d.esm.LinkAndEvaluate(mod, ResultNone); err != nil {
		return nil, err
	}

	return mod, nil
}
