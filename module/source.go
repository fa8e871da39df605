package module

import (
	"fmt"

	"github.com/dop251/goja"

	jjspath "github.com/lightsourceengine/jjs-go/path"
)

// defaultAnonymousFilename is import.meta.filename's basename when a
// SourceOptions omits Filename, per spec.md §6.2.
const defaultAnonymousFilename = "<anonymous>.mjs"

// SourceOptions controls how an in-memory ES module source is parsed
// and registered, mirroring esm_import_source/esm_evaluate_source's
// options bag from spec.md §6.2.
type SourceOptions struct {
	// Filename is the basename reported as import.meta.filename/url;
	// defaults to "<anonymous>.mjs".
	Filename string
	// Dirname is the base directory nested imports resolve against;
	// defaults to "/" when empty (the platform's cwd is not consulted).
	Dirname string
	// MetaExtension is accepted but not applied: LoadFromSource does not
	// record it, so import.meta.extension is not set from it.
	MetaExtension goja.Value
	// StartLine/StartColumn are accepted but not applied: parsing and
	// error positions do not use them.
	StartLine, StartColumn uint32
	// Cache registers the parsed module in the shared esm_cache under
	// its computed path; a path collision is an error.
	Cache bool
}

// LoadFromSource parses an in-memory ES module body under opts and, if
// opts.Cache is set, installs it into the ESMLoader's cache keyed by
// its computed absolute path (Dirname/Filename), failing if that key
// is already occupied.
func (l *ESMLoader) LoadFromSource(src string, opts SourceOptions) (goja.ModuleRecord, error) {
	filename := opts.Filename
	if filename == "" {
		filename = defaultAnonymousFilename
	}

	dirname := opts.Dirname
	if dirname == "" {
		dirname = "/"
	}

	path, ok := jjspath.Join(dirname, filename)
	if !ok {
		return nil, fmt.Errorf("failed to compute path for in-memory source %q", filename)
	}

	if opts.Cache {
		if _, exists := l.cache[path]; exists {
			return nil, fmt.Errorf("esm_cache collision for %q", path)
		}
	}

	prg, err := parseModuleSource(path, src)
	if err != nil {
		return nil, err
	}

	mod, err := goja.ModuleFromAST(prg, l.HostResolveImportedModule)
	if err != nil {
		return nil, err
	}

	l.dirOf[mod] = dirname
	l.pathOf[mod] = path

	if opts.Cache {
		l.cache[path] = mod
	}

	return mod, nil
}
