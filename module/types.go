// Package module implements the resolver/loader chain, the CommonJS and
// ES module loaders, dynamic import, import.meta population, and the
// synthetic-module bridge used for virtual modules and CJS/ESM interop.
package module

// Kind distinguishes which specialization of a resolved entry a caller
// wants: the "module" (ESM) or "commonjs" (CJS) half of a package map /
// vmod entry.
type Kind int

const (
	KindModule Kind = iota
	KindCommonJS
)

func (k Kind) String() string {
	if k == KindCommonJS {
		return "commonjs"
	}
	return "module"
}

// Format is the module.LoadResult/ResolveResult format discriminator.
type Format string

const (
	FormatJS       Format = "js"
	FormatCommonJS Format = "commonjs"
	FormatModule   Format = "module"
	FormatSnapshot Format = "snapshot"
	FormatNone     Format = "none"
)

// ResolveOptions is the second argument to a resolve callback.
type ResolveOptions struct {
	ReferrerPath string
	Kind         Kind
}

// ResolveResult is the outcome of resolving a specifier to a concrete
// resource.
type ResolveResult struct {
	Path   string
	Format Format
}

// LoadOptions is the second argument to a load callback.
type LoadOptions struct {
	Format Format
	Kind   Kind
}

// LoadResult is the outcome of loading a resolved path's bytes. Source
// holds text for "js"/"commonjs"/"module"; Bytes holds raw bytes for
// "snapshot".
type LoadResult struct {
	Source string
	Bytes  []byte
	Format Format
}

// ResolveFunc is the host-overridable resolve callback.
type ResolveFunc func(specifier string, opts ResolveOptions) (ResolveResult, error)

// LoadFunc is the host-overridable load callback.
type LoadFunc func(path string, opts LoadOptions) (LoadResult, error)

// State is an ES module's lifecycle state. Transitions only move
// forward in the order declared here, except that ERROR is reachable
// from LINKING or EVALUATING.
type State int

const (
	StateUnlinked State = iota
	StateLinking
	StateLinked
	StateEvaluating
	StateEvaluated
	StateError
)

func (s State) String() string {
	switch s {
	case StateUnlinked:
		return "unlinked"
	case StateLinking:
		return "linking"
	case StateLinked:
		return "linked"
	case StateEvaluating:
		return "evaluating"
	case StateEvaluated:
		return "evaluated"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}
