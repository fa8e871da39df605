package module

import (
	"errors"
	"fmt"

	"github.com/lightsourceengine/jjs-go/path"
	"github.com/lightsourceengine/jjs-go/platform"
	"github.com/lightsourceengine/jjs-go/pmap"
)

// DefaultResolver builds the default resolve/load callback pair: relative
// and absolute specifiers are realpath-normalized against the platform
// facade, package specifiers delegate to an optional package map, and
// everything is read back through the platform's filesystem.
type DefaultResolver struct {
	Platform platform.Platform
	PMap     *pmap.Map
}

// Resolve implements the default resolve(specifier, {referrer_path, kind})
// callback described for the resolver/loader chain: classify, then
// dispatch per specifier type.
func (r *DefaultResolver) Resolve(specifier string, opts ResolveOptions) (ResolveResult, error) {
	switch path.ClassifySpecifier(specifier) {
	case path.SpecifierTypeRelative:
		joined, ok := path.Join(opts.ReferrerPath, specifier)
		if !ok {
			return ResolveResult{}, errors.New("failed to resolve specifier")
		}
		real, err := r.Platform.Realpath(joined)
		if err != nil {
			return ResolveResult{}, fmt.Errorf("failed to resolve specifier: %w", err)
		}
		return ResolveResult{Path: real, Format: formatFromPath(real)}, nil

	case path.SpecifierTypeAbsolute:
		real, err := r.Platform.Realpath(specifier)
		if err != nil {
			return ResolveResult{}, fmt.Errorf("failed to resolve specifier: %w", err)
		}
		return ResolveResult{Path: real, Format: formatFromPath(real)}, nil

	case path.SpecifierTypeFileURL:
		return ResolveResult{}, errors.New("failed to resolve specifier")

	case path.SpecifierTypePackage:
		if r.PMap == nil {
			return ResolveResult{}, errors.New("failed to resolve specifier")
		}
		var kind pmap.Kind
		if opts.Kind == KindCommonJS {
			kind = pmap.KindCommonJS
		} else {
			kind = pmap.KindModule
		}
		p, err := r.PMap.Resolve(specifier, kind)
		if err != nil {
			return ResolveResult{}, err
		}
		return ResolveResult{Path: p, Format: formatFromPath(p)}, nil

	default:
		return ResolveResult{}, errors.New("failed to resolve specifier")
	}
}

// Load implements the default load(path, {format, kind}) callback.
func (r *DefaultResolver) Load(p string, opts LoadOptions) (LoadResult, error) {
	switch opts.Format {
	case FormatSnapshot:
		res, err := r.Platform.ReadFile(p, platform.EncodingNone)
		if err != nil {
			return LoadResult{}, err
		}
		return LoadResult{Bytes: res.Bytes, Format: FormatSnapshot}, nil

	case FormatJS, FormatCommonJS, FormatModule:
		res, err := r.Platform.ReadFile(p, platform.EncodingUTF8)
		if err != nil {
			return LoadResult{}, err
		}
		return LoadResult{Source: res.Text, Format: opts.Format}, nil

	case FormatNone:
		return LoadResult{}, errors.New("unsupported format field")

	default:
		return LoadResult{}, errors.New("unsupported format field")
	}
}

func formatFromPath(p string) Format {
	return Format(path.Format(p))
}
