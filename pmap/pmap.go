// Package pmap implements the package map: a JSON document mapping bare
// specifiers to filesystem locations, loaded once and resolved by
// longest-matching-prefix, the way the engine's annex layer does.
package pmap

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/lightsourceengine/jjs-go/path"
	"github.com/lightsourceengine/jjs-go/platform"
)

// Kind selects which specialization of an entry's fields to prefer.
type Kind int

const (
	KindModule Kind = iota
	KindCommonJS
)

// entry is the discriminated string-or-object shape a package map entry
// can take. A bare string is normalized to Main/Path with no
// specialization.
type entry struct {
	Main     string `json:"main,omitempty"`
	Path     string `json:"path,omitempty"`
	Module   *entry `json:"module,omitempty"`
	CommonJS *entry `json:"commonjs,omitempty"`
}

func (e *entry) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		e.Main, e.Path = s, s
		return nil
	}

	type rawEntry entry
	var r rawEntry
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	*e = entry(r)
	if e.Main == "" && e.Path == "" && e.Module == nil && e.CommonJS == nil {
		return errors.New("package map entry must be a string or contain 'main'/'path'")
	}
	return nil
}

func (e *entry) specialized(kind Kind) *entry {
	if e == nil {
		return nil
	}
	switch kind {
	case KindModule:
		if e.Module != nil {
			return e.Module
		}
	case KindCommonJS:
		if e.CommonJS != nil {
			return e.CommonJS
		}
	}
	return e
}

// Map is a loaded, validated package map ready for resolution.
type Map struct {
	root     string
	packages map[string]*entry
	pf       platform.Platform
}

// Load parses and validates a package map document. root is the
// directory package paths are joined against.
func Load(text string, root string, pf platform.Platform) (*Map, error) {
	if !gjson.Valid(text) {
		return nil, errors.New("pmap is not valid JSON")
	}
	if !gjson.Get(text, "packages").IsObject() {
		return nil, errors.New("pmap contains no 'packages' property")
	}

	var doc struct {
		Packages map[string]*entry `json:"packages"`
	}
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("pmap packages entry is invalid: %w", err)
	}

	return &Map{root: root, packages: doc.Packages, pf: pf}, nil
}

// Resolve finds the on-disk path for a bare specifier under kind,
// returning "failed to resolve specifier" if no entry covers it.
func (m *Map) Resolve(specifier string, kind Kind) (string, error) {
	if e, ok := m.packages[specifier]; ok {
		if main := e.specialized(kind).Main; main != "" {
			joined, ok := path.Join(m.root, main)
			if !ok {
				return "", errors.New("failed to resolve specifier")
			}
			return m.normalize(joined)
		}
	}

	prefix := specifier
	for {
		idx := strings.LastIndexByte(prefix, '/')
		if idx < 0 {
			break
		}
		prefix = prefix[:idx]
		rest := specifier[len(prefix)+1:]

		if e, ok := m.packages[prefix]; ok {
			if p := e.specialized(kind).Path; p != "" {
				joined, ok := path.Join(p, rest)
				if !ok {
					return "", errors.New("failed to resolve specifier")
				}
				full, ok := path.Join(m.root, joined)
				if !ok {
					return "", errors.New("failed to resolve specifier")
				}
				return m.normalize(full)
			}
		}
	}

	return "", errors.New("failed to resolve specifier")
}

func (m *Map) normalize(p string) (string, error) {
	if m.pf == nil {
		return p, nil
	}
	real, err := m.pf.Realpath(p)
	if err != nil {
		return "", errors.New("failed to resolve specifier")
	}
	return real, nil
}
