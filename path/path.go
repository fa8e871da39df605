// Package path classifies and manipulates module specifiers and file
// paths the way the engine's annex layer does: relative/absolute/file-url/
// package classification, dirname/basename, extension-based format
// detection, and file:// URL encoding.
package path

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// SpecifierType is the classification of a module specifier or CommonJS
// request string.
type SpecifierType int

const (
	// SpecifierTypeNone is returned for the empty string.
	SpecifierTypeNone SpecifierType = iota
	SpecifierTypeRelative
	SpecifierTypeAbsolute
	SpecifierTypeFileURL
	SpecifierTypePackage
)

const (
	fileURLPrefix = "file:"
)

// ClassifySpecifier determines the type of a specifier by inspecting its
// leading bytes. Every non-empty string maps to exactly one type.
func ClassifySpecifier(specifier string) SpecifierType {
	if specifier == "" {
		return SpecifierTypeNone
	}

	if isRelative(specifier) {
		return SpecifierTypeRelative
	}

	if isAbsolute(specifier) {
		return SpecifierTypeAbsolute
	}

	if strings.HasPrefix(specifier, fileURLPrefix) {
		return SpecifierTypeFileURL
	}

	return SpecifierTypePackage
}

func isRelative(s string) bool {
	if strings.HasPrefix(s, "./") || strings.HasPrefix(s, "../") || s == "." || s == ".." {
		return true
	}
	return isWindowsDriveRelative(s)
}

// isWindowsDriveRelative matches "C:" without a following separator, e.g.
// "C:foo.js" - drive-relative, not drive-absolute.
func isWindowsDriveRelative(s string) bool {
	if len(s) < 2 || !isDriveLetter(s[0]) || s[1] != ':' {
		return false
	}
	if len(s) == 2 {
		return true
	}
	return !isSeparator(s[2])
}

func isAbsolute(s string) bool {
	if len(s) == 0 {
		return false
	}
	if isSeparator(s[0]) {
		return true
	}
	if len(s) >= 2 && isDriveLetter(s[0]) && s[1] == ':' && len(s) >= 3 && isSeparator(s[2]) {
		return true
	}
	// UNC path: \\server\share
	if len(s) >= 2 && s[0] == '\\' && s[1] == '\\' {
		return true
	}
	return false
}

func isDriveLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isSeparator(b byte) bool {
	return b == '/' || b == '\\'
}

// Join concatenates a referrer directory and a specifier path with a
// single separator. Join does not normalize and never touches the
// filesystem; callers that need a normalized path pass the result
// through a realpath-capable normalizer afterward.
func Join(referrer, specifier string) (string, bool) {
	if referrer == "" || specifier == "" {
		return "", false
	}
	var b strings.Builder
	b.WriteString(referrer)
	if !strings.HasSuffix(referrer, "/") {
		b.WriteByte('/')
	}
	b.WriteString(specifier)
	return b.String(), true
}

// findRootEndIndex returns the index just past any drive/UNC root, so
// Dirname/Basename never eat into it.
func findRootEndIndex(s string) (int, bool) {
	if len(s) == 0 {
		return 0, false
	}
	if len(s) >= 2 && isDriveLetter(s[0]) && s[1] == ':' {
		return 2, true
	}
	return 0, true
}

// Dirname returns the directory name of a path, following the
// trim-trailing-separators / walk-back-to-separator / trim-again algorithm.
func Dirname(p string) (string, bool) {
	if p == "" {
		return "", false
	}

	start, ok := findRootEndIndex(p)
	if !ok {
		return "", false
	}

	last := len(p) - 1
	if last < start {
		return p, true
	}

	for last > start && isSeparator(p[last]) {
		last--
	}
	for last > start && !isSeparator(p[last]) {
		last--
	}
	if isSeparator(p[last]) {
		for last > start && isSeparator(p[last]) {
			last--
		}
		last++
	}

	return p[:last], true
}

// Basename returns the final path segment. "" and "." and ".." are
// considered invalid, matching the original annex behavior.
func Basename(p string) (string, bool) {
	if p == "" || p == "." || p == ".." {
		return "", false
	}

	lastSlash := -1
	for i := 0; i < len(p); i++ {
		if isSeparator(p[i]) {
			lastSlash = i
		}
	}

	if lastSlash == -1 {
		return p, true
	}
	if lastSlash+1 >= len(p) {
		return "", false
	}

	return p[lastSlash+1:], true
}

// Format returns the module format implied by a path's file extension:
// "js", "commonjs", "module", "snapshot", or "none". Note the original
// algorithm requires at least one character before the extension, so a
// bare ".js" is "none", not "js".
func Format(p string) string {
	switch {
	case len(p) > len(".js") && strings.HasSuffix(p, ".js"):
		return "js"
	case len(p) > len(".cjs") && strings.HasSuffix(p, ".cjs"):
		return "commonjs"
	case len(p) > len(".mjs") && strings.HasSuffix(p, ".mjs"):
		return "module"
	case len(p) > len(".snapshot") && strings.HasSuffix(p, ".snapshot"):
		return "snapshot"
	default:
		return "none"
	}
}

const encodeAllowed = "-._~:&=;/"

// ToFileURL converts an absolute file path to a file:// URL, percent
// encoding every byte outside [A-Za-z0-9-._~:&=;/]. Surrogate pairs in
// the input are decoded and re-encoded as UTF-8 percent escapes; an
// isolated surrogate is an error.
func ToFileURL(p string, windows bool) (string, bool) {
	if p == "" {
		return "", false
	}

	var prefix string
	switch {
	case windows && len(p) > 2 && p[0] == '\\' && p[1] == '\\':
		prefix = "file:"
	case windows && len(p) > 2 && isDriveLetter(p[0]) && p[1] == ':' && isSeparator(p[2]):
		prefix = "file:///"
	case windows && len(p) > 0 && isSeparator(p[0]):
		prefix = "file:///C:"
	case !windows && len(p) > 0 && isSeparator(p[0]):
		prefix = "file://"
	default:
		return "", false
	}

	encoded, ok := encodePathBytes(p, windows)
	if !ok {
		return "", false
	}

	return prefix + encoded, true
}

func encodePathBytes(p string, windows bool) (string, bool) {
	units := utf16.Encode([]rune(p))
	var b strings.Builder
	b.Grow(len(p) * 3)

	i := 0
	for i < len(units) {
		r := rune(units[i])

		if utf16.IsSurrogate(r) {
			if i+1 >= len(units) {
				return "", false
			}
			combined := utf16.DecodeRune(r, rune(units[i+1]))
			if combined == utf8.RuneError {
				return "", false
			}
			encodeCodePoint(&b, combined, windows)
			i += 2
			continue
		}

		encodeCodePoint(&b, r, windows)
		i++
	}

	return b.String(), true
}

func encodeCodePoint(b *strings.Builder, r rune, windows bool) {
	if windows && r == '\\' {
		b.WriteByte('/')
		return
	}

	if r < utf8.RuneSelf {
		c := byte(r)
		if isAlnum(c) || strings.IndexByte(encodeAllowed, c) >= 0 {
			b.WriteByte(c)
			return
		}
		percentEncodeByte(b, c)
		return
	}

	var buf [utf8.UTFMax]byte
	n := utf8.EncodeRune(buf[:], r)
	for _, c := range buf[:n] {
		percentEncodeByte(b, c)
	}
}

func isAlnum(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

const hexDigits = "0123456789ABCDEF"

func percentEncodeByte(b *strings.Builder, c byte) {
	b.WriteByte('%')
	b.WriteByte(hexDigits[(c>>4)&0xF])
	b.WriteByte(hexDigits[c&0xF])
}
