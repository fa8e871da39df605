package path

import "testing"

func TestClassifySpecifier(t *testing.T) {
	cases := map[string]SpecifierType{
		"":                SpecifierTypeNone,
		"./a.js":          SpecifierTypeRelative,
		"../a.js":         SpecifierTypeRelative,
		"/abs/path.js":    SpecifierTypeAbsolute,
		"C:/windows.js":   SpecifierTypeAbsolute,
		"C:rel.js":        SpecifierTypeRelative,
		"\\\\host\\share": SpecifierTypeAbsolute,
		"file:///a.js":    SpecifierTypeFileURL,
		"lodash":          SpecifierTypePackage,
		"@scope/pkg":      SpecifierTypePackage,
	}

	for specifier, want := range cases {
		if got := ClassifySpecifier(specifier); got != want {
			t.Errorf("ClassifySpecifier(%q) = %v, want %v", specifier, got, want)
		}
	}
}

func TestClassifySpecifierIsTotal(t *testing.T) {
	// every non-empty string must map to exactly one of the four types.
	samples := []string{"a", "a/b", ".a", "..a", "/", "file:", "file:x", "x:y", "x:/y"}
	for _, s := range samples {
		got := ClassifySpecifier(s)
		if got == SpecifierTypeNone {
			t.Errorf("ClassifySpecifier(%q) unexpectedly invalid", s)
		}
	}
}

func TestDirname(t *testing.T) {
	cases := []struct{ in, want string }{
		{"/a/b/c.js", "/a/b"},
		{"/a/b/c/", "/a/b"},
		{"/a", "/"},
	}
	for _, c := range cases {
		got, ok := Dirname(c.in)
		if !ok || got != c.want {
			t.Errorf("Dirname(%q) = %q,%v want %q", c.in, got, ok, c.want)
		}
	}
}

func TestBasename(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantOk  bool
	}{
		{"/a/b/c.js", "c.js", true},
		{"", "", false},
		{".", "", false},
		{"..", "", false},
		{"/a/b/", "", false},
	}
	for _, c := range cases {
		got, ok := Basename(c.in)
		if ok != c.wantOk || got != c.want {
			t.Errorf("Basename(%q) = %q,%v want %q,%v", c.in, got, ok, c.want, c.wantOk)
		}
	}
}

func TestFormat(t *testing.T) {
	cases := map[string]string{
		"a.js":       "js",
		".js":        "none",
		"a.cjs":      "commonjs",
		"a.mjs":      "module",
		"a.snapshot": "snapshot",
		"a.txt":      "none",
	}
	for in, want := range cases {
		if got := Format(in); got != want {
			t.Errorf("Format(%q) = %q want %q", in, got, want)
		}
	}
}

func TestToFileURLPosix(t *testing.T) {
	got, ok := ToFileURL("/m/x.mjs", false)
	if !ok || got != "file:///m/x.mjs" {
		t.Fatalf("ToFileURL = %q,%v", got, ok)
	}
}

func TestToFileURLEncodesReservedBytes(t *testing.T) {
	got, ok := ToFileURL("/a b/c#d.js", false)
	if !ok {
		t.Fatal("expected ok")
	}
	want := "file:///a%20b/c%23d.js"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestToFileURLEmptyPathFails(t *testing.T) {
	if _, ok := ToFileURL("", false); ok {
		t.Fatal("expected failure on empty path")
	}
}

func TestToFileURLRelativePathFails(t *testing.T) {
	// relative paths are not handled by this function, matching the
	// original annex_path_to_file_url behavior.
	if _, ok := ToFileURL("relative/path.js", false); ok {
		t.Fatal("expected failure on relative path")
	}
}
