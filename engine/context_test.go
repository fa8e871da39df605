package engine

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/lightsourceengine/jjs-go/module"
	"github.com/lightsourceengine/jjs-go/platform"
)

func TestLoadPackageMapThenImportResolves(t *testing.T) {
	// S4: pmap root /r, packages {"pkg": {"main": "sub/entry.js"}}.
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/r/sub/entry.js", []byte("export const v = 7;"), 0o644))
	pf := platform.NewDefault(fs, logrus.NewEntry(logrus.New()))

	ctx := NewContext(pf, DefaultConfig())
	require.NoError(t, ctx.LoadPackageMap(`{"packages": {"pkg": {"main": "sub/entry.js"}}}`, "/r"))
	require.NotNil(t, ctx.PackageMap())

	realm, err := ctx.NewRealm()
	require.NoError(t, err)

	ns, err := realm.ImportModule("pkg")
	require.NoError(t, err)
	require.EqualValues(t, 7, ns.Get("v").Export())
}

func TestNewRealmsAreIndependent(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/a.cjs", []byte("module.exports = {n: 0};"), 0o644))
	pf := platform.NewDefault(fs, logrus.NewEntry(logrus.New()))
	ctx := NewContext(pf, DefaultConfig())

	r1, err := ctx.NewRealm()
	require.NoError(t, err)
	r2, err := ctx.NewRealm()
	require.NoError(t, err)

	_, err = r1.Runtime().RunString(`vmod('shared', {format: 'object', exports: {v: 1}});`)
	require.NoError(t, err)

	require.True(t, r1.Vmod().Exists("shared"))
	require.False(t, r2.Vmod().Exists("shared"))
}

func TestOnResolveOverrideBypassesDefaultFilesystem(t *testing.T) {
	pf := platform.NewDefault(afero.NewMemMapFs(), logrus.NewEntry(logrus.New()))
	ctx := NewContext(pf, DefaultConfig())

	ctx.OnResolve = func(specifier string, opts module.ResolveOptions) (module.ResolveResult, error) {
		return module.ResolveResult{Path: "/virtual/" + specifier, Format: module.FormatModule}, nil
	}
	ctx.OnLoad = func(path string, opts module.LoadOptions) (module.LoadResult, error) {
		return module.LoadResult{Source: "export const from = " + `"` + path + `";`, Format: module.FormatModule}, nil
	}

	realm, err := ctx.NewRealm()
	require.NoError(t, err)

	ns, err := realm.ImportModule("widget")
	require.NoError(t, err)
	require.EqualValues(t, "/virtual/widget", ns.Get("from").Export())
}
