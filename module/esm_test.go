package module

import (
	"testing"

	"github.com/dop251/goja"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/lightsourceengine/jjs-go/platform"
	"github.com/lightsourceengine/jjs-go/pmap"
	"github.com/lightsourceengine/jjs-go/vmod"
)

type esmFixture struct {
	rt   *goja.Runtime
	esm  *ESMLoader
	cjs  *CJSLoader
	vmod *vmod.Registry
	pf   platform.Platform
}

func newESMFixture(t *testing.T, files map[string]string, pm *pmap.Map) *esmFixture {
	t.Helper()
	fs := afero.NewMemMapFs()
	for p, content := range files {
		require.NoError(t, afero.WriteFile(fs, p, []byte(content), 0o644))
	}
	pf := platform.NewDefault(fs, logrus.NewEntry(logrus.New()))
	resolver := &DefaultResolver{Platform: pf, PMap: pm}

	rt := goja.New()
	vm := vmod.New(rt)
	cjs := NewCJSLoader(rt, resolver.Resolve, resolver.Load, vm)
	esm := NewESMLoader(rt, resolver.Resolve, resolver.Load, cjs, vm)

	return &esmFixture{rt: rt, esm: esm, cjs: cjs, vmod: vm, pf: pf}
}

func TestESMDefaultFromCJS(t *testing.T) {
	// S3: import d from "./c.cjs" -> d === 42.
	f := newESMFixture(t, map[string]string{
		"/m/c.cjs": "module.exports = 42;",
	}, nil)

	mod, err := f.esm.EsmRead("./c.cjs", "/m")
	require.NoError(t, err)

	ns, err := f.esm.LinkAndEvaluate(mod, ResultNamespace)
	require.NoError(t, err)

	nsObj := ns.ToObject(f.rt)
	require.EqualValues(t, 42, nsObj.Get("default").Export())
}

func TestESMResolvesViaPackageMap(t *testing.T) {
	// S4: pmap root /r, packages {"pkg": {"main": "sub/entry.js"}};
	// require("pkg") / import "pkg" resolves to /r/sub/entry.js.
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/r/sub/entry.js", []byte("export const v = 7;"), 0o644))
	pf := platform.NewDefault(fs, logrus.NewEntry(logrus.New()))

	pm, err := pmap.Load(`{"packages": {"pkg": {"main": "sub/entry.js"}}}`, "/r", pf)
	require.NoError(t, err)

	f := newESMFixture(t, nil, pm)
	f.pf = pf

	res, err := (&DefaultResolver{Platform: pf, PMap: pm}).Resolve("pkg", ResolveOptions{Kind: KindModule})
	require.NoError(t, err)
	require.Equal(t, "/r/sub/entry.js", res.Path)
}

func TestESMVmodObjectExports(t *testing.T) {
	// S5: vmod "env" -> require("env").PORT === 8080;
	// import {PORT} from "env" yields 8080; import e from "env" yields exports object.
	f := newESMFixture(t, nil, nil)

	cfg := f.rt.NewObject()
	exportsObj := f.rt.NewObject()
	require.NoError(t, exportsObj.Set("PORT", f.rt.ToValue(8080)))
	require.NoError(t, cfg.Set("exports", exportsObj))
	require.NoError(t, f.vmod.Register("env", cfg))

	cjsExports, err := f.cjs.Require("env", "/m")
	require.NoError(t, err)
	require.EqualValues(t, 8080, cjsExports.Get("PORT").Export())

	mod, err := f.esm.EsmRead("env", "/m")
	require.NoError(t, err)
	ns, err := f.esm.LinkAndEvaluate(mod, ResultNamespace)
	require.NoError(t, err)
	nsObj := ns.ToObject(f.rt)
	require.EqualValues(t, 8080, nsObj.Get("PORT").Export())
	require.Same(t, exportsObj, nsObj.Get("default"))
}

func TestESMCacheIsStableAcrossReads(t *testing.T) {
	f := newESMFixture(t, map[string]string{
		"/m/a.mjs": "export const v = 1;",
	}, nil)

	first, err := f.esm.EsmRead("./a.mjs", "/m")
	require.NoError(t, err)
	second, err := f.esm.EsmRead("./a.mjs", "/m")
	require.NoError(t, err)
	require.Same(t, first, second)
}

func TestImportMetaPopulatesURLOnce(t *testing.T) {
	// S6: import.meta.url equals file:///m/x.mjs.
	f := newESMFixture(t, map[string]string{
		"/m/x.mjs": "export const v = 1;",
		"/m/y.mjs": "export const v = 2;",
	}, nil)

	mod, err := f.esm.EsmRead("/m/x.mjs", "")
	require.NoError(t, err)

	popper := NewImportMetaPopulator(f.rt, f.esm)
	meta := f.rt.NewObject()
	popper.Populate(mod, meta)

	require.Equal(t, "file:///m/x.mjs", meta.Get("url").Export())

	meta2 := f.rt.NewObject()
	popper.Populate(mod, meta2)
	require.True(t, goja.IsUndefined(meta2.Get("url")))
}

func TestInvalidFormatFailsESMRead(t *testing.T) {
	f := newESMFixture(t, map[string]string{
		"/m/a.txt": "irrelevant",
	}, nil)

	_, err := f.esm.EsmRead("./a.txt", "/m")
	require.Error(t, err)
}
