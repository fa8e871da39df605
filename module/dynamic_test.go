package module

import (
	"testing"

	"github.com/dop251/goja"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/lightsourceengine/jjs-go/jobqueue"
	"github.com/lightsourceengine/jjs-go/platform"
)

func TestDynamicImportResolvesNamespace(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/m/x.mjs", []byte("export const v = 1;"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/m/y.mjs", []byte("export const v = 2;"), 0o644))
	pf := platform.NewDefault(fs, logrus.NewEntry(logrus.New()))
	resolver := &DefaultResolver{Platform: pf}

	rt := goja.New()
	cjs := NewCJSLoader(rt, resolver.Resolve, resolver.Load, nil)
	esm := NewESMLoader(rt, resolver.Resolve, resolver.Load, cjs, nil)
	jobs := jobqueue.New(logrus.NewEntry(logrus.New()))

	importer := NewDynamicImporter(rt, esm, pf, jobs)

	promise := importer.Import("./y.mjs", "/m/x.mjs")
	jobs.Run()

	require.Equal(t, goja.PromiseStateFulfilled, promise.State())
	ns := promise.Result().ToObject(rt)
	require.EqualValues(t, 2, ns.Get("v").Export())
}

func TestDynamicImportFileURLReferrerFails(t *testing.T) {
	fs := afero.NewMemMapFs()
	pf := platform.NewDefault(fs, logrus.NewEntry(logrus.New()))
	resolver := &DefaultResolver{Platform: pf}

	rt := goja.New()
	cjs := NewCJSLoader(rt, resolver.Resolve, resolver.Load, nil)
	esm := NewESMLoader(rt, resolver.Resolve, resolver.Load, cjs, nil)
	jobs := jobqueue.New(logrus.NewEntry(logrus.New()))

	importer := NewDynamicImporter(rt, esm, pf, jobs)

	promise := importer.Import("./y.mjs", "file:///m/x.mjs")
	jobs.Run()

	require.Equal(t, goja.PromiseStateRejected, promise.State())
}

func TestDynamicImportAlwaysReturnsPromiseSynchronously(t *testing.T) {
	fs := afero.NewMemMapFs()
	pf := platform.NewDefault(fs, logrus.NewEntry(logrus.New()))
	resolver := &DefaultResolver{Platform: pf}

	rt := goja.New()
	cjs := NewCJSLoader(rt, resolver.Resolve, resolver.Load, nil)
	esm := NewESMLoader(rt, resolver.Resolve, resolver.Load, cjs, nil)
	jobs := jobqueue.New(logrus.NewEntry(logrus.New()))

	importer := NewDynamicImporter(rt, esm, pf, jobs)

	promise := importer.Import("./missing.mjs", "")
	require.Equal(t, goja.PromiseStatePending, promise.State())

	jobs.Run()
	require.Equal(t, goja.PromiseStateRejected, promise.State())
}
