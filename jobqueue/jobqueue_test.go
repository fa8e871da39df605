package jobqueue

import (
	"testing"

	"github.com/dop251/goja"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestRunDrainsFIFOOrder(t *testing.T) {
	q := New(logrus.NewEntry(logrus.New()))

	var order []int
	for i := 0; i < 3; i++ {
		i := i
		q.Enqueue(func() { order = append(order, i) })
	}

	require.True(t, q.HasPendingJobs())
	q.Run()
	require.False(t, q.HasPendingJobs())
	require.Equal(t, []int{0, 1, 2}, order)
}

func TestRunDrainsRecursiveEnqueues(t *testing.T) {
	q := New(logrus.NewEntry(logrus.New()))

	var order []string
	q.Enqueue(func() {
		order = append(order, "first")
		q.Enqueue(func() { order = append(order, "nested") })
	})

	q.Run()
	require.Equal(t, []string{"first", "nested"}, order)
}

func TestEnqueueMicrotaskInvokesWithUndefinedThisAndNoArgs(t *testing.T) {
	rt := goja.New()
	q := New(logrus.NewEntry(logrus.New()))

	var gotThis goja.Value
	var gotArgCount int
	fn, ok := goja.AssertFunction(rt.ToValue(func(call goja.FunctionCall) goja.Value {
		gotThis = call.This
		gotArgCount = len(call.Arguments)
		return goja.Undefined()
	}))
	require.True(t, ok)

	q.EnqueueMicrotask(fn)
	q.Run()

	require.True(t, goja.IsUndefined(gotThis))
	require.Equal(t, 0, gotArgCount)
}

func TestUnhandledRejectionRoutesToHandler(t *testing.T) {
	rt := goja.New()
	q := New(logrus.NewEntry(logrus.New()))

	var captured goja.Value
	q.SetUnhandledRejectionHandler(func(reason goja.Value) {
		captured = reason
	})

	fn, ok := goja.AssertFunction(rt.ToValue(func(call goja.FunctionCall) goja.Value {
		panic(rt.NewTypeError("boom"))
	}))
	require.True(t, ok)

	q.EnqueueMicrotask(fn)
	q.Run()

	require.NotNil(t, captured)
}
