package engine

import (
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/require"
)

func TestHandleOwnershipTags(t *testing.T) {
	rt := goja.New()
	v := rt.ToValue(42)

	kept := Keeps(v)
	require.Equal(t, Keep, kept.Ownership)
	require.Equal(t, v, kept.Value)

	moved := Moves(v)
	require.Equal(t, Move, moved.Ownership)
}
