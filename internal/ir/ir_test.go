package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendAssignsSequentialIDs(t *testing.T) {
	b := NewBlock()
	v0 := b.Append(OpZeroVector, E32)
	v1 := b.Append(OpNot, E32, ValueArg(v0))
	require.Equal(t, ValueID(0), v0)
	require.Equal(t, ValueID(1), v1)
}

func TestAppendTracksUseCount(t *testing.T) {
	b := NewBlock()
	v0 := b.Append(OpZeroVector, E32)
	require.Equal(t, 0, b.Get(v0).UseCount())
	b.Append(OpNot, E32, ValueArg(v0))
	require.Equal(t, 1, b.Get(v0).UseCount())
	b.Append(OpNot, E32, ValueArg(v0))
	require.Equal(t, 2, b.Get(v0).UseCount())
}

func TestAppendRejectsInvalidOpcode(t *testing.T) {
	b := NewBlock()
	require.Panics(t, func() { b.Append(OpInvalid, E32) })
}

func TestAppendRejectsForwardReference(t *testing.T) {
	b := NewBlock()
	require.Panics(t, func() {
		b.Append(OpNot, E32, ValueArg(ValueID(5)))
	})
}

func TestLaneBitWidthAndCount(t *testing.T) {
	cases := []struct {
		lane  Lane
		width int
		count int
	}{
		{E8, 8, 16},
		{E16, 16, 8},
		{E32, 32, 4},
		{E64, 64, 2},
		{E128, 128, 1},
	}
	for _, c := range cases {
		require.Equal(t, c.width, c.lane.BitWidth())
		require.Equal(t, c.count, c.lane.Count())
	}
}

func TestInstsPreservesTopologicalOrder(t *testing.T) {
	b := NewBlock()
	a := b.Append(OpZeroVector, E32)
	b2 := b.Append(OpZeroVector, E32)
	b.Append(OpAnd, E32, ValueArg(a), ValueArg(b2))
	insts := b.Insts()
	require.Len(t, insts, 3)
	require.Equal(t, OpAnd, insts[2].Op)
}
