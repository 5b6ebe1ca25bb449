package pool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type item struct {
	Value int
}

func TestPool(t *testing.T) {
	resets := 0
	p := NewPool(
		func() *item { return &item{} },
		func(v *item) { resets++; v.Value = 0 },
		func(*item) {},
	)

	v := p.Get()
	require.NotNil(t, v)
	require.Equal(t, uint64(1), p.Allocated())

	v.Value = 42
	p.Put(v, nil)
	require.Equal(t, 1, resets)
	require.Equal(t, 0, v.Value)
	require.Equal(t, uint64(1), p.Returned())
}
