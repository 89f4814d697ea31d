package inputpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBindsDistinctLoopbackPorts(t *testing.T) {
	p, err := New(4)
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, 4, p.Len())
	assert.Equal(t, 4, p.Free())

	seen := map[string]bool{}
	for i := 0; i < p.Len(); i++ {
		ep := p.Port(i).Endpoint
		require.False(t, seen[ep.String()], "duplicate endpoint %s", ep)
		seen[ep.String()] = true

		idx, ok := p.IndexOf(ep)
		require.True(t, ok)
		assert.Equal(t, i, idx)
	}
}

func TestAcquireReleaseConservation(t *testing.T) {
	p, err := New(3)
	require.NoError(t, err)
	defer p.Close()

	a, ok := p.Acquire()
	require.True(t, ok)
	b, ok := p.Acquire()
	require.True(t, ok)
	assert.Equal(t, 1, p.Free())

	p.Release(a.Index)
	assert.Equal(t, 2, p.Free())

	c, ok := p.Acquire()
	require.True(t, ok)
	assert.Equal(t, a.Index, c.Index)
	_ = b
}

func TestAcquireExhaustion(t *testing.T) {
	p, err := New(1)
	require.NoError(t, err)
	defer p.Close()

	_, ok := p.Acquire()
	require.True(t, ok)

	_, ok = p.Acquire()
	assert.False(t, ok)
}
