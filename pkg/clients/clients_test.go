package clients

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/animatour/animatour/pkg/netaddr"
)

func ep(t *testing.T, s string) netaddr.Endpoint {
	t.Helper()
	e, err := netaddr.Parse(s)
	require.NoError(t, err)
	return e
}

func TestAddSinkIsIdempotent(t *testing.T) {
	tbl := New()
	now := time.Now()
	a := ep(t, "10.0.0.1:1")

	first := tbl.AddSink(a, now)
	second := tbl.AddSink(a, now.Add(time.Second))

	assert.Same(t, first, second)
	assert.Equal(t, 1, tbl.Len())
	assert.True(t, first.Sink)
	assert.False(t, first.Source)
}

func TestPromoteSourceSetsRoleAndAssignment(t *testing.T) {
	tbl := New()
	now := time.Now()
	a := ep(t, "10.0.0.1:1")

	tbl.AddSink(a, now)
	tbl.PromoteSource(a, 2, 0)

	c, ok := tbl.Get(a)
	require.True(t, ok)
	assert.True(t, c.Source)
	assert.Equal(t, 2, c.Input)
	assert.Equal(t, 0, c.Slot)

	sources := tbl.Sources()
	require.Len(t, sources, 1)
	assert.Equal(t, a, sources[0].Endpoint)
}

func TestSinksSupersetOfSources(t *testing.T) {
	tbl := New()
	now := time.Now()
	a := ep(t, "10.0.0.1:1")
	b := ep(t, "10.0.0.2:1")

	tbl.AddSink(a, now)
	tbl.AddSink(b, now)
	tbl.PromoteSource(a, 0, 0)

	assert.Len(t, tbl.Sinks(), 2)
	assert.Len(t, tbl.Sources(), 1)
}

func TestRemoveClearsAllIndices(t *testing.T) {
	tbl := New()
	now := time.Now()
	a := ep(t, "10.0.0.1:1")
	tbl.AddSink(a, now)
	tbl.PromoteSource(a, 0, 0)

	tbl.Remove(a)

	assert.False(t, tbl.Has(a))
	assert.Empty(t, tbl.Sources())
	assert.Empty(t, tbl.Sinks())
	assert.Equal(t, 0, tbl.Len())
}

func TestIdleDetectsStaleClients(t *testing.T) {
	tbl := New()
	base := time.Now()
	fresh := ep(t, "10.0.0.1:1")
	stale := ep(t, "10.0.0.2:1")

	tbl.AddSink(fresh, base)
	tbl.AddSink(stale, base.Add(-5*time.Second))

	idle := tbl.Idle(base, 2*time.Second)
	require.Len(t, idle, 1)
	assert.Equal(t, stale, idle[0].Endpoint)
}

func TestSetSlotMovesAssignment(t *testing.T) {
	tbl := New()
	now := time.Now()
	a := ep(t, "10.0.0.1:1")
	tbl.AddSink(a, now)
	tbl.PromoteSource(a, 0, 3)

	tbl.SetSlot(a, 1)

	c, _ := tbl.Get(a)
	assert.Equal(t, 1, c.Slot)
}

func TestTouchUpdatesLastActivityMonotonically(t *testing.T) {
	tbl := New()
	base := time.Now()
	a := ep(t, "10.0.0.1:1")
	tbl.AddSink(a, base)

	later := base.Add(time.Second)
	tbl.Touch(a, later)

	c, _ := tbl.Get(a)
	assert.Equal(t, later, c.LastActivity)
}
