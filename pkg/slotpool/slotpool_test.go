package slotpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireHandsOutSlotsInAscendingOrder(t *testing.T) {
	p := New(9)
	for want := 0; want < 9; want++ {
		slot, ok := p.Acquire()
		require.True(t, ok)
		assert.Equal(t, want, slot)
	}
	_, ok := p.Acquire()
	assert.False(t, ok, "pool of 9 must be exhausted after 9 acquisitions")
}

func TestReleaseThenAcquireReusesSlot(t *testing.T) {
	p := New(2)
	a, _ := p.Acquire()
	b, _ := p.Acquire()
	p.Release(a)
	got, ok := p.Acquire()
	require.True(t, ok)
	assert.Equal(t, a, got)
	assert.Equal(t, 1, b)
}

func TestConservationInvariant(t *testing.T) {
	const n = 9
	p := New(n)
	held := 0
	for i := 0; i < 5; i++ {
		if _, ok := p.Acquire(); ok {
			held++
		}
	}
	assert.Equal(t, n, held+p.Free())
}

// TestCompactRestoresContiguity models spec.md S4: A,B,C,D occupy
// slots 0-3, B (slot 1) is evicted, compaction must move D (slot 3)
// down into the vacated slot so the assigned set becomes {0,1,2}.
func TestCompactRestoresContiguity(t *testing.T) {
	p := New(9)
	for i := 0; i < 4; i++ {
		_, _ = p.Acquire()
	}
	p.Release(1) // B evicted

	moves := p.Compact([]int{0, 2, 3})
	require.Len(t, moves, 1)
	assert.Equal(t, Reassignment{From: 3, To: 1}, moves[0])

	assigned := map[int]bool{0: true, 2: true, 1: true}
	for s := range assigned {
		assert.Less(t, s, 3)
	}
	assert.Equal(t, 6, p.Free())
}

func TestCompactNoOpWhenAlreadyContiguous(t *testing.T) {
	p := New(9)
	for i := 0; i < 3; i++ {
		_, _ = p.Acquire()
	}
	moves := p.Compact([]int{0, 1, 2})
	assert.Nil(t, moves)
}

func TestCompactHandlesMultipleGaps(t *testing.T) {
	p := New(9)
	for i := 0; i < 6; i++ {
		_, _ = p.Acquire()
	}
	p.Release(1)
	p.Release(3)

	moves := p.Compact([]int{0, 2, 4, 5})
	// four assigned clients must end up packed into {0,1,2,3}
	finalSlots := map[int]bool{0: true, 2: true, 4: true, 5: true}
	for _, m := range moves {
		delete(finalSlots, m.From)
		finalSlots[m.To] = true
	}
	assert.Len(t, finalSlots, 4)
	for s := range finalSlots {
		assert.Less(t, s, 4)
	}
}
