// Package slotpool implements the LIFO stack of free grid slots and the
// compaction procedure that keeps assigned slots contiguous at the low
// end after a batch of removals.
//
// Grounded on original_source/server.cpp's positions_available stack
// and compact_positions.
package slotpool

import "sort"

// Pool is a LIFO stack of free slot indices in [0, N).
type Pool struct {
	free []int // free[len-1] is the next slot to hand out
}

// New returns a pool seeded with slots [N-1, N-2, ..., 0], so that
// successive allocations hand out 0, 1, 2, ... in order.
func New(n int) *Pool {
	p := &Pool{free: make([]int, 0, n)}
	for i := n - 1; i >= 0; i-- {
		p.free = append(p.free, i)
	}
	return p
}

// Acquire pops the slot on top of the stack: the most recently
// released one, which is the lowest-numbered free slot whenever the
// stack is in the order New or Compact leaves it. ok is false if the
// pool is exhausted.
func (p *Pool) Acquire() (slot int, ok bool) {
	if len(p.free) == 0 {
		return 0, false
	}
	n := len(p.free) - 1
	slot = p.free[n]
	p.free = p.free[:n]
	return slot, true
}

// Release returns a slot to the pool.
func (p *Pool) Release(slot int) {
	p.free = append(p.free, slot)
}

// Free returns the number of currently free slots.
func (p *Pool) Free() int { return len(p.free) }

// Reassignment records that client holding `from` must move to `to`.
type Reassignment struct {
	From, To int
}

// Compact restores contiguity of assigned slots after a batch of
// removals: it sorts the free stack so the lowest free slot is on top,
// then, given `assigned` (the slots currently held by SOURCE clients,
// in any order), moves the highest assigned slot above the lowest free
// slot down into that free slot, repeating until no assigned slot
// exceeds the lowest remaining free slot or the free stack is drained.
//
// It mutates the pool's free list and returns the sequence of moves
// the caller must apply (reposition the mixer pad, update any
// slot->client maps) in order.
func (p *Pool) Compact(assigned []int) []Reassignment {
	if len(p.free) == 0 {
		return nil
	}

	sort.Sort(sort.Reverse(sort.IntSlice(p.free)))

	if len(assigned) == 0 {
		return nil
	}

	occupied := make(map[int]bool, len(assigned))
	for _, s := range assigned {
		occupied[s] = true
	}

	var moves []Reassignment
	for {
		if len(p.free) == 0 {
			break
		}
		m := p.free[len(p.free)-1]

		highest := -1
		for s := range occupied {
			if s > highest {
				highest = s
			}
		}
		if highest <= m {
			break
		}

		p.free = p.free[:len(p.free)-1]
		p.free = append(p.free, highest)
		sort.Sort(sort.Reverse(sort.IntSlice(p.free)))

		delete(occupied, highest)
		occupied[m] = true
		moves = append(moves, Reassignment{From: highest, To: m})
	}
	return moves
}
