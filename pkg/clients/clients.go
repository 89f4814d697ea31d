// Package clients implements the client table: the set of known
// clients keyed by endpoint, their last-activity timestamp, and the
// optional input/slot assignment and sink/source role flags.
//
// Grounded on original_source/server.cpp's client_sockaddrs /
// source_client_sockaddrs / sink_client_sockaddrs / client_activity /
// client_routes maps, collapsed into one record per client per
// DESIGN NOTES §9.
package clients

import (
	"time"

	"github.com/animatour/animatour/pkg/netaddr"
)

// Client is the per-endpoint record the event loop maintains.
type Client struct {
	Endpoint     netaddr.Endpoint
	LastActivity time.Time
	Sink         bool // every admitted client is a sink
	Source       bool
	Input        int // valid iff Source
	Slot         int // valid iff Source
	Datagrams    uint64
}

// Table is the set of known clients plus the parallel SOURCE/SINK
// indices the grid and fan-out logic need.
type Table struct {
	byEndpoint map[netaddr.Endpoint]*Client
	sources    map[netaddr.Endpoint]bool
	sinks      map[netaddr.Endpoint]bool
}

// New returns an empty client table.
func New() *Table {
	return &Table{
		byEndpoint: make(map[netaddr.Endpoint]*Client),
		sources:    make(map[netaddr.Endpoint]bool),
		sinks:      make(map[netaddr.Endpoint]bool),
	}
}

// Get returns the client at ep, if known.
func (t *Table) Get(ep netaddr.Endpoint) (*Client, bool) {
	c, ok := t.byEndpoint[ep]
	return c, ok
}

// Has reports whether ep is a known client.
func (t *Table) Has(ep netaddr.Endpoint) bool {
	_, ok := t.byEndpoint[ep]
	return ok
}

// AddSink inserts a brand-new client as a SINK. It is a no-op if the
// client is already known.
func (t *Table) AddSink(ep netaddr.Endpoint, now time.Time) *Client {
	if c, ok := t.byEndpoint[ep]; ok {
		return c
	}
	c := &Client{Endpoint: ep, LastActivity: now, Sink: true}
	t.byEndpoint[ep] = c
	t.sinks[ep] = true
	return c
}

// PromoteSource marks an already-known client as a SOURCE, recording
// its assigned input and slot. The caller is responsible for popping
// those from their pools first.
func (t *Table) PromoteSource(ep netaddr.Endpoint, input, slot int) {
	c, ok := t.byEndpoint[ep]
	if !ok {
		return
	}
	c.Source = true
	c.Input = input
	c.Slot = slot
	t.sources[ep] = true
}

// SetSlot updates a SOURCE client's slot assignment, used when
// compaction moves it to a lower-numbered slot.
func (t *Table) SetSlot(ep netaddr.Endpoint, slot int) {
	if c, ok := t.byEndpoint[ep]; ok {
		c.Slot = slot
	}
}

// Touch updates a client's last-activity timestamp.
func (t *Table) Touch(ep netaddr.Endpoint, now time.Time) {
	if c, ok := t.byEndpoint[ep]; ok {
		c.LastActivity = now
	}
}

// CountDatagram increments a client's forwarded/fanned-out counter.
func (t *Table) CountDatagram(ep netaddr.Endpoint) {
	if c, ok := t.byEndpoint[ep]; ok {
		c.Datagrams++
	}
}

// Remove deletes a client from every index.
func (t *Table) Remove(ep netaddr.Endpoint) {
	delete(t.byEndpoint, ep)
	delete(t.sources, ep)
	delete(t.sinks, ep)
}

// Sources returns every client currently in the SOURCE role. The
// returned slice is a fresh copy safe to range over while mutating t.
func (t *Table) Sources() []*Client {
	out := make([]*Client, 0, len(t.sources))
	for ep := range t.sources {
		out = append(out, t.byEndpoint[ep])
	}
	return out
}

// Sinks returns every SINK client (every known client is a sink). The
// returned slice is a fresh copy safe to range over while mutating t.
func (t *Table) Sinks() []*Client {
	out := make([]*Client, 0, len(t.sinks))
	for ep := range t.sinks {
		out = append(out, t.byEndpoint[ep])
	}
	return out
}

// Len returns the number of known clients.
func (t *Table) Len() int { return len(t.byEndpoint) }

// Idle returns every known client whose last activity is older than
// limit as of now.
func (t *Table) Idle(now time.Time, limit time.Duration) []*Client {
	var idle []*Client
	for _, c := range t.byEndpoint {
		if now.Sub(c.LastActivity) > limit {
			idle = append(idle, c)
		}
	}
	return idle
}
