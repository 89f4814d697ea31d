// Package inputpool manages the N pre-bound loopback datagram sockets
// handed to the media pipeline's decode inputs at startup. Index i in
// the pool is fixed to pipeline input i for the lifetime of the
// process; only the "free" vs "bound to a SOURCE client" state
// changes, via a LIFO stack mirroring pkg/slotpool.
//
// Grounded on original_source/server.cpp's init_udpsrcs and
// udpsrc_sockaddrs_available.
package inputpool

import (
	"fmt"
	"net"

	"github.com/animatour/animatour/pkg/netaddr"
)

// Port is one pre-bound pipeline input.
type Port struct {
	Index    int
	Conn     *net.UDPConn
	Endpoint netaddr.Endpoint
}

// Pool owns N loopback sockets, one per pipeline decode input, and the
// free-list stack over their indices.
type Pool struct {
	ports  []Port
	byAddr map[netaddr.Endpoint]int
	free   []int // indices into ports, free[len-1] handed out next
}

// New creates n loopback UDP sockets, each bound to an ephemeral port,
// and returns the pool ready to hand them to the pipeline's N decode
// inputs (see pkg/mixer). The sockets are never destroyed until Close.
func New(n int) (*Pool, error) {
	p := &Pool{
		ports:  make([]Port, n),
		byAddr: make(map[netaddr.Endpoint]int, n),
		free:   make([]int, 0, n),
	}

	for i := 0; i < n; i++ {
		conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("inputpool: bind input %d: %w", i, err)
		}
		ep := netaddr.FromUDPAddr(conn.LocalAddr().(*net.UDPAddr))
		p.ports[i] = Port{Index: i, Conn: conn, Endpoint: ep}
		p.byAddr[ep] = i
	}
	for i := n - 1; i >= 0; i-- {
		p.free = append(p.free, i)
	}
	return p, nil
}

// Acquire pops the input port on top of the free stack: the most
// recently released one, or the lowest-index port while none has been
// released yet.
func (p *Pool) Acquire() (Port, bool) {
	if len(p.free) == 0 {
		return Port{}, false
	}
	n := len(p.free) - 1
	idx := p.free[n]
	p.free = p.free[:n]
	return p.ports[idx], true
}

// Release returns an input port to the pool.
func (p *Pool) Release(idx int) {
	p.free = append(p.free, idx)
}

// Free returns the number of currently unbound input ports.
func (p *Pool) Free() int { return len(p.free) }

// Len returns N, the total number of input ports.
func (p *Pool) Len() int { return len(p.ports) }

// Port returns the i-th input port.
func (p *Pool) Port(i int) Port { return p.ports[i] }

// IndexOf returns the pipeline input index bound to the given local
// endpoint, and whether one was found.
func (p *Pool) IndexOf(ep netaddr.Endpoint) (int, bool) {
	i, ok := p.byAddr[ep]
	return i, ok
}

// Close closes every socket the pool ever created.
func (p *Pool) Close() {
	for _, port := range p.ports {
		if port.Conn != nil {
			_ = port.Conn.Close()
		}
	}
}
