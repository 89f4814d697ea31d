// Package netaddr implements the address codec: comparison, hashing,
// parsing and formatting of the endpoints that key the client table and
// the input-port pool.
package netaddr

import (
	"bytes"
	"fmt"
	"net"
	"net/netip"
)

// Endpoint is an IP address + UDP port pair. It is immutable once
// constructed and totally ordered by (address, port), so it can key a
// map or a tree-based set directly.
type Endpoint struct {
	addr netip.Addr
	port uint16
}

// FromUDPAddr builds an Endpoint from a resolved *net.UDPAddr, the value
// recvfrom/ReadFromUDP hands back for every datagram.
func FromUDPAddr(addr *net.UDPAddr) Endpoint {
	ip, _ := netip.AddrFromSlice(addr.IP.To16())
	return Endpoint{addr: ip.Unmap(), port: uint16(addr.Port)}
}

// FromAddrPort builds an Endpoint from a netip.AddrPort, the value
// net.UDPConn.ReadFromUDPAddrPort returns.
func FromAddrPort(ap netip.AddrPort) Endpoint {
	return Endpoint{addr: ap.Addr().Unmap(), port: ap.Port()}
}

// Parse parses a "host:port" string into an Endpoint.
func Parse(s string) (Endpoint, error) {
	ap, err := netip.ParseAddrPort(s)
	if err != nil {
		return Endpoint{}, fmt.Errorf("netaddr: parse %q: %w", s, err)
	}
	return FromAddrPort(ap), nil
}

// IsValid reports whether the Endpoint was ever populated.
func (e Endpoint) IsValid() bool { return e.addr.IsValid() }

// UDPAddr converts the Endpoint back to a *net.UDPAddr suitable for
// WriteTo/WriteToUDP.
func (e Endpoint) UDPAddr() *net.UDPAddr {
	return net.UDPAddrFromAddrPort(e.AddrPort())
}

// AddrPort returns the netip.AddrPort representation.
func (e Endpoint) AddrPort() netip.AddrPort {
	return netip.AddrPortFrom(e.addr, e.port)
}

// String formats the Endpoint as "host:port".
func (e Endpoint) String() string {
	if !e.IsValid() {
		return "<invalid>"
	}
	return e.AddrPort().String()
}

// Compare orders endpoints by address then port, giving the total order
// the data model requires for tree-based client sets.
func (e Endpoint) Compare(other Endpoint) int {
	if c := bytes.Compare(e.addr.AsSlice(), other.addr.AsSlice()); c != 0 {
		return c
	}
	if e.port < other.port {
		return -1
	}
	if e.port > other.port {
		return 1
	}
	return 0
}

// Less reports whether e sorts before other under Compare.
func (e Endpoint) Less(other Endpoint) bool { return e.Compare(other) < 0 }
