package netaddr

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoundTrip(t *testing.T) {
	ep, err := Parse("127.0.0.1:27884")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:27884", ep.String())
	assert.True(t, ep.IsValid())
}

func TestFromUDPAddr(t *testing.T) {
	udp := &net.UDPAddr{IP: net.ParseIP("10.0.0.5"), Port: 4000}
	ep := FromUDPAddr(udp)
	assert.Equal(t, "10.0.0.5:4000", ep.String())
}

func TestCompareOrdersByAddressThenPort(t *testing.T) {
	a, _ := Parse("10.0.0.1:1000")
	b, _ := Parse("10.0.0.1:2000")
	c, _ := Parse("10.0.0.2:500")

	assert.True(t, a.Less(b))
	assert.True(t, b.Less(c))
	assert.False(t, b.Less(a))
	assert.Equal(t, 0, a.Compare(a))
}

func TestEndpointChangesPortIsDistinct(t *testing.T) {
	a, _ := Parse("192.168.1.10:5000")
	b, _ := Parse("192.168.1.10:5001")
	assert.NotEqual(t, a, b)
}
