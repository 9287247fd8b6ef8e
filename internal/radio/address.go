package radio

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// octetCount is the number of octets in an IPv4 address.
const octetCount = 4

// Octets is a 4-octet IPv4 address in network (big-endian) order.
// Octets[0] is the most significant byte: 192.168.1.10 is {192, 168, 1, 10}.
type Octets [octetCount]byte

// Uint32 returns the address as a 32-bit integer in big-endian order,
// so 192.168.1.10 becomes 0xC0A8010A.
func (o Octets) Uint32() uint32 {
	return binary.BigEndian.Uint32(o[:])
}

// String renders the address as a dotted quad.
func (o Octets) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", o[0], o[1], o[2], o[3])
}

// IsZero reports whether the address is 0.0.0.0 (unset).
func (o Octets) IsZero() bool {
	return o == Octets{}
}

// ParseOctets parses a dotted-quad string into Octets.
//
// Returns an error if the string does not contain exactly four decimal
// components in [0, 255].
func ParseOctets(s string) (Octets, error) {
	parts := strings.Split(s, ".")
	if len(parts) != octetCount {
		return Octets{}, fmt.Errorf("parsing address %q: want 4 octets, got %d", s, len(parts))
	}

	var o Octets
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return Octets{}, fmt.Errorf("parsing address %q: octet %d: %w", s, i, err)
		}
		if n < 0 || n > 255 {
			return Octets{}, fmt.Errorf("parsing address %q: octet %d out of range", s, i)
		}
		o[i] = byte(n)
	}
	return o, nil
}

// Endpoint identifies the broker: a 4-octet address plus a port.
// Immutable for the life of the process.
type Endpoint struct {
	Address Octets
	Port    int
}

// String renders the endpoint as "host:port", suitable for net.Dial.
func (e Endpoint) String() string {
	return fmt.Sprintf("%s:%d", e.Address, e.Port)
}
