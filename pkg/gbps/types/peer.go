package types

import (
	"bytes"
	"unicode/utf8"
)

// separator between a peer's address and its encoded age.
const separator = 0x2C // ','

const maxAge = 65535

// Peer is an identity + age record: a text-encoded socket address and a
// freshness counter. Two peers are equal iff their addresses are equal -
// age never participates in equality or hashing.
type Peer struct {
	Address string
	Age     uint16
}

// NewPeer returns a peer freshly observed at age 0.
func NewPeer(address string) Peer {
	return Peer{Address: address, Age: 0}
}

// Equal compares peers by address only, per the data model in spec.
func (p Peer) Equal(other Peer) bool {
	return p.Address == other.Address
}

// IncrementAge bumps the age by one, saturating at 65535.
func (p Peer) IncrementAge() Peer {
	if p.Age < maxAge {
		p.Age++
	}
	return p
}

// Encode serializes the peer: address bytes, one separator byte, then the
// age as two big-endian bytes.
func (p Peer) Encode() []byte {
	out := make([]byte, 0, len(p.Address)+3)
	out = append(out, p.Address...)
	out = append(out, separator)
	out = append(out, byte(p.Age>>8), byte(p.Age))
	return out
}

// DecodePeer parses a Peer encoded by Encode. It fails with
// ErrMissingSeparator if no separator byte is present, ErrInvalidAge if the
// separator isn't followed by exactly two bytes, and ErrInvalidAddress if
// the address prefix isn't valid UTF-8.
func DecodePeer(data []byte) (Peer, error) {
	idx := bytes.IndexByte(data, separator)
	if idx < 0 {
		return Peer{}, ErrMissingSeparator
	}
	if len(data) != idx+3 {
		return Peer{}, ErrInvalidAge
	}
	addr := data[:idx]
	if !utf8.Valid(addr) {
		return Peer{}, ErrInvalidAddress
	}
	age := uint16(data[idx+1])<<8 | uint16(data[idx+2])
	return Peer{Address: string(addr), Age: age}, nil
}
