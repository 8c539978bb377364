// Package packet defines the unit of data that flows between elements.
package packet

import (
	"fmt"

	"github.com/sarchlab/pktflow/sim/id"
	"github.com/sarchlab/pktflow/sim/timing"
)

// A Packet is an opaque unit of data with a length and a creation time.
// Packets are compared by identity. A packet is owned by exactly one element
// at a time and moves between elements by push and pop.
type Packet struct {
	ID           string
	Name         string
	Length       int64 // in bits
	CreationTime timing.VTimeInSec
	UserPriority int
	Tags         map[string]any
}

// B converts a number of bytes to bits.
func B(n int64) int64 {
	return n * 8
}

// ByteLength returns the length of the packet in whole bytes.
func (p *Packet) ByteLength() int64 {
	return (p.Length + 7) / 8
}

// Dup returns a copy of the packet with a fresh ID. Tags are copied
// shallowly.
func (p *Packet) Dup() *Packet {
	dup := *p
	dup.ID = id.Generate()

	if p.Tags != nil {
		dup.Tags = make(map[string]any, len(p.Tags))
		for k, v := range p.Tags {
			dup.Tags[k] = v
		}
	}

	return &dup
}

// Tag returns the tag with the given key.
func (p *Packet) Tag(key string) (any, bool) {
	v, ok := p.Tags[key]
	return v, ok
}

// SetTag attaches a tag to the packet.
func (p *Packet) SetTag(key string, value any) {
	if p.Tags == nil {
		p.Tags = make(map[string]any)
	}

	p.Tags[key] = value
}

func (p *Packet) String() string {
	return fmt.Sprintf("%s(%s, %d b)", p.Name, p.ID, p.Length)
}

// TotalLength returns the sum of the lengths of the packets.
func TotalLength(pkts []*Packet) int64 {
	var l int64
	for _, p := range pkts {
		l += p.Length
	}

	return l
}

// Builder can build packets.
type Builder struct {
	name         string
	length       int64
	creationTime timing.VTimeInSec
	userPriority int
}

// MakeBuilder returns a Builder.
func MakeBuilder() Builder {
	return Builder{}
}

// WithName sets the name of the packet.
func (b Builder) WithName(name string) Builder {
	b.name = name
	return b
}

// WithLength sets the length of the packet in bits.
func (b Builder) WithLength(bits int64) Builder {
	b.length = bits
	return b
}

// WithByteLength sets the length of the packet in bytes.
func (b Builder) WithByteLength(bytes int64) Builder {
	b.length = B(bytes)
	return b
}

// WithCreationTime sets the time the packet is created.
func (b Builder) WithCreationTime(t timing.VTimeInSec) Builder {
	b.creationTime = t
	return b
}

// WithUserPriority sets the user priority of the packet.
func (b Builder) WithUserPriority(priority int) Builder {
	b.userPriority = priority
	return b
}

// Build creates a new packet.
func (b Builder) Build() *Packet {
	if b.length < 0 {
		panic("packet length must not be negative")
	}

	return &Packet{
		ID:           id.Generate(),
		Name:         b.name,
		Length:       b.length,
		CreationTime: b.creationTime,
		UserPriority: b.userPriority,
	}
}
