// Package source provides the ends of a packet flow: sources that create
// packets and sinks that consume them.
package source

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sarchlab/pktflow/packet"
	"github.com/sarchlab/pktflow/sim/randstream"
	"github.com/sarchlab/pktflow/sim/timing"
)

// DefaultNameFormat names packets after their creator and a counter.
const DefaultNameFormat = "%n-%c"

// ValidateNameFormat checks that the format only uses the %n and %c
// directives.
func ValidateNameFormat(format string) error {
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			continue
		}

		if i+1 >= len(format) {
			return fmt.Errorf("name format %q ends with %%", format)
		}

		switch format[i+1] {
		case 'n', 'c':
			i++
		default:
			return fmt.Errorf("unknown directive %%%c in name format %q",
				format[i+1], format)
		}
	}

	return nil
}

// A PacketCreator makes the packets of a source.
type PacketCreator struct {
	nameFormat string
	length     int64
	priority   int

	numCreated  int
	totalLength int64
}

func (c *PacketCreator) name(owner string) string {
	var sb strings.Builder

	for i := 0; i < len(c.nameFormat); i++ {
		if c.nameFormat[i] != '%' || i+1 >= len(c.nameFormat) {
			sb.WriteByte(c.nameFormat[i])
			continue
		}

		i++

		switch c.nameFormat[i] {
		case 'n':
			sb.WriteString(owner)
		case 'c':
			sb.WriteString(strconv.Itoa(c.numCreated))
		}
	}

	return sb.String()
}

// Create makes the next packet. The owner names the packet and now becomes
// its creation time.
func (c *PacketCreator) Create(owner string, now timing.VTimeInSec) *packet.Packet {
	p := packet.MakeBuilder().
		WithName(c.name(owner)).
		WithLength(c.length).
		WithCreationTime(now).
		WithUserPriority(c.priority).
		Build()

	c.numCreated++
	c.totalLength += p.Length

	return p
}

// NumCreated returns the number of packets created.
func (c *PacketCreator) NumCreated() int {
	return c.numCreated
}

// TotalLength returns the total length of the packets created.
func (c *PacketCreator) TotalLength() int64 {
	return c.totalLength
}

// An Interval produces the time between two packets.
type Interval interface {
	Next() timing.VTimeInSec
}

// Constant is an Interval that never changes.
type Constant timing.VTimeInSec

// Next returns the constant.
func (c Constant) Next() timing.VTimeInSec {
	return timing.VTimeInSec(c)
}

// Exponential is an Interval drawn from an exponential distribution, which
// makes packets arrive as a Poisson process.
type Exponential struct {
	Mean timing.VTimeInSec
	Rand randstream.Source
}

// Next draws an interval.
func (e Exponential) Next() timing.VTimeInSec {
	return -e.Mean * math.Log(1-e.Rand.Float64())
}
