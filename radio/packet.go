// Package radio implements the wireless link between the keyboard halves and
// the dongle: a fixed-format packet, drop-oldest packet mailboxes, and the
// connection state machines for the central, peripheral and relay roles.
package radio

import "fmt"

const (
	// BufferSize is the payload capacity of one packet.
	BufferSize = 32
	// metaSize covers the length, id and type bytes.
	metaSize = 3
)

// Type is the packet type byte.
type Type uint8

const (
	TypeData Type = iota
	TypeAck
	TypeAdvertise
	TypeEstablishConnection
)

func (t Type) String() string {
	switch t {
	case TypeData:
		return "data"
	case TypeAck:
		return "ack"
	case TypeAdvertise:
		return "advertise"
	case TypeEstablishConnection:
		return "establish"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}

// Packet is one on-air frame. Addr is the sender's pipe address, set by the
// receiving radio rather than carried in the buffer. The buffer layout is
// [len][id][type][payload...], where the length byte counts the id and type
// bytes but not itself.
type Packet struct {
	Addr   uint8
	buffer [BufferSize + metaSize]byte
}

// NewPacket returns an empty packet (length 0).
func NewPacket() Packet {
	var p Packet
	p.buffer[0] = metaSize - 1
	return p
}

// Len returns the payload length.
func (p *Packet) Len() int {
	return int(p.buffer[0]) - (metaSize - 1)
}

// SetLen sets the payload length.
func (p *Packet) SetLen(n int) {
	p.buffer[0] = uint8(metaSize-1) + uint8(n)
}

// IsEmpty reports whether the packet carries no payload.
func (p *Packet) IsEmpty() bool { return p.Len() == 0 }

// ID returns the sequence/identity byte.
func (p *Packet) ID() uint8 { return p.buffer[1] }

// SetID sets the sequence/identity byte.
func (p *Packet) SetID(id uint8) { p.buffer[1] = id }

// Type returns the packet type byte.
func (p *Packet) Type() Type { return Type(p.buffer[2]) }

// SetType sets the packet type byte.
func (p *Packet) SetType(t Type) { p.buffer[2] = uint8(t) }

// Payload returns the live payload slice.
func (p *Packet) Payload() []byte {
	return p.buffer[metaSize : metaSize+p.Len()]
}

// CopyFromSlice replaces the payload with src and updates the length.
func (p *Packet) CopyFromSlice(src []byte) {
	if len(src) > BufferSize {
		panic("radio: payload exceeds packet capacity")
	}
	copy(p.buffer[metaSize:], src)
	p.SetLen(len(src))
}
