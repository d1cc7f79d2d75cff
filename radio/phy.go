package radio

import (
	"context"
	"errors"
	"time"
)

// Pipe addresses. The dongle listens on its own base address; the keyboard
// halves share a base with distinct prefixes.
const (
	DongleAddress   uint32 = 0x0A550A55
	DonglePrefix    uint8  = 0x42
	KeyboardAddress uint32 = 0x07270727
	LeftPrefix      uint8  = 0x21
	RightPrefix     uint8  = 0x25
)

// Addresses configures a radio's base addresses and pipe prefixes.
type Addresses struct {
	Base   [2]uint32
	Prefix [2][4]uint8
}

// DefaultAddresses returns the dongle/keyboard address plan.
func DefaultAddresses() Addresses {
	var a Addresses
	a.Base[0] = DongleAddress
	a.Base[1] = KeyboardAddress
	a.Prefix[0][0] = DonglePrefix
	a.Prefix[0][1] = LeftPrefix
	a.Prefix[0][2] = RightPrefix
	return a
}

// Link timing. One connection event per task period; the central polls each
// peripheral for maxConnectionEvents receive slots before taking a send
// slot.
const (
	receiveTimeout   = 600 * time.Microsecond
	taskTimeout      = time.Millisecond
	ackTimeout       = 200 * time.Microsecond
	advertiseTimeout = 500 * time.Millisecond

	numRetries = 3

	// NumConnections is how many peripherals a central serves.
	NumConnections = 1

	maxConnectionEvents = 500
	maxMissedEvents     = 5
)

// ErrCRC marks a corrupt frame. Receivers skip it and keep listening.
var ErrCRC = errors.New("radio: crc check failed")

// Phy is the raw packet radio. Receive blocks until a frame arrives or the
// context ends; Send blocks until the frame is on air.
type Phy interface {
	Send(ctx context.Context, p Packet) error
	Receive(ctx context.Context) (Packet, error)
}

// receiveWith listens for up to timeout for a packet matching cond. Corrupt
// and non-matching frames are skipped. Returns ok=false on timeout; an error
// only when the parent context ends or the phy fails.
func receiveWith(ctx context.Context, phy Phy, timeout time.Duration, cond func(*Packet) bool) (Packet, bool, error) {
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	for {
		p, err := phy.Receive(tctx)
		if errors.Is(err, ErrCRC) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return Packet{}, false, ctx.Err()
			}
			if tctx.Err() != nil {
				return Packet{}, false, nil
			}
			return Packet{}, false, err
		}
		if cond(&p) {
			return p, true, nil
		}
	}
}

// sleepUntil blocks until deadline or context end.
func sleepUntil(ctx context.Context, deadline time.Time) error {
	d := time.Until(deadline)
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
