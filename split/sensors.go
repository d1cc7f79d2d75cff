package split

import (
	"context"
	"encoding/binary"

	"github.com/quillmk/quill/keystate"
	"github.com/quillmk/quill/radio"
)

// RemoteSensors feeds radioed key-state packets into the key engine as a
// sensor bank. Packets from the left half drive the first half of the
// switches, the right half the rest.
type RemoteSensors struct {
	recv      *radio.Mailbox
	leftAddr  uint8
	rightAddr uint8
}

// NewRemoteSensors returns a sensor bank fed from recv.
func NewRemoteSensors(recv *radio.Mailbox, leftAddr, rightAddr uint8) *RemoteSensors {
	return &RemoteSensors{recv: recv, leftAddr: leftAddr, rightAddr: rightAddr}
}

// UpdatePositions blocks for the next state packet and applies it to the
// sending half's switches. Packets from unknown addresses or with short
// payloads are dropped.
func (r *RemoteSensors) UpdatePositions(ctx context.Context, states []keystate.KeyState) error {
	p, err := r.recv.Pop(ctx)
	if err != nil {
		return err
	}
	if p.Len() < 4 {
		return nil
	}
	state := binary.LittleEndian.Uint32(p.Payload()[:4])

	offset := len(states) / 2
	var half []keystate.KeyState
	switch p.Addr {
	case r.leftAddr:
		half = states[:offset]
	case r.rightAddr:
		half = states[offset:]
	default:
		return nil
	}
	for i, s := range half {
		s.UpdateBuf(uint16(state >> i & 1))
	}
	return nil
}

// Setup runs the calibration loop. Remote halves report boolean state, so
// the switches settle on the first pass.
func (r *RemoteSensors) Setup(_ context.Context, states []keystate.KeyState) error {
	for {
		done := true
		for _, s := range states {
			if !s.Setup(0) {
				done = false
			}
		}
		if done {
			return nil
		}
	}
}
