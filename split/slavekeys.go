package split

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/quillmk/quill/radio"
)

// scanInterval paces the half-side matrix scan.
const scanInterval = time.Millisecond

// SlaveKeys is a half's scan loop: scan the matrix and queue the packed key
// state for the radio whenever it changes.
type SlaveKeys struct {
	matrix *Matrix
	out    *radio.Mailbox
	last   uint32
}

// NewSlaveKeys returns a scan loop pushing state packets into out.
func NewSlaveKeys(matrix *Matrix, out *radio.Mailbox) *SlaveKeys {
	return &SlaveKeys{matrix: matrix, out: out}
}

// Run scans until the context ends.
func (s *SlaveKeys) Run(ctx context.Context) error {
	ticker := time.NewTicker(scanInterval)
	defer ticker.Stop()
	for {
		s.scan()
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// scan runs one matrix pass and queues the state if it changed.
func (s *SlaveKeys) scan() {
	s.matrix.Update()
	state := s.matrix.State()
	if state == s.last {
		return
	}
	s.last = state
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], state)
	p := radio.NewPacket()
	p.CopyFromSlice(buf[:])
	s.out.Push(p)
}
