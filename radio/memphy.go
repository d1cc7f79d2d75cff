package radio

import (
	"context"
	"sync"
)

// MemHub is a broadcast medium joining MemPhy nodes, standing in for the
// shared 2.4GHz channel in tests and the host simulator.
type MemHub struct {
	mu    sync.Mutex
	nodes []*MemPhy
}

// NewMemHub returns an empty hub.
func NewMemHub() *MemHub {
	return &MemHub{}
}

// Join adds a node with the given pipe address.
func (h *MemHub) Join(addr uint8) *MemPhy {
	n := &MemPhy{
		hub:  h,
		addr: addr,
		rx:   make(chan Packet, 16),
	}
	h.mu.Lock()
	h.nodes = append(h.nodes, n)
	h.mu.Unlock()
	return n
}

// MemPhy is one radio on a MemHub. Sends are broadcast to every other node;
// a node whose receive queue is full drops the frame, like any radio that
// was not listening.
type MemPhy struct {
	hub  *MemHub
	addr uint8
	rx   chan Packet
}

func (p *MemPhy) Send(ctx context.Context, pkt Packet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	pkt.Addr = p.addr
	p.hub.mu.Lock()
	defer p.hub.mu.Unlock()
	for _, n := range p.hub.nodes {
		if n == p {
			continue
		}
		select {
		case n.rx <- pkt:
		default:
		}
	}
	return nil
}

func (p *MemPhy) Receive(ctx context.Context) (Packet, error) {
	select {
	case pkt := <-p.rx:
		return pkt, nil
	case <-ctx.Done():
		return Packet{}, ctx.Err()
	}
}
