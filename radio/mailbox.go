package radio

import (
	"context"
	"sync"
)

// mailboxDepth bounds queued packets per direction. The link drops the
// oldest packet under pressure; a keyboard always wants the freshest state.
const mailboxDepth = 5

// Mailbox is a bounded drop-oldest packet queue shared between a radio state
// machine and the rest of the firmware.
type Mailbox struct {
	mu     sync.Mutex
	queue  []Packet
	notify chan struct{}
}

// NewMailbox returns an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{notify: make(chan struct{}, 1)}
}

// Push enqueues p, evicting the oldest packet when full.
func (m *Mailbox) Push(p Packet) {
	m.mu.Lock()
	if len(m.queue) == mailboxDepth {
		m.queue = m.queue[1:]
	}
	m.queue = append(m.queue, p)
	m.mu.Unlock()
	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// TryPop dequeues the oldest packet if one is queued.
func (m *Mailbox) TryPop() (Packet, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return Packet{}, false
	}
	p := m.queue[0]
	m.queue = m.queue[1:]
	return p, true
}

// Pop dequeues the oldest packet, blocking until one arrives.
func (m *Mailbox) Pop(ctx context.Context) (Packet, error) {
	for {
		if p, ok := m.TryPop(); ok {
			return p, nil
		}
		select {
		case <-m.notify:
		case <-ctx.Done():
			return Packet{}, ctx.Err()
		}
	}
}

// Wait blocks until the mailbox is non-empty without consuming anything.
func (m *Mailbox) Wait(ctx context.Context) error {
	for {
		m.mu.Lock()
		ready := len(m.queue) > 0
		m.mu.Unlock()
		if ready {
			// Leave a wakeup behind for other waiters.
			select {
			case m.notify <- struct{}{}:
			default:
			}
			return nil
		}
		select {
		case <-m.notify:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
