package radio

import (
	"context"
	"log/slog"
)

// Relay is the connectionless role used by the dongle: every received data
// packet is delivered, every queued packet is transmitted as-is, with no
// acknowledgements or event clock. The wired halves pair it with the
// connection-oriented roles on the wireless side.
type Relay struct {
	phy    Phy
	logger *slog.Logger

	Recv *Mailbox
	Send *Mailbox
}

// NewRelay returns a Relay over phy with empty mailboxes.
func NewRelay(phy Phy, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{
		phy:    phy,
		logger: logger,
		Recv:   NewMailbox(),
		Send:   NewMailbox(),
	}
}

// Run alternates between draining the outbound mailbox and listening. A
// queued packet always preempts the next listen slot.
func (r *Relay) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if p, ok := r.Send.TryPop(); ok {
			p.SetType(TypeData)
			if err := r.phy.Send(ctx, p); err != nil {
				return err
			}
			continue
		}
		p, ok, err := receiveWith(ctx, r.phy, receiveTimeout, func(*Packet) bool { return true })
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if p.Type() != TypeData {
			r.logger.Debug("ignoring packet", "addr", p.Addr, "type", p.Type())
			continue
		}
		r.Recv.Push(p)
	}
}
