package radio

import (
	"context"
	"log/slog"
	"time"
)

// Peripheral owns the battery-powered side of the link. It advertises until
// claimed by a central, then follows the central's event clock: receive
// slots to take data, timed send slots to push its own.
type Peripheral struct {
	phy    Phy
	addr   uint8
	logger *slog.Logger

	state        connState
	txID         uint8
	missedEvents uint32
	prevRecvTime time.Time

	// Recv holds data packets received from the central; Send holds packets
	// queued for transmission.
	Recv *Mailbox
	Send *Mailbox
}

// NewPeripheral returns a Peripheral with pipe address addr over phy.
func NewPeripheral(phy Phy, addr uint8, logger *slog.Logger) *Peripheral {
	if logger == nil {
		logger = slog.Default()
	}
	return &Peripheral{
		phy:    phy,
		addr:   addr,
		logger: logger,
		state:  stateAdvertisement,
		Recv:   NewMailbox(),
		Send:   NewMailbox(),
	}
}

// Run drives the connection until the context ends.
func (p *Peripheral) Run(ctx context.Context) error {
	p.prevRecvTime = time.Now()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		switch p.state {
		case stateAdvertisement:
			err = p.advertise(ctx)
		case stateConnectedReceive:
			err = p.connectedReceive(ctx)
		case stateConnectedSend:
			err = p.connectedSend(ctx)
		}
		if err != nil {
			return err
		}
	}
}

// advertise transmits advertisements until a central claims this address.
// An unanswered round idles out the advertisement period to save power.
func (p *Peripheral) advertise(ctx context.Context) error {
	deadline := time.Now().Add(advertiseTimeout)

	adv := NewPacket()
	adv.SetType(TypeAdvertise)
	for i := 0; i < numRetries; i++ {
		if err := p.phy.Send(ctx, adv); err != nil {
			return err
		}
		_, ok, err := receiveWith(ctx, p.phy, ackTimeout, func(pk *Packet) bool {
			return pk.Type() == TypeEstablishConnection && pk.ID() == p.addr
		})
		if err != nil {
			return err
		}
		if ok {
			p.logger.Info("connection established")
			p.state = stateConnectedSend
			p.prevRecvTime = time.Now()
			p.txID = 0
			p.missedEvents = 0
			return nil
		}
	}
	return sleepUntil(ctx, deadline)
}

// connectedReceive takes one receive slot. Central keepalives and data both
// refresh the event clock; only non-empty packets are delivered. A silent
// slot advances the predicted clock so the send slot still lands inside the
// central's window.
func (p *Peripheral) connectedReceive(ctx context.Context) error {
	pk, ok, err := receiveWith(ctx, p.phy, receiveTimeout, func(pk *Packet) bool {
		return pk.Type() == TypeData && pk.ID() != p.addr
	})
	if err != nil {
		return err
	}
	if ok {
		p.prevRecvTime = time.Now()
		ack := NewPacket()
		ack.SetID(pk.ID())
		ack.SetType(TypeAck)
		if err := p.phy.Send(ctx, ack); err != nil {
			return err
		}
		if !pk.IsEmpty() {
			p.Recv.Push(pk)
		}
		p.missedEvents = 0
		return nil
	}
	if p.missedEvents >= maxMissedEvents {
		p.logger.Info("connection lost, advertising")
		p.state = stateAdvertisement
		return nil
	}
	p.missedEvents++
	p.prevRecvTime = p.prevRecvTime.Add(taskTimeout * NumConnections * maxConnectionEvents)
	p.state = stateConnectedSend
	return nil
}

// connectedSend runs this peripheral's send window: wait for outbound
// packets and transmit each at the next predicted event slot, stopping in
// time for the central's own send slot at the end of the window.
func (p *Peripheral) connectedSend(ctx context.Context) error {
	windowEnd := p.prevRecvTime.Add(taskTimeout * NumConnections * maxConnectionEvents)
	guard := p.prevRecvTime.Add(taskTimeout * (NumConnections*maxConnectionEvents - 1))
	p.state = stateConnectedReceive

	for {
		gctx, cancel := context.WithDeadline(ctx, guard)
		err := p.Send.Wait(gctx)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			break
		}

		next := nextTimePeriod(p.prevRecvTime)
		if !next.Before(guard) {
			break
		}
		pk, ok := p.Send.TryPop()
		if !ok {
			continue
		}
		p.txID++
		id := p.txID
		pk.SetID(id)
		pk.SetType(TypeData)

		if err := sleepUntil(ctx, next); err != nil {
			return err
		}
		sent := false
		for i := 0; i < numRetries; i++ {
			if err := p.phy.Send(ctx, pk); err != nil {
				return err
			}
			_, ok, err := receiveWith(ctx, p.phy, receiveTimeout, func(a *Packet) bool {
				return a.Type() == TypeAck && a.ID() == id && len(a.Payload()) > 0 && a.Payload()[0] == p.addr
			})
			if err != nil {
				return err
			}
			if ok {
				p.missedEvents = 0
				sent = true
				break
			}
		}
		if sent {
			break
		}
	}
	return sleepUntil(ctx, windowEnd)
}

// nextTimePeriod returns the first event-slot boundary after now, predicted
// from the last time the central was heard.
func nextTimePeriod(prevRecv time.Time) time.Time {
	period := taskTimeout * NumConnections
	periods := int64(time.Since(prevRecv)/period) + 1
	return prevRecv.Add(period * time.Duration(periods))
}
