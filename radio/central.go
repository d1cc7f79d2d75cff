package radio

import (
	"context"
	"log/slog"
	"time"
)

// connState is a role's position in the connection lifecycle.
type connState uint8

const (
	stateAdvertisement connState = iota
	stateConnectedReceive
	stateConnectedSend
)

// centralConnection tracks one peripheral from the central's side.
type centralConnection struct {
	state     connState
	numEvents uint32
	numMissed uint32
	addr      uint8
	rxID      uint8
}

// Central owns the connection-oriented side of the link on the always-powered
// end. It hands received data packets to Recv and drains Send during its send
// slots.
type Central struct {
	phy    Phy
	conns  [NumConnections]centralConnection
	logger *slog.Logger

	// Recv holds data packets received from peripherals; Send holds packets
	// queued for transmission to them.
	Recv *Mailbox
	Send *Mailbox
}

// NewCentral returns a Central over phy with empty mailboxes.
func NewCentral(phy Phy, logger *slog.Logger) *Central {
	if logger == nil {
		logger = slog.Default()
	}
	return &Central{
		phy:    phy,
		logger: logger,
		Recv:   NewMailbox(),
		Send:   NewMailbox(),
	}
}

// Run drives all connections until the context ends. Each connection gets
// one event per task period regardless of how quickly its handler returns,
// keeping the event clock the peripherals predict.
func (c *Central) Run(ctx context.Context) error {
	for {
		for i := range c.conns {
			slot := time.Now().Add(taskTimeout)
			if err := c.handleConnection(ctx, &c.conns[i]); err != nil {
				return err
			}
			if err := sleepUntil(ctx, slot); err != nil {
				return err
			}
		}
	}
}

func (c *Central) handleConnection(ctx context.Context, conn *centralConnection) error {
	switch conn.state {
	case stateAdvertisement:
		return c.advertisement(ctx, conn)
	case stateConnectedReceive:
		return c.connectedReceive(ctx, conn)
	case stateConnectedSend:
		return c.connectedSend(ctx, conn)
	}
	return nil
}

// advertisement listens for an advertising peripheral and claims it.
func (c *Central) advertisement(ctx context.Context, conn *centralConnection) error {
	p, ok, err := receiveWith(ctx, c.phy, receiveTimeout, func(p *Packet) bool {
		return p.Type() == TypeAdvertise
	})
	if err != nil || !ok {
		return err
	}

	establish := NewPacket()
	establish.SetType(TypeEstablishConnection)
	establish.SetID(p.Addr)
	if err := c.phy.Send(ctx, establish); err != nil {
		return err
	}

	conn.state = stateConnectedReceive
	conn.addr = p.Addr
	conn.numEvents = 0
	conn.numMissed = 0
	c.logger.Info("connection established", "addr", conn.addr)
	return nil
}

// connectedReceive takes one receive slot: accept a data packet from the
// peer and ack it. A packet repeating the last delivered id is re-acked but
// not redelivered, so a retransmit after a lost ack settles the sender
// without duplicating input.
func (c *Central) connectedReceive(ctx context.Context, conn *centralConnection) error {
	p, ok, err := receiveWith(ctx, c.phy, receiveTimeout, func(p *Packet) bool {
		return p.Type() == TypeData && p.Addr == conn.addr
	})
	if err != nil {
		return err
	}
	if ok {
		ack := NewPacket()
		ack.SetID(p.ID())
		ack.SetType(TypeAck)
		ack.SetLen(1)
		ack.Payload()[0] = conn.addr
		if err := c.phy.Send(ctx, ack); err != nil {
			return err
		}
		if p.ID() != conn.rxID {
			conn.rxID = p.ID()
			c.Recv.Push(p)
		}
	}

	conn.numEvents++
	if conn.numEvents >= maxConnectionEvents {
		conn.state = stateConnectedSend
		conn.numEvents = 0
	}
	return nil
}

// connectedSend takes the send slot: transmit one queued packet (or an empty
// keepalive) and retry until acked. Too many consecutive unacked slots drops
// the connection back to advertisement scanning.
func (c *Central) connectedSend(ctx context.Context, conn *centralConnection) error {
	p, ok := c.Send.TryPop()
	if !ok {
		p = NewPacket()
	}
	p.SetType(TypeData)
	p.SetID(conn.addr)

	acked := false
	for i := 0; i < numRetries; i++ {
		if err := c.phy.Send(ctx, p); err != nil {
			return err
		}
		_, ok, err := receiveWith(ctx, c.phy, ackTimeout, func(p *Packet) bool {
			return p.Type() == TypeAck && p.Addr == conn.addr
		})
		if err != nil {
			return err
		}
		if ok {
			acked = true
			break
		}
	}

	if acked {
		conn.numMissed = 0
	} else {
		conn.numMissed++
	}
	if conn.numMissed >= maxMissedEvents {
		c.logger.Info("connection lost, scanning", "addr", conn.addr)
		conn.state = stateAdvertisement
	} else {
		conn.state = stateConnectedReceive
	}
	return nil
}
