package radio

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dataPacket(id uint8, payload []byte) Packet {
	p := NewPacket()
	p.SetType(TypeData)
	p.SetID(id)
	p.CopyFromSlice(payload)
	return p
}

func TestMailboxFIFO(t *testing.T) {
	m := NewMailbox()
	_, ok := m.TryPop()
	assert.False(t, ok)

	m.Push(dataPacket(1, nil))
	m.Push(dataPacket(2, nil))
	p, ok := m.TryPop()
	require.True(t, ok)
	assert.Equal(t, uint8(1), p.ID())
	p, ok = m.TryPop()
	require.True(t, ok)
	assert.Equal(t, uint8(2), p.ID())
}

func TestMailboxDropsOldest(t *testing.T) {
	m := NewMailbox()
	for id := uint8(1); id <= mailboxDepth+2; id++ {
		m.Push(dataPacket(id, nil))
	}
	p, ok := m.TryPop()
	require.True(t, ok)
	assert.Equal(t, uint8(3), p.ID())
}

func TestMailboxPopBlocks(t *testing.T) {
	m := NewMailbox()
	go func() {
		time.Sleep(10 * time.Millisecond)
		m.Push(dataPacket(9, nil))
	}()
	p, err := m.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint8(9), p.ID())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = m.Pop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMailboxWaitDoesNotConsume(t *testing.T) {
	m := NewMailbox()
	m.Push(dataPacket(4, nil))
	require.NoError(t, m.Wait(context.Background()))
	p, ok := m.TryPop()
	require.True(t, ok)
	assert.Equal(t, uint8(4), p.ID())
}

func TestCentralAdvertisement(t *testing.T) {
	ctx := context.Background()
	hub := NewMemHub()
	cphy := hub.Join(DonglePrefix)
	pphy := hub.Join(LeftPrefix)

	adv := NewPacket()
	adv.SetType(TypeAdvertise)
	require.NoError(t, pphy.Send(ctx, adv))

	c := NewCentral(cphy, nil)
	require.NoError(t, c.advertisement(ctx, &c.conns[0]))

	assert.Equal(t, stateConnectedReceive, c.conns[0].state)
	assert.Equal(t, LeftPrefix, c.conns[0].addr)

	// The claim names the peripheral's address.
	est, err := pphy.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, TypeEstablishConnection, est.Type())
	assert.Equal(t, LeftPrefix, est.ID())
}

func TestCentralReceiveAcksAndDelivers(t *testing.T) {
	ctx := context.Background()
	hub := NewMemHub()
	cphy := hub.Join(DonglePrefix)
	pphy := hub.Join(LeftPrefix)

	c := NewCentral(cphy, nil)
	conn := &c.conns[0]
	conn.state = stateConnectedReceive
	conn.addr = LeftPrefix

	require.NoError(t, pphy.Send(ctx, dataPacket(1, []byte{0xAB})))
	require.NoError(t, c.connectedReceive(ctx, conn))

	ack, err := pphy.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, TypeAck, ack.Type())
	assert.Equal(t, uint8(1), ack.ID())
	require.Equal(t, 1, ack.Len())
	assert.Equal(t, LeftPrefix, ack.Payload()[0])

	got, ok := c.Recv.TryPop()
	require.True(t, ok)
	assert.Equal(t, []byte{0xAB}, got.Payload())
	assert.Equal(t, uint8(1), conn.rxID)
}

func TestCentralReceiveReacksDuplicateID(t *testing.T) {
	ctx := context.Background()
	hub := NewMemHub()
	cphy := hub.Join(DonglePrefix)
	pphy := hub.Join(LeftPrefix)

	c := NewCentral(cphy, nil)
	conn := &c.conns[0]
	conn.state = stateConnectedReceive
	conn.addr = LeftPrefix
	conn.rxID = 1

	// A retransmission of the last-seen id is acked again (the first ack
	// may have been lost) but not delivered again.
	require.NoError(t, pphy.Send(ctx, dataPacket(1, []byte{0xAB})))
	require.NoError(t, c.connectedReceive(ctx, conn))

	ack, err := pphy.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, TypeAck, ack.Type())
	assert.Equal(t, uint8(1), ack.ID())

	_, ok := c.Recv.TryPop()
	assert.False(t, ok)
	assert.Equal(t, uint32(1), conn.numEvents)
}

func TestCentralSendRetriesAndDropsConnection(t *testing.T) {
	ctx := context.Background()
	hub := NewMemHub()
	cphy := hub.Join(DonglePrefix)
	pphy := hub.Join(LeftPrefix)

	c := NewCentral(cphy, nil)
	conn := &c.conns[0]
	conn.state = stateConnectedSend
	conn.addr = LeftPrefix
	conn.numMissed = maxMissedEvents - 1

	// No ack from the peripheral: all retries go out, the connection drops.
	require.NoError(t, c.connectedSend(ctx, conn))
	assert.Equal(t, stateAdvertisement, conn.state)
	for i := 0; i < numRetries; i++ {
		p, err := pphy.Receive(ctx)
		require.NoError(t, err)
		assert.Equal(t, TypeData, p.Type())
		assert.Equal(t, LeftPrefix, p.ID())
	}
}

func TestCentralSendAcked(t *testing.T) {
	ctx := context.Background()
	hub := NewMemHub()
	cphy := hub.Join(DonglePrefix)
	pphy := hub.Join(LeftPrefix)

	c := NewCentral(cphy, nil)
	conn := &c.conns[0]
	conn.state = stateConnectedSend
	conn.addr = LeftPrefix
	conn.numMissed = 2
	c.Send.Push(dataPacket(0, []byte{0x11}))

	// Queue the ack ahead of the slot so the single-threaded exchange is
	// deterministic.
	ack := NewPacket()
	ack.SetType(TypeAck)
	require.NoError(t, pphy.Send(ctx, ack))

	require.NoError(t, c.connectedSend(ctx, conn))

	p, err := pphy.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x11}, p.Payload())
	assert.Equal(t, stateConnectedReceive, conn.state)
	assert.Zero(t, conn.numMissed)
}

func TestPeripheralAdvertise(t *testing.T) {
	ctx := context.Background()
	hub := NewMemHub()
	cphy := hub.Join(DonglePrefix)
	pphy := hub.Join(LeftPrefix)

	p := NewPeripheral(pphy, LeftPrefix, nil)
	p.txID = 9
	p.missedEvents = 3

	est := NewPacket()
	est.SetType(TypeEstablishConnection)
	est.SetID(LeftPrefix)
	require.NoError(t, cphy.Send(ctx, est))

	require.NoError(t, p.advertise(ctx))
	assert.Equal(t, stateConnectedSend, p.state)
	assert.Zero(t, p.txID)
	assert.Zero(t, p.missedEvents)

	adv, err := cphy.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, TypeAdvertise, adv.Type())
}

func TestPeripheralAdvertiseIgnoresOtherAddress(t *testing.T) {
	ctx := context.Background()
	hub := NewMemHub()
	cphy := hub.Join(DonglePrefix)
	pphy := hub.Join(LeftPrefix)

	p := NewPeripheral(pphy, LeftPrefix, nil)

	// A claim for the other half must not connect this one.
	est := NewPacket()
	est.SetType(TypeEstablishConnection)
	est.SetID(RightPrefix)
	require.NoError(t, cphy.Send(ctx, est))

	start := time.Now()
	require.NoError(t, p.advertise(ctx))
	assert.Equal(t, stateAdvertisement, p.state)
	// The full advertisement period idles out.
	assert.GreaterOrEqual(t, time.Since(start), advertiseTimeout)
}

func TestPeripheralReceive(t *testing.T) {
	ctx := context.Background()
	hub := NewMemHub()
	cphy := hub.Join(DonglePrefix)
	pphy := hub.Join(LeftPrefix)

	p := NewPeripheral(pphy, LeftPrefix, nil)
	p.state = stateConnectedReceive
	p.missedEvents = 3

	require.NoError(t, cphy.Send(ctx, dataPacket(LeftPrefix+1, []byte{0x42})))
	require.NoError(t, p.connectedReceive(ctx))

	ack, err := cphy.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, TypeAck, ack.Type())
	assert.Equal(t, LeftPrefix+1, ack.ID())

	got, ok := p.Recv.TryPop()
	require.True(t, ok)
	assert.Equal(t, []byte{0x42}, got.Payload())
	assert.Zero(t, p.missedEvents)
}

func TestPeripheralReceiveDropsKeepalive(t *testing.T) {
	ctx := context.Background()
	hub := NewMemHub()
	cphy := hub.Join(DonglePrefix)
	pphy := hub.Join(LeftPrefix)

	p := NewPeripheral(pphy, LeftPrefix, nil)
	p.state = stateConnectedReceive

	// An empty keepalive is acked but never delivered.
	require.NoError(t, cphy.Send(ctx, dataPacket(0, nil)))
	require.NoError(t, p.connectedReceive(ctx))

	ack, err := cphy.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, TypeAck, ack.Type())
	_, ok := p.Recv.TryPop()
	assert.False(t, ok)
}

func TestPeripheralReceiveMissedEvents(t *testing.T) {
	ctx := context.Background()
	hub := NewMemHub()
	pphy := hub.Join(LeftPrefix)

	p := NewPeripheral(pphy, LeftPrefix, nil)
	p.state = stateConnectedReceive
	p.prevRecvTime = time.Now()

	// Silence: predicted clock advances, send slot still taken.
	require.NoError(t, p.connectedReceive(ctx))
	assert.Equal(t, stateConnectedSend, p.state)
	assert.Equal(t, uint32(1), p.missedEvents)

	// Too many silent windows: back to advertising.
	p.state = stateConnectedReceive
	p.missedEvents = maxMissedEvents
	require.NoError(t, p.connectedReceive(ctx))
	assert.Equal(t, stateAdvertisement, p.state)
}

func TestPeripheralSend(t *testing.T) {
	ctx := context.Background()
	hub := NewMemHub()
	cphy := hub.Join(DonglePrefix)
	pphy := hub.Join(LeftPrefix)

	p := NewPeripheral(pphy, LeftPrefix, nil)
	p.state = stateConnectedSend
	// Deep into the window so the test does not wait out the whole slot.
	p.prevRecvTime = time.Now().Add(-taskTimeout * (NumConnections*maxConnectionEvents - 20))
	p.missedEvents = 1
	p.Send.Push(dataPacket(0, []byte{0x55}))

	// The first outbound id is always 1; queue its ack up front so the
	// single-threaded exchange is deterministic.
	ack := NewPacket()
	ack.SetType(TypeAck)
	ack.SetID(1)
	ack.CopyFromSlice([]byte{LeftPrefix})
	require.NoError(t, cphy.Send(ctx, ack))

	require.NoError(t, p.connectedSend(ctx))

	pkt, err := cphy.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, TypeData, pkt.Type())
	assert.Equal(t, uint8(1), pkt.ID())
	assert.Equal(t, []byte{0x55}, pkt.Payload())
	assert.Equal(t, stateConnectedReceive, p.state)
	assert.Zero(t, p.missedEvents)
}

func TestRelayRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewMemHub()
	rphy := hub.Join(DonglePrefix)
	peer := hub.Join(LeftPrefix)

	r := NewRelay(rphy, nil)
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	// Outbound: queued packets go on air as data.
	r.Send.Push(dataPacket(3, []byte{0x01}))
	pkt, err := peer.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, TypeData, pkt.Type())
	assert.Equal(t, []byte{0x01}, pkt.Payload())

	// Inbound: data is delivered, control packets are not.
	adv := NewPacket()
	adv.SetType(TypeAdvertise)
	require.NoError(t, peer.Send(ctx, adv))
	require.NoError(t, peer.Send(ctx, dataPacket(4, []byte{0x02})))

	got, err := r.Recv.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02}, got.Payload())
	_, ok := r.Recv.TryPop()
	assert.False(t, ok)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
