package report

import (
	"time"
)

// Acceleration curve terms. The throttle interval for a press held t
// milliseconds is 500000/((term0*t*t)/(t+term1)+10000) ms, which decays from
// 50ms toward 0.5ms the longer the key is held.
const (
	deltaTerm0 = 1000000
	deltaTerm1 = 500000

	// initialDelay arms the curve: the first tick fires immediately and the
	// second only after this much hold time.
	initialDelay = 50 * time.Millisecond
)

// mouseDelta throttles mouse motion emission. Several report codes in one
// scan tick share a single check result; reset is called once per tick to
// close the window.
type mouseDelta struct {
	initialPress time.Time
	nextTick     time.Time
	checkState   bool
	res          bool

	now func() time.Time
}

func newMouseDelta(now func() time.Time) *mouseDelta {
	return &mouseDelta{now: now}
}

// check reports whether motion may be emitted this tick. The first call of a
// tick computes the result; later calls in the same tick return it.
func (d *mouseDelta) check() bool {
	if d.checkState {
		return d.res
	}
	d.updateState()
	d.checkState = true
	return d.res
}

// reset ends the tick. If no motion code consulted the delta this tick the
// press is over and the curve restarts from the initial delay.
func (d *mouseDelta) reset() {
	if !d.checkState {
		d.initialPress = time.Time{}
	}
	d.res = false
	d.checkState = false
}

func (d *mouseDelta) updateState() {
	now := d.now()
	if d.initialPress.IsZero() {
		d.initialPress = now
		d.nextTick = now.Add(initialDelay)
		d.res = true
		return
	}
	if now.After(d.nextTick) {
		t := uint64(now.Sub(d.initialPress).Milliseconds())
		val := 500000 / ((deltaTerm0*t*t)/(t+deltaTerm1) + 10000)
		d.nextTick = now.Add(time.Duration(val) * time.Millisecond)
		d.res = true
	} else {
		d.res = false
	}
}
