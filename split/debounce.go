// Package split holds the pieces specific to a two-half board: the switch
// matrix with per-position debouncing, the half-side scan loop that radios
// packed key state, and the receiving side that feeds that state into the
// key engine as a sensor bank.
package split

import "time"

// debounceTime is how long a contact change must hold before it is believed.
const debounceTime = 5 * time.Millisecond

// Debouncer filters one matrix position's contact chatter.
type Debouncer struct {
	state       bool
	debouncedAt time.Time
	pending     bool

	now func() time.Time
}

// NewDebouncer returns a released debouncer.
func NewDebouncer() *Debouncer {
	return &Debouncer{now: time.Now}
}

// IsPressed reports the debounced position state.
func (d *Debouncer) IsPressed() bool { return d.state }

// Update consumes one raw contact reading. A change starts the settle
// window; whatever the contact reads after the window is taken as truth.
func (d *Debouncer) Update(raw bool) {
	if d.pending {
		if d.now().Sub(d.debouncedAt) > debounceTime {
			d.state = raw
			d.pending = false
		}
		return
	}
	if raw != d.state {
		d.debouncedAt = d.now()
		d.pending = true
	}
}
