// Package keystate implements the per-switch press/release state machines:
// plain debounced switches, self-calibrating hall-effect switches in digital
// and rapid-trigger modes, and the relay variant fed by the other half of a
// split board.
package keystate

import "context"

// Calibration defaults. The release/actuation points sit at fixed fractions
// of the observed travel range below the resting (highest) reading; the
// rapid-trigger tolerance is a fraction of the same range.
const (
	DefaultHigh uint16 = 1700
	DefaultLow  uint16 = 1400

	releaseScale   = 0.30
	actuateScale   = 0.35
	toleranceScale = 0.1

	// Rolling-average window of raw readings per switch.
	bufferSize = 1
)

// KeyState is one switch's press state machine. Samples are raw ADC
// readings for analog variants; boolean variants treat any nonzero sample
// as pressed.
type KeyState interface {
	// UpdateBuf consumes one raw reading and updates the press state.
	UpdateBuf(sample uint16)

	// IsPressed reports the debounced press state.
	IsPressed() bool

	// Reset clears transient press state without discarding calibration
	// extrema. Used across profile switches so a key is never left latched.
	Reset()

	// Setup collects one calibration sample. Call repeatedly until it
	// returns true (a full buffer collected, one calibrate pass done).
	Setup(sample uint16) bool

	// Calibrate widens the observed travel extrema with one reading and
	// rederives the thresholds when an extreme moved.
	Calibrate(sample uint16)

	// Buf returns the current rolling-average reading.
	Buf() uint16

	// IsAnalog reports whether the switch consumes ADC readings.
	IsAnalog() bool
}

// Sensors feeds raw samples into a bank of key states, one reading per
// switch per scan tick.
type Sensors interface {
	// UpdatePositions reads every switch once and pushes the samples via
	// UpdateBuf.
	UpdatePositions(ctx context.Context, states []KeyState) error

	// Setup runs the calibration phase, looping over all switches until
	// every one reports calibrated.
	Setup(ctx context.Context, states []KeyState) error
}

// DefaultSwitch is a plain mechanical switch: a single boolean.
type DefaultSwitch struct {
	state bool
}

// NewDefaultSwitch returns a released mechanical switch.
func NewDefaultSwitch() *DefaultSwitch { return &DefaultSwitch{} }

func (s *DefaultSwitch) UpdateBuf(sample uint16) { s.state = sample != 0 }
func (s *DefaultSwitch) IsPressed() bool         { return s.state }
func (s *DefaultSwitch) Reset()                  { s.state = false }
func (s *DefaultSwitch) Setup(uint16) bool       { return true }
func (s *DefaultSwitch) Calibrate(uint16)        {}
func (s *DefaultSwitch) IsAnalog() bool          { return false }

func (s *DefaultSwitch) Buf() uint16 {
	if s.state {
		return 1
	}
	return 0
}
