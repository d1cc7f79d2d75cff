package keystate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Default calibration: range 1400..1700, release 1610, actuation 1595,
// tolerance 30.

func TestDefaultSwitch(t *testing.T) {
	s := NewDefaultSwitch()
	assert.False(t, s.IsPressed())

	s.UpdateBuf(1)
	assert.True(t, s.IsPressed())

	s.UpdateBuf(0)
	assert.False(t, s.IsPressed())

	s.UpdateBuf(1)
	s.Reset()
	assert.False(t, s.IsPressed())
}

func TestDigitalPressRelease(t *testing.T) {
	d := NewDigitalPosition()

	pressedAt := -1
	samples := []uint16{1700, 1650, 1620, 1600, 1595, 1550, 1500}
	for i, s := range samples {
		d.UpdateBuf(s)
		if pressedAt < 0 && d.IsPressed() {
			pressedAt = i
		}
	}
	// First sample at or below the actuation point (1595) presses.
	assert.Equal(t, 4, pressedAt)
	assert.True(t, d.IsPressed())

	// Stays pressed through the hysteresis band.
	d.UpdateBuf(1600)
	assert.True(t, d.IsPressed())
	d.UpdateBuf(1610)
	assert.True(t, d.IsPressed())

	// Releases only above the release point.
	d.UpdateBuf(1611)
	assert.False(t, d.IsPressed())
}

func TestDigitalCalibrationOrdering(t *testing.T) {
	d := NewDigitalPosition()

	// Widen the range in both directions; release must stay above actuation
	// given the 0.30/0.35 scale ordering.
	for _, s := range []uint16{1750, 1300, 1800, 1250} {
		d.UpdateBuf(s)
		assert.Greater(t, d.calib.releasePoint, d.calib.actuationPoint)
	}
	assert.Equal(t, uint16(1800), d.calib.highestPoint)
	assert.Equal(t, uint16(1250), d.calib.lowestPoint)

	// Reset clears press state but keeps the extrema.
	d.Reset()
	assert.False(t, d.IsPressed())
	assert.Equal(t, uint16(1800), d.calib.highestPoint)
	assert.Equal(t, uint16(1250), d.calib.lowestPoint)
}

func TestDigitalSetup(t *testing.T) {
	d := NewDigitalPosition()
	done := false
	for i := 0; i < 10 && !done; i++ {
		done = d.Setup(1680)
	}
	require.True(t, done)
	assert.False(t, d.IsPressed())
}

func TestWootingRapidTrigger(t *testing.T) {
	w := NewWootingPosition()

	// Initial press through the absolute actuation point.
	w.UpdateBuf(1700)
	assert.False(t, w.IsPressed())
	w.UpdateBuf(1450)
	require.True(t, w.IsPressed())

	// Partial release: rises by more than the tolerance (30) but stays well
	// below the release point (1610).
	w.UpdateBuf(1490)
	assert.False(t, w.IsPressed())

	// Renewed downward travel beyond the tolerance re-presses without the
	// reading ever returning to the release point or the lowest point.
	w.UpdateBuf(1455)
	assert.True(t, w.IsPressed())
}

func TestWootingToleranceBand(t *testing.T) {
	w := NewWootingPosition()
	w.UpdateBuf(1450)
	require.True(t, w.IsPressed())

	// Movement within the tolerance window changes nothing.
	w.UpdateBuf(1470)
	assert.True(t, w.IsPressed())
	w.UpdateBuf(1440)
	assert.True(t, w.IsPressed())
}

func TestWootingFullRelease(t *testing.T) {
	w := NewWootingPosition()
	w.UpdateBuf(1450)
	require.True(t, w.IsPressed())

	// Above the release point: full release, latch cleared, so the absolute
	// actuation trigger can fire again.
	w.UpdateBuf(1650)
	assert.False(t, w.IsPressed())
	w.UpdateBuf(1590)
	assert.True(t, w.IsPressed())
}

func TestSlavePosition(t *testing.T) {
	s := NewSlavePosition()
	assert.False(t, s.IsPressed())

	s.UpdateBuf(1)
	assert.True(t, s.IsPressed())

	// Larger samples are analog passthrough, not press state.
	s.UpdateBuf(1500)
	assert.True(t, s.IsPressed())
	assert.Equal(t, uint16(1500), s.Buf())

	s.UpdateBuf(0)
	assert.False(t, s.IsPressed())
}

func TestHESwitchDispatch(t *testing.T) {
	h := NewHESwitch(ModeDigital)
	h.UpdateBuf(1500)
	assert.True(t, h.IsPressed())
	assert.True(t, h.IsAnalog())

	h = NewHESwitch(ModeSlave)
	h.UpdateBuf(1)
	assert.True(t, h.IsPressed())
}
