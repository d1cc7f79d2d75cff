package keystate

// HEMode selects one of the hall-effect behaviors at runtime.
type HEMode uint8

const (
	ModeWooting HEMode = iota
	ModeDigital
	ModeSlave
)

// HESwitch is a hall-effect switch whose behavior is picked per key range at
// configuration time. The variant set is closed.
type HESwitch struct {
	mode    HEMode
	wooting WootingPosition
	digital DigitalPosition
	slave   SlavePosition
}

// NewHESwitch returns a hall-effect switch in the given mode.
func NewHESwitch(mode HEMode) *HESwitch {
	return &HESwitch{
		mode:    mode,
		wooting: *NewWootingPosition(),
		digital: *NewDigitalPosition(),
		slave:   *NewSlavePosition(),
	}
}

func (h *HESwitch) inner() KeyState {
	switch h.mode {
	case ModeDigital:
		return &h.digital
	case ModeSlave:
		return &h.slave
	default:
		return &h.wooting
	}
}

func (h *HESwitch) UpdateBuf(sample uint16)  { h.inner().UpdateBuf(sample) }
func (h *HESwitch) IsPressed() bool          { return h.inner().IsPressed() }
func (h *HESwitch) Reset()                   { h.inner().Reset() }
func (h *HESwitch) Setup(sample uint16) bool { return h.inner().Setup(sample) }
func (h *HESwitch) Calibrate(sample uint16)  { h.inner().Calibrate(sample) }
func (h *HESwitch) Buf() uint16              { return h.inner().Buf() }
func (h *HESwitch) IsAnalog() bool           { return true }
