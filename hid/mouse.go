package hid

import (
	"io"
)

// Mouse button bits.
const (
	ButtonLeft uint8 = 1 << iota
	ButtonRight
	ButtonMiddle
	ButtonBack
	ButtonForward
)

// MouseReport is the mouse state used to build a report.
type MouseReport struct {
	// Button bitfield: bit 0=Left, 1=Right, 2=Middle, 3=Back, 4=Forward
	Buttons uint8
	// Delta X/Y: signed 8-bit relative movement
	DX, DY int8
	// Wheel: signed 8-bit vertical scroll
	Wheel int8
	// Pan: signed 8-bit horizontal scroll
	Pan int8
}

// BuildReport encodes the state into the 5-byte HID mouse report.
//
// Report layout (5 bytes):
//
//	Byte 0: Button bitfield (bit 0=Left, 1=Right, 2=Middle, 3=Back, 4=Forward, bits 5-7=padding)
//	Byte 1: DX (int8, -127 to +127)
//	Byte 2: DY (int8)
//	Byte 3: Wheel (int8)
//	Byte 4: Pan (int8)
func (st MouseReport) BuildReport() []byte {
	b := make([]byte, 5)
	b[0] = st.Buttons & 0x1F // 5 buttons, mask upper bits
	b[1] = byte(st.DX)
	b[2] = byte(st.DY)
	b[3] = byte(st.Wheel)
	b[4] = byte(st.Pan)
	return b
}

// MarshalBinary encodes the state to 5 bytes.
func (st *MouseReport) MarshalBinary() ([]byte, error) {
	b := make([]byte, 5)
	b[0] = st.Buttons
	b[1] = byte(st.DX)
	b[2] = byte(st.DY)
	b[3] = byte(st.Wheel)
	b[4] = byte(st.Pan)
	return b, nil
}

// UnmarshalBinary decodes 5 bytes into the state.
func (st *MouseReport) UnmarshalBinary(data []byte) error {
	if len(data) < 5 {
		return io.ErrUnexpectedEOF
	}
	st.Buttons = data[0]
	st.DX = int8(data[1])
	st.DY = int8(data[2])
	st.Wheel = int8(data[3])
	st.Pan = int8(data[4])
	return nil
}
