// Package hid holds the HID report state structs emitted by the report
// generator and their binary codecs. Both report types are comparable so the
// generator can diff the current state against the last one sent and skip
// redundant reports.
package hid

import (
	"io"
)

// KeyboardReport is the keyboard state used to build a report. Internally it
// uses a 256-bit bitmap for N-key rollover support.
type KeyboardReport struct {
	Modifiers uint8     // bit 0-7: LCtrl, LShift, LAlt, LGui, RCtrl, RShift, RAlt, RGui
	KeyBitmap [32]uint8 // 256 bits for HID usage codes 0x00-0xFF
}

// SetKey marks the usage code pressed. Modifier usages (0xE0-0xE7) go into
// the modifier byte instead of the bitmap.
func (st *KeyboardReport) SetKey(code uint8) {
	if code >= 0xE0 && code <= 0xE7 {
		st.Modifiers |= 1 << (code - 0xE0)
		return
	}
	st.KeyBitmap[code/8] |= 1 << (code % 8)
}

// ClearKey marks the usage code released.
func (st *KeyboardReport) ClearKey(code uint8) {
	if code >= 0xE0 && code <= 0xE7 {
		st.Modifiers &^= 1 << (code - 0xE0)
		return
	}
	st.KeyBitmap[code/8] &^= 1 << (code % 8)
}

// KeyDown reports whether the usage code is currently pressed.
func (st *KeyboardReport) KeyDown(code uint8) bool {
	if code >= 0xE0 && code <= 0xE7 {
		return st.Modifiers&(1<<(code-0xE0)) != 0
	}
	return st.KeyBitmap[code/8]&(1<<(code%8)) != 0
}

// Clear releases every key and modifier.
func (st *KeyboardReport) Clear() {
	*st = KeyboardReport{}
}

// BuildReport encodes the state into the 34-byte HID keyboard report.
//
// Report layout (34 bytes):
//
//	Byte 0: Modifiers (8 bits)
//	Byte 1: Reserved (0x00)
//	Bytes 2-33: Key bitmap (256 bits, 32 bytes)
func (st KeyboardReport) BuildReport() []byte {
	b := make([]byte, 34)
	b[0] = st.Modifiers
	b[1] = 0x00 // Reserved
	copy(b[2:34], st.KeyBitmap[:])
	return b
}

// MarshalBinary encodes the state to variable-length wire format.
//
// Wire format:
//
//	Byte 0: Modifiers
//	Byte 1: Key count
//	Bytes 2+: Key codes (HID usage codes of pressed keys)
func (st *KeyboardReport) MarshalBinary() ([]byte, error) {
	var keys []uint8
	for i := 0; i < 256; i++ {
		byteIdx := i / 8
		bitIdx := uint(i % 8)
		if st.KeyBitmap[byteIdx]&(1<<bitIdx) != 0 {
			keys = append(keys, uint8(i))
		}
	}

	b := make([]byte, 2+len(keys))
	b[0] = st.Modifiers
	b[1] = uint8(len(keys))
	copy(b[2:], keys)
	return b, nil
}

// UnmarshalBinary decodes variable-length wire format into the state.
func (st *KeyboardReport) UnmarshalBinary(data []byte) error {
	if len(data) < 2 {
		return io.ErrUnexpectedEOF
	}

	st.Modifiers = data[0]
	keyCount := int(data[1])

	if len(data) < 2+keyCount {
		return io.ErrUnexpectedEOF
	}

	for i := range st.KeyBitmap {
		st.KeyBitmap[i] = 0
	}

	for i := 0; i < keyCount; i++ {
		keyCode := data[2+i]
		byteIdx := keyCode / 8
		bitIdx := uint(keyCode % 8)
		st.KeyBitmap[byteIdx] |= 1 << bitIdx
	}

	return nil
}
