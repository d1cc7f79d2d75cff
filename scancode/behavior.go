// Package scancode implements the tagged key-behavior value stored in each
// keymap cell and its fixed-format binary codec.
//
// The wire format is a 1-byte type tag followed by a payload whose length is
// a static function of the tag (2-4 bytes total). A full key table is the
// plain concatenation of cell encodings with no separators; the decoder
// self-synchronizes using each tag's fixed length. The same encoding is used
// for flash records and for the keymap transfer protocol.
package scancode

import (
	"errors"

	"github.com/quillmk/quill/keycode"
)

var (
	// ErrBufferTooSmall is returned when the destination or source buffer is
	// shorter than the variant's fixed encoded length.
	ErrBufferTooSmall = errors.New("scancode: buffer too small")
	// ErrInvalidFormat is returned for an unknown type tag.
	ErrInvalidFormat = errors.New("scancode: invalid format")
)

// Kind is the behavior type tag as stored on the wire.
type Kind uint8

const (
	KindSingle Kind = iota
	KindDouble
	KindTriple
	KindCombinedKey
	KindChangeConfig

	numKinds
)

// encodedLen is the static tag-to-length table. It is deliberately a table
// rather than derived so the wire format stays explicit.
var encodedLen = [numKinds]int{
	KindSingle:       2,
	KindDouble:       3,
	KindTriple:       4,
	KindCombinedKey:  4,
	KindChangeConfig: 2,
}

// MaxEncodedLen is the largest cell encoding.
const MaxEncodedLen = 4

// Valid reports whether the tag is a known behavior type.
func (k Kind) Valid() bool { return k < numKinds }

// EncodedLen returns the fixed wire length for the tag.
func (k Kind) EncodedLen() int { return encodedLen[k] }

// Behavior describes what one (key, layer) cell produces when pressed.
//
//	Single       emit Codes[0]
//	Double       emit Codes[0], Codes[1]
//	Triple       emit Codes[0], Codes[1], Codes[2]
//	CombinedKey  emit Codes[0], or Codes[1] while the key at OtherIndex is
//	             held, always preceded by a sticky marker
//	ChangeConfig reload the keymap from profile Config instead of emitting
type Behavior struct {
	Kind       Kind
	Codes      [3]keycode.Code
	OtherIndex uint8
	Config     uint8
}

// Single returns a plain one-code behavior.
func Single(code keycode.Code) Behavior {
	return Behavior{Kind: KindSingle, Codes: [3]keycode.Code{code}}
}

// Double returns a behavior emitting two codes per press.
func Double(c0, c1 keycode.Code) Behavior {
	return Behavior{Kind: KindDouble, Codes: [3]keycode.Code{c0, c1}}
}

// Triple returns a behavior emitting three codes per press.
func Triple(c0, c1, c2 keycode.Code) Behavior {
	return Behavior{Kind: KindTriple, Codes: [3]keycode.Code{c0, c1, c2}}
}

// CombinedKey returns a dual-role behavior whose emitted code depends on the
// press state of the key at otherIndex.
func CombinedKey(otherIndex int, normal, combined keycode.Code) Behavior {
	return Behavior{
		Kind:       KindCombinedKey,
		Codes:      [3]keycode.Code{normal, combined},
		OtherIndex: uint8(otherIndex),
	}
}

// ChangeConfig returns a behavior that switches the active profile.
func ChangeConfig(config uint8) Behavior {
	return Behavior{Kind: KindChangeConfig, Config: config}
}

// Default is the all-cells boot value.
func Default() Behavior { return Single(keycode.Undefined) }

// EncodedLen returns the behavior's fixed wire length.
func (b Behavior) EncodedLen() int { return b.Kind.EncodedLen() }

// Encode writes the behavior into dst. dst must hold at least EncodedLen
// bytes.
func (b Behavior) Encode(dst []byte) error {
	if len(dst) < b.EncodedLen() {
		return ErrBufferTooSmall
	}
	dst[0] = byte(b.Kind)
	switch b.Kind {
	case KindSingle:
		dst[1] = byte(b.Codes[0])
	case KindDouble:
		dst[1] = byte(b.Codes[0])
		dst[2] = byte(b.Codes[1])
	case KindTriple:
		dst[1] = byte(b.Codes[0])
		dst[2] = byte(b.Codes[1])
		dst[3] = byte(b.Codes[2])
	case KindCombinedKey:
		dst[1] = byte(b.Codes[0])
		dst[2] = byte(b.Codes[1])
		dst[3] = b.OtherIndex
	case KindChangeConfig:
		dst[1] = b.Config
	}
	return nil
}

// Decode reads one behavior from the front of src.
func Decode(src []byte) (Behavior, error) {
	if len(src) < 1 {
		return Behavior{}, ErrBufferTooSmall
	}
	kind := Kind(src[0])
	if kind >= numKinds {
		return Behavior{}, ErrInvalidFormat
	}
	if len(src) < kind.EncodedLen() {
		return Behavior{}, ErrBufferTooSmall
	}
	b := Behavior{Kind: kind}
	switch kind {
	case KindSingle:
		b.Codes[0] = keycode.Code(src[1])
	case KindDouble:
		b.Codes[0] = keycode.Code(src[1])
		b.Codes[1] = keycode.Code(src[2])
	case KindTriple:
		b.Codes[0] = keycode.Code(src[1])
		b.Codes[1] = keycode.Code(src[2])
		b.Codes[2] = keycode.Code(src[3])
	case KindCombinedKey:
		b.Codes[0] = keycode.Code(src[1])
		b.Codes[1] = keycode.Code(src[2])
		b.OtherIndex = src[3]
	case KindChangeConfig:
		b.Config = src[1]
	}
	return b, nil
}
