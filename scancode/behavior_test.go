package scancode_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillmk/quill/keycode"
	"github.com/quillmk/quill/scancode"
)

func allVariants() []scancode.Behavior {
	return []scancode.Behavior{
		scancode.Single(keycode.KeyA),
		scancode.Double(keycode.KeyLeftShift, keycode.Key9),
		scancode.Triple(keycode.KeyLeftControl, keycode.KeyLeftShift, keycode.KeyT),
		scancode.CombinedKey(34, keycode.Layer1, keycode.Layer3),
		scancode.ChangeConfig(2),
	}
}

func TestRoundTrip(t *testing.T) {
	for _, b := range allVariants() {
		buf := make([]byte, b.EncodedLen())
		require.NoError(t, b.Encode(buf))

		got, err := scancode.Decode(buf)
		require.NoError(t, err)
		assert.Equal(t, b, got)
	}
}

func TestEncodeExactLength(t *testing.T) {
	for _, b := range allVariants() {
		exact := make([]byte, b.EncodedLen())
		assert.NoError(t, b.Encode(exact))

		short := make([]byte, b.EncodedLen()-1)
		assert.ErrorIs(t, b.Encode(short), scancode.ErrBufferTooSmall)
	}
}

func TestDecodeShortBuffer(t *testing.T) {
	b := scancode.Triple(keycode.KeyA, keycode.KeyB, keycode.KeyC)
	buf := make([]byte, b.EncodedLen())
	require.NoError(t, b.Encode(buf))

	_, err := scancode.Decode(buf[:b.EncodedLen()-1])
	assert.ErrorIs(t, err, scancode.ErrBufferTooSmall)
}

func TestDecodeUnknownTag(t *testing.T) {
	_, err := scancode.Decode([]byte{0xAB, 0x00, 0x00, 0x00})
	assert.ErrorIs(t, err, scancode.ErrInvalidFormat)
}

func TestEncodedLengths(t *testing.T) {
	assert.Equal(t, 2, scancode.KindSingle.EncodedLen())
	assert.Equal(t, 3, scancode.KindDouble.EncodedLen())
	assert.Equal(t, 4, scancode.KindTriple.EncodedLen())
	assert.Equal(t, 4, scancode.KindCombinedKey.EncodedLen())
	assert.Equal(t, 2, scancode.KindChangeConfig.EncodedLen())
}

func TestTableRoundTrip(t *testing.T) {
	table := []scancode.Behavior{
		scancode.Single(keycode.KeyQ),
		scancode.Default(),
		scancode.Double(keycode.KeyLeftShift, keycode.Key1),
		scancode.CombinedKey(16, keycode.Layer2, keycode.Layer4),
		scancode.ChangeConfig(1),
		scancode.Triple(keycode.KeyA, keycode.KeyB, keycode.KeyC),
	}

	encoded := scancode.AppendTable(nil, table)
	assert.Equal(t, scancode.TableLen(table), len(encoded))

	decoded := make([]scancode.Behavior, len(table))
	require.NoError(t, scancode.DecodeTable(encoded, decoded))
	assert.Equal(t, table, decoded)

	// EncodeTable agrees with AppendTable.
	buf := make([]byte, scancode.TableLen(table))
	n, err := scancode.EncodeTable(buf, table)
	require.NoError(t, err)
	assert.Equal(t, encoded, buf[:n])
}

func TestDecodeTableOverflow(t *testing.T) {
	table := []scancode.Behavior{
		scancode.Single(keycode.KeyA),
		scancode.Single(keycode.KeyB),
	}
	encoded := scancode.AppendTable(nil, table)

	out := make([]scancode.Behavior, 1)
	assert.ErrorIs(t, scancode.DecodeTable(encoded, out), scancode.ErrInvalidFormat)
}
