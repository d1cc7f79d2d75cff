package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillmk/quill/keycode"
	"github.com/quillmk/quill/keymap"
	"github.com/quillmk/quill/scancode"
)

func TestKeyIndex(t *testing.T) {
	assert.Equal(t, uint16(0), CheckKey().Index())
	assert.Equal(t, uint16(100), ScanCodeKey(0, 0).Index())
	assert.Equal(t, uint16(105), ScanCodeKey(0, 5).Index())
	assert.Equal(t, uint16(106), ScanCodeKey(1, 0).Index())

	// No two addressable records collide.
	seen := map[uint16]bool{CheckKey().Index(): true}
	for config := 0; config < keymap.NumConfigs; config++ {
		for layer := 0; layer < keymap.NumLayers; layer++ {
			idx := ScanCodeKey(config, layer).Index()
			assert.False(t, seen[idx], "index %d reused", idx)
			seen[idx] = true
		}
	}
}

func testTable() []scancode.Behavior {
	codes := make([]scancode.Behavior, keymap.NumKeys)
	for i := range codes {
		codes[i] = scancode.Default()
	}
	codes[0] = scancode.Single(keycode.KeyA)
	codes[1] = scancode.Double(keycode.KeyLeftShift, keycode.Key1)
	codes[2] = scancode.CombinedKey(9, keycode.Layer1, keycode.Layer3)
	return codes
}

func TestStoreInitializesEmptyFlash(t *testing.T) {
	flash := NewMemFlash()
	s := NewStore(flash, nil)
	require.NoError(t, s.Open())

	val, ok, err := flash.Get(CheckKey().Index())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte{0x69, 0, 0, 0}, val)
}

func TestStoreErasesOnBadCheckValue(t *testing.T) {
	flash := NewMemFlash()
	require.NoError(t, flash.Put(CheckKey().Index(), []byte{0xDE, 0xAD, 0xBE, 0xEF}))
	require.NoError(t, flash.Put(ScanCodeKey(0, 0).Index(), []byte{0x00, 0x04}))

	s := NewStore(flash, nil)
	require.NoError(t, s.Open())

	// The stale layer record is gone, the check record is rewritten.
	_, ok, err := flash.Get(ScanCodeKey(0, 0).Index())
	require.NoError(t, err)
	assert.False(t, ok)
	val, ok, err := flash.Get(CheckKey().Index())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte{0x69, 0, 0, 0}, val)
}

func TestStoreKeepsValidFlash(t *testing.T) {
	flash := NewMemFlash()
	s := NewStore(flash, nil)
	require.NoError(t, s.Open())
	require.NoError(t, s.StoreLayer(1, 2, testTable()))

	// A second open leaves stored profiles alone.
	require.NoError(t, NewStore(flash, nil).Open())
	codes, ok, err := s.LoadLayer(1, 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, testTable(), codes)
}

func TestLoadLayerMissing(t *testing.T) {
	s := NewStore(NewMemFlash(), nil)
	require.NoError(t, s.Open())

	_, ok, err := s.LoadLayer(3, 5)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLayerRoundTrip(t *testing.T) {
	s := NewStore(NewMemFlash(), nil)
	require.NoError(t, s.Open())

	want := testTable()
	require.NoError(t, s.StoreLayer(0, 0, want))
	got, ok, err := s.LoadLayer(0, 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestFileFlashPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flash.yaml")

	flash, err := OpenFileFlash(path)
	require.NoError(t, err)
	s := NewStore(flash, nil)
	require.NoError(t, s.Open())
	require.NoError(t, s.StoreLayer(2, 1, testTable()))

	// Reopen from the snapshot.
	flash2, err := OpenFileFlash(path)
	require.NoError(t, err)
	s2 := NewStore(flash2, nil)
	require.NoError(t, s2.Open())

	codes, ok, err := s2.LoadLayer(2, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, testTable(), codes)
}
