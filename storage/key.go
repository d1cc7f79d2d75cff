// Package storage persists keymap profiles in a key-value flash map and
// validates the map on boot with a check record.
package storage

import (
	"github.com/quillmk/quill/keymap"
)

// scanCodeOffset keeps the layer records clear of the reserved low key
// space. With 4 profiles of 6 layers the layer keys occupy 100..123.
const scanCodeOffset = 100

// Key addresses one record in the flash map.
type Key struct {
	check  bool
	config int
	layer  int
}

// CheckKey addresses the storage-initialized marker record.
func CheckKey() Key { return Key{check: true} }

// ScanCodeKey addresses one profile layer's cell table.
func ScanCodeKey(config, layer int) Key {
	return Key{config: config, layer: layer}
}

// Index returns the record's flash map key. Distinct (config, layer) pairs
// map to distinct indices as long as layer stays below keymap.NumLayers.
func (k Key) Index() uint16 {
	if k.check {
		return 0
	}
	return scanCodeOffset + uint16(keymap.NumLayers*k.config+k.layer)
}
