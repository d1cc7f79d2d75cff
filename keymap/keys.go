// Package keymap owns the key-by-layer behavior table and resolves pressed
// keys into report codes each scan tick.
package keymap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/quillmk/quill/keycode"
	"github.com/quillmk/quill/keystate"
	"github.com/quillmk/quill/scancode"
)

// Board geometry. Profile/layer counts must keep the storage key space
// collision free (see storage.Key).
const (
	NumKeys    = 36
	NumLayers  = 6
	NumConfigs = 4
)

// settleDelay is how long input is ignored after a profile switch so the
// press that fired the switch cannot re-trigger it.
const settleDelay = 500 * time.Millisecond

// ErrNoStoredConfig is returned when a profile has no record in storage; the
// table has been reset to defaults when it is returned.
var ErrNoStoredConfig = errors.New("keymap: no stored config")

// ConfigStore loads and persists one profile layer's behavior table.
type ConfigStore interface {
	// LoadLayer returns the stored table for (config, layer), or ok=false if
	// the profile layer has never been written.
	LoadLayer(config, layer int) (codes []scancode.Behavior, ok bool, err error)

	// StoreLayer persists the table for (config, layer).
	StoreLayer(config, layer int, codes []scancode.Behavior) error
}

// Indicator is notified when the active profile changes.
type Indicator interface {
	IndicateConfig(config int)
}

// StreamReader pops bytes from the keymap transfer stream.
type StreamReader interface {
	Pop(ctx context.Context) (byte, error)
	PopSlice(ctx context.Context, buf []byte) error
}

// StreamWriter pushes bytes onto the keymap transfer stream.
type StreamWriter interface {
	Write(ctx context.Context, buf []byte) error
}

type pressResult uint8

const (
	pressNone pressResult = iota
	pressPressed
	pressFunction
)

// Keys owns the behavior table, the per-switch state machines and the
// per-key held-layer memory. It is not safe for concurrent use; callers
// sharing it between the scan task and the transfer task guard it with one
// mutex.
type Keys struct {
	codes  [NumKeys][NumLayers]scancode.Behavior
	states [NumKeys]keystate.KeyState
	// held[i] is the layer key i resolved on while pressed, -1 otherwise.
	// A held key keeps its layer across base-layer changes mid-press.
	held      [NumKeys]int
	configNum int

	store     ConfigStore
	indicator Indicator
	logger    *slog.Logger

	now      func() time.Time
	resumeAt time.Time
}

// New returns a Keys table with all cells undefined and plain switches on
// every key.
func New(store ConfigStore, logger *slog.Logger) *Keys {
	if logger == nil {
		logger = slog.Default()
	}
	k := &Keys{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
	for i := range k.codes {
		for l := range k.codes[i] {
			k.codes[i][l] = scancode.Default()
		}
		k.states[i] = keystate.NewDefaultSwitch()
		k.held[i] = -1
	}
	return k
}

// SetIndicator sets the profile-change indicator.
func (k *Keys) SetIndicator(ind Indicator) { k.indicator = ind }

// SetBehavior sets one (key, layer) cell.
func (k *Keys) SetBehavior(b scancode.Behavior, index, layer int) {
	k.codes[index][layer] = b
}

// Behavior returns one (key, layer) cell.
func (k *Keys) Behavior(index, layer int) scancode.Behavior {
	return k.codes[index][layer]
}

// SetStateRange assigns a switch variant to a contiguous key range.
func (k *Keys) SetStateRange(start, end int, newState func() keystate.KeyState) {
	for i := start; i < end; i++ {
		k.states[i] = newState()
	}
}

// Pressed reports the indexed key's press state.
func (k *Keys) Pressed(index int) bool { return k.states[index].IsPressed() }

// HeldLayer returns the layer the key resolved on while pressed.
func (k *Keys) HeldLayer(index int) (int, bool) {
	if k.held[index] < 0 {
		return 0, false
	}
	return k.held[index], true
}

// ConfigNum returns the active profile number.
func (k *Keys) ConfigNum() int { return k.configNum }

// SetConfigNum records the active profile number without loading it.
func (k *Keys) SetConfigNum(config int) { k.configNum = config }

// UpdatePositions feeds one scan tick of sensor samples into the switches.
func (k *Keys) UpdatePositions(ctx context.Context, sensors keystate.Sensors) error {
	return sensors.UpdatePositions(ctx, k.states[:])
}

// SetupPositions runs the sensor calibration phase over all switches.
func (k *Keys) SetupPositions(ctx context.Context, sensors keystate.Sensors) error {
	return sensors.Setup(ctx, k.states[:])
}

// GetKeys resolves all pressed keys into report codes, appending to out.
// Keys are walked in index order; a combined key reads the other key's press
// state as of this tick regardless of index, but held-layer memory is
// updated in walk order. A ChangeConfig press clears out, resets all key
// state and suppresses further resolution for the settle delay.
func (k *Keys) GetKeys(baseLayer int, out *[]keycode.ReportCode) {
	if k.now().Before(k.resumeAt) {
		return
	}
	for i := 0; i < NumKeys; i++ {
		layer := baseLayer
		if k.held[i] >= 0 {
			layer = k.held[i]
		}
		switch k.resolve(i, layer, out) {
		case pressFunction:
			*out = (*out)[:0]
			for _, s := range k.states {
				s.Reset()
			}
			for j := range k.held {
				k.held[j] = -1
			}
			k.resumeAt = k.now().Add(settleDelay)
			return
		case pressPressed:
			k.held[i] = layer
		case pressNone:
			k.held[i] = -1
		}
	}
}

func (k *Keys) resolve(index, layer int, out *[]keycode.ReportCode) pressResult {
	pressed := k.states[index].IsPressed()
	if !pressed {
		return pressNone
	}
	b := k.codes[index][layer]
	switch b.Kind {
	case scancode.KindSingle:
		*out = append(*out, b.Codes[0].Report())
	case scancode.KindDouble:
		*out = append(*out, b.Codes[0].Report(), b.Codes[1].Report())
	case scancode.KindTriple:
		*out = append(*out, b.Codes[0].Report(), b.Codes[1].Report(), b.Codes[2].Report())
	case scancode.KindCombinedKey:
		*out = append(*out, keycode.Sticky)
		if k.states[b.OtherIndex].IsPressed() {
			*out = append(*out, b.Codes[1].Report())
		} else {
			*out = append(*out, b.Codes[0].Report())
		}
	case scancode.KindChangeConfig:
		if err := k.LoadFromStorage(int(b.Config)); err != nil {
			k.logger.Error("profile switch failed", "config", b.Config, "error", err)
		}
		return pressFunction
	}
	return pressPressed
}

// resetToDefault clears the table and all transient key state.
func (k *Keys) resetToDefault() {
	for i := range k.codes {
		for l := range k.codes[i] {
			k.codes[i][l] = scancode.Default()
		}
		k.states[i].Reset()
		k.held[i] = -1
	}
	k.configNum = 0
}

// LoadFromStorage replaces the table with the stored profile. A missing or
// unreadable layer resets the table to defaults and returns an error; the
// keyboard stays functional on default codes.
func (k *Keys) LoadFromStorage(config int) error {
	k.configNum = config
	for layer := 0; layer < NumLayers; layer++ {
		codes, ok, err := k.store.LoadLayer(config, layer)
		if err != nil {
			k.resetToDefault()
			return fmt.Errorf("load config %d layer %d: %w", config, layer, err)
		}
		if !ok {
			k.resetToDefault()
			k.logger.Error("no stored keymap", "config", config, "layer", layer)
			return ErrNoStoredConfig
		}
		for i := 0; i < NumKeys && i < len(codes); i++ {
			k.codes[i][layer] = codes[i]
		}
	}
	if k.indicator != nil {
		k.indicator.IndicateConfig(k.configNum)
	}
	return nil
}

// StoreToStorage persists the table as the given profile, skipping layers
// whose stored value already matches.
func (k *Keys) StoreToStorage(config int) error {
	column := make([]scancode.Behavior, NumKeys)
	for layer := 0; layer < NumLayers; layer++ {
		for i := 0; i < NumKeys; i++ {
			column[i] = k.codes[i][layer]
		}
		stored, ok, err := k.store.LoadLayer(config, layer)
		if err != nil {
			return fmt.Errorf("read back config %d layer %d: %w", config, layer, err)
		}
		if ok && behaviorsEqual(stored, column) {
			k.logger.Info("layer unchanged", "config", config, "layer", layer)
			continue
		}
		k.logger.Info("storing layer", "config", config, "layer", layer)
		if err := k.store.StoreLayer(config, layer, column); err != nil {
			return fmt.Errorf("store config %d layer %d: %w", config, layer, err)
		}
	}
	return nil
}

func behaviorsEqual(a, b []scancode.Behavior) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// WriteToStream writes every cell's encoding to the transfer stream in
// key-major order.
func (k *Keys) WriteToStream(ctx context.Context, w StreamWriter) error {
	var buf [scancode.MaxEncodedLen]byte
	for i := 0; i < NumKeys; i++ {
		for layer := 0; layer < NumLayers; layer++ {
			b := k.codes[i][layer]
			if err := b.Encode(buf[:]); err != nil {
				return err
			}
			if err := w.Write(ctx, buf[:b.EncodedLen()]); err != nil {
				return err
			}
		}
	}
	return nil
}

// LoadFromStream replaces the table with cells read from the transfer
// stream, becoming profile config. The stream is self-synchronizing: each
// cell's length follows from its tag byte.
func (k *Keys) LoadFromStream(ctx context.Context, r StreamReader, config int) error {
	k.configNum = config
	var buf [scancode.MaxEncodedLen]byte
	for i := 0; i < NumKeys; i++ {
		for layer := 0; layer < NumLayers; layer++ {
			tag, err := r.Pop(ctx)
			if err != nil {
				return err
			}
			buf[0] = tag
			kind := scancode.Kind(tag)
			if !kind.Valid() {
				return scancode.ErrInvalidFormat
			}
			if err := r.PopSlice(ctx, buf[1:kind.EncodedLen()]); err != nil {
				return err
			}
			b, err := scancode.Decode(buf[:kind.EncodedLen()])
			if err != nil {
				return err
			}
			k.codes[i][layer] = b
		}
	}
	if k.indicator != nil {
		k.indicator.IndicateConfig(k.configNum)
	}
	return nil
}
