package storage

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"

	"github.com/quillmk/quill/keymap"
	"github.com/quillmk/quill/scancode"
)

// checkValue is the marker stored under the check key once the flash map has
// been initialized. Any other value (or its absence) means the map holds
// garbage and is erased.
const checkValue uint32 = 0x69

// Flash is a key-value record store over a flash region.
type Flash interface {
	// Get returns the record stored under key, or ok=false if absent.
	Get(key uint16) (val []byte, ok bool, err error)

	// Put stores the record under key, replacing any existing value.
	Put(key uint16, val []byte) error

	// EraseAll clears every record.
	EraseAll() error
}

// Store is the profile store over a Flash. It implements keymap.ConfigStore.
// Methods serialize flash access internally; the scan task and the transfer
// task may share one Store.
type Store struct {
	mu     sync.Mutex
	flash  Flash
	logger *slog.Logger
}

// NewStore wraps flash. Call Open before first use.
func NewStore(flash Flash, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{flash: flash, logger: logger}
}

// Open validates the check record and erase-initializes the map when it is
// absent or holds the wrong value. Stored profiles survive only a clean
// check record.
func (s *Store) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	val, ok, err := s.flash.Get(CheckKey().Index())
	if err != nil {
		return fmt.Errorf("read check record: %w", err)
	}
	if ok && len(val) == 4 && binary.LittleEndian.Uint32(val) == checkValue {
		s.logger.Debug("storage valid")
		return nil
	}
	if ok {
		s.logger.Warn("check record invalid, erasing storage")
	} else {
		s.logger.Info("storage uninitialized, erasing")
	}
	return s.initLocked()
}

// Clear erases the map and rewrites the check record.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initLocked()
}

func (s *Store) initLocked() error {
	if err := s.flash.EraseAll(); err != nil {
		return fmt.Errorf("erase storage: %w", err)
	}
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], checkValue)
	if err := s.flash.Put(CheckKey().Index(), buf[:]); err != nil {
		return fmt.Errorf("write check record: %w", err)
	}
	return nil
}

// LoadLayer returns the stored cell table for (config, layer).
func (s *Store) LoadLayer(config, layer int) ([]scancode.Behavior, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	val, ok, err := s.flash.Get(ScanCodeKey(config, layer).Index())
	if err != nil {
		return nil, false, fmt.Errorf("read layer record: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	codes := make([]scancode.Behavior, keymap.NumKeys)
	for i := range codes {
		codes[i] = scancode.Default()
	}
	if err := scancode.DecodeTable(val, codes); err != nil {
		return nil, false, fmt.Errorf("decode layer record: %w", err)
	}
	return codes, true, nil
}

// StoreLayer persists the cell table for (config, layer).
func (s *Store) StoreLayer(config, layer int, codes []scancode.Behavior) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := scancode.AppendTable(nil, codes)
	if err := s.flash.Put(ScanCodeKey(config, layer).Index(), buf); err != nil {
		return fmt.Errorf("write layer record: %w", err)
	}
	return nil
}
