package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// MemFlash is an in-memory Flash, optionally snapshotted to a file after
// every mutation so a simulated keyboard keeps its profiles across runs.
type MemFlash struct {
	mu      sync.Mutex
	records map[uint16][]byte
	path    string
}

// NewMemFlash returns an empty, non-persistent flash.
func NewMemFlash() *MemFlash {
	return &MemFlash{records: make(map[uint16][]byte)}
}

// OpenFileFlash returns a flash backed by a snapshot file, loading the
// existing snapshot when one is present.
func OpenFileFlash(path string) (*MemFlash, error) {
	f := &MemFlash{records: make(map[uint16][]byte), path: path}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read flash snapshot: %w", err)
	}
	if err := yaml.Unmarshal(data, &f.records); err != nil {
		return nil, fmt.Errorf("decode flash snapshot: %w", err)
	}
	return f, nil
}

func (f *MemFlash) Get(key uint16) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	val, ok := f.records[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(val))
	copy(cp, val)
	return cp, true, nil
}

func (f *MemFlash) Put(key uint16, val []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]byte, len(val))
	copy(cp, val)
	f.records[key] = cp
	return f.snapshotLocked()
}

func (f *MemFlash) EraseAll() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = make(map[uint16][]byte)
	return f.snapshotLocked()
}

func (f *MemFlash) snapshotLocked() error {
	if f.path == "" {
		return nil
	}
	data, err := yaml.Marshal(f.records)
	if err != nil {
		return fmt.Errorf("encode flash snapshot: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return fmt.Errorf("write flash snapshot: %w", err)
	}
	return nil
}
