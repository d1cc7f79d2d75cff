package com

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/quillmk/quill/keymap"
)

// Request is the one-byte opcode opening each host transaction.
type Request uint8

const (
	// RequestUpdateKeys replaces the live keymap: [config byte][cell stream].
	RequestUpdateKeys Request = iota
	// RequestKeyboardInfo dumps every profile's cell stream, in profile
	// order.
	RequestKeyboardInfo
	// RequestWriteToFlash receives every profile's cell stream and persists
	// each one.
	RequestWriteToFlash
	// RequestKeyboardMetaInfo answers with [configs, keys, layers, split].
	RequestKeyboardMetaInfo
)

// Com serves host configuration requests against the live keymap. The keys
// mutex is shared with the scan loop so a transfer never races a tick.
type Com struct {
	keysMu *sync.Mutex
	keys   *keymap.Keys
	store  keymap.ConfigStore
	r      *Reader
	w      *Writer
	logger *slog.Logger
}

// New returns a Com serving requests from fr, answering on fw.
func New(keysMu *sync.Mutex, keys *keymap.Keys, store keymap.ConfigStore, fr FrameReader, fw FrameWriter, logger *slog.Logger) *Com {
	if logger == nil {
		logger = slog.Default()
	}
	return &Com{
		keysMu: keysMu,
		keys:   keys,
		store:  store,
		r:      NewReader(fr),
		w:      NewWriter(fw),
		logger: logger,
	}
}

// Run serves requests until the context ends or the transport fails. Each
// request starts on a frame boundary; the reader realigns after every
// transaction.
func (c *Com) Run(ctx context.Context) error {
	for {
		op, err := c.r.Pop(ctx)
		if err != nil {
			return fmt.Errorf("read request: %w", err)
		}
		switch Request(op) {
		case RequestUpdateKeys:
			err = c.updateKeys(ctx)
		case RequestKeyboardInfo:
			err = c.keyboardInfo(ctx)
		case RequestWriteToFlash:
			err = c.writeToFlash(ctx)
		case RequestKeyboardMetaInfo:
			err = c.metaInfo(ctx)
		default:
			c.logger.Error("unknown request", "op", op)
		}
		if err != nil {
			return err
		}
		c.r.Flush()
	}
}

func (c *Com) updateKeys(ctx context.Context) error {
	config, err := c.r.Pop(ctx)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	c.keysMu.Lock()
	defer c.keysMu.Unlock()
	if err := c.keys.LoadFromStream(ctx, c.r, int(config)); err != nil {
		// A broken transfer must not leave a half-written table live.
		c.logger.Error("keymap transfer failed", "error", err)
		if err := c.keys.LoadFromStorage(0); err != nil {
			c.logger.Error("fallback to stored profile failed", "error", err)
		}
		return nil
	}
	c.logger.Info("keymap updated", "config", config)
	return nil
}

func (c *Com) keyboardInfo(ctx context.Context) error {
	c.logger.Info("sending keyboard config")
	scratch := keymap.New(c.store, c.logger)
	for config := 0; config < keymap.NumConfigs; config++ {
		c.keysMu.Lock()
		live := c.keys.ConfigNum() == config
		if live {
			err := c.keys.WriteToStream(ctx, c.w)
			c.keysMu.Unlock()
			if err != nil {
				return err
			}
			continue
		}
		c.keysMu.Unlock()
		// A profile with no stored record dumps as defaults.
		if err := scratch.LoadFromStorage(config); err != nil {
			c.logger.Warn("profile not stored, sending defaults", "config", config)
		}
		if err := scratch.WriteToStream(ctx, c.w); err != nil {
			return err
		}
	}
	return c.w.Flush(ctx)
}

func (c *Com) writeToFlash(ctx context.Context) error {
	scratch := keymap.New(c.store, c.logger)
	for config := 0; config < keymap.NumConfigs; config++ {
		c.keysMu.Lock()
		live := c.keys.ConfigNum() == config
		target := scratch
		if live {
			target = c.keys
		}
		if err := target.LoadFromStream(ctx, c.r, config); err != nil {
			c.keysMu.Unlock()
			return fmt.Errorf("receive config %d: %w", config, err)
		}
		err := target.StoreToStorage(config)
		c.keysMu.Unlock()
		if err != nil {
			return fmt.Errorf("persist config %d: %w", config, err)
		}
		c.logger.Info("stored profile", "config", config)
	}
	return nil
}

func (c *Com) metaInfo(ctx context.Context) error {
	c.logger.Info("sending keyboard meta info")
	meta := []byte{keymap.NumConfigs, keymap.NumKeys, keymap.NumLayers, 1}
	if err := c.w.Write(ctx, meta); err != nil {
		return err
	}
	return c.w.Flush(ctx)
}
