// Package com implements the host configuration channel: a byte stream
// packed into fixed 32-byte frames, and the request loop that serves keymap
// transfers over it.
package com

import (
	"context"
	"fmt"
	"io"
)

// FrameSize is the fixed transfer unit, matching a 32-byte HID feature
// report.
const FrameSize = 32

// FrameReader reads one full frame per call.
type FrameReader interface {
	// ReadFrame fills buf (FrameSize bytes) and returns the frame length.
	ReadFrame(ctx context.Context, buf []byte) (int, error)
}

// FrameWriter writes one full frame per call.
type FrameWriter interface {
	WriteFrame(ctx context.Context, buf []byte) error
}

// Reader unpacks a byte stream out of consecutive frames. It implements the
// keymap transfer stream's read side.
type Reader struct {
	fr     FrameReader
	index  int
	length int
	buffer [FrameSize]byte
}

// NewReader returns a Reader over fr.
func NewReader(fr FrameReader) *Reader {
	return &Reader{fr: fr}
}

// Pop returns the next stream byte, reading a new frame when the current one
// is exhausted.
func (r *Reader) Pop(ctx context.Context) (byte, error) {
	if r.index == 0 {
		n, err := r.fr.ReadFrame(ctx, r.buffer[:])
		if err != nil {
			return 0, err
		}
		r.length = n
	}
	val := r.buffer[r.index]
	r.index++
	if r.index == r.length {
		r.index = 0
	}
	return val, nil
}

// PopSlice fills buf from the stream, spanning frames as needed.
func (r *Reader) PopSlice(ctx context.Context, buf []byte) error {
	bufIndex := 0
	for bufIndex < len(buf) {
		if r.index == 0 {
			n, err := r.fr.ReadFrame(ctx, r.buffer[:])
			if err != nil {
				return err
			}
			r.length = n
		}
		n := copy(buf[bufIndex:], r.buffer[r.index:r.length])
		bufIndex += n
		r.index += n
		if r.index == r.length {
			r.index = 0
		}
	}
	return nil
}

// Flush discards the unread remainder of the current frame, realigning the
// stream to the next frame boundary.
func (r *Reader) Flush() {
	r.index = 0
}

// Writer packs a byte stream into consecutive frames. It implements the
// keymap transfer stream's write side.
type Writer struct {
	fw     FrameWriter
	index  int
	buffer [FrameSize]byte
}

// NewWriter returns a Writer over fw.
func NewWriter(fw FrameWriter) *Writer {
	return &Writer{fw: fw}
}

// Write appends buf to the stream, emitting each frame as it fills.
func (w *Writer) Write(ctx context.Context, buf []byte) error {
	bufIndex := 0
	for bufIndex < len(buf) {
		n := copy(w.buffer[w.index:], buf[bufIndex:])
		bufIndex += n
		w.index += n
		if w.index == FrameSize {
			if err := w.fw.WriteFrame(ctx, w.buffer[:]); err != nil {
				return err
			}
			w.index = 0
		}
	}
	return nil
}

// Flush zero-pads and emits the partial frame, if any.
func (w *Writer) Flush(ctx context.Context) error {
	if w.index == 0 {
		return nil
	}
	for i := w.index; i < FrameSize; i++ {
		w.buffer[i] = 0
	}
	w.index = 0
	return w.fw.WriteFrame(ctx, w.buffer[:])
}

// ConnFramer adapts a byte connection into whole-frame reads and writes.
type ConnFramer struct {
	rw io.ReadWriter
}

// NewConnFramer returns a framer over rw.
func NewConnFramer(rw io.ReadWriter) *ConnFramer {
	return &ConnFramer{rw: rw}
}

func (c *ConnFramer) ReadFrame(ctx context.Context, buf []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if _, err := io.ReadFull(c.rw, buf[:FrameSize]); err != nil {
		return 0, fmt.Errorf("read frame: %w", err)
	}
	return FrameSize, nil
}

func (c *ConnFramer) WriteFrame(ctx context.Context, buf []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.rw.Write(buf[:FrameSize]); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}
