package log

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"
)

// RawLogger handles raw frame logging with optional file output.
type RawLogger interface {
	Log(toKeyboard bool, data []byte)
}

// rawLogger implements RawLogger with thread-safe output.
type rawLogger struct {
	w  io.Writer
	mu sync.Mutex
}

// NewRaw creates a new RawLogger. If w is nil, returns a no-op logger.
func NewRaw(w io.Writer) RawLogger {
	return &rawLogger{w: w}
}

// Log emits a single-line raw frame log with timestamp and hex dump.
// toKeyboard=true means host->keyboard, false means keyboard->host.
func (r *rawLogger) Log(toKeyboard bool, data []byte) {
	if len(data) == 0 || r.w == nil {
		return
	}

	dir := "K->H"
	if toKeyboard {
		dir = "H->K"
	}

	var hexbuf bytes.Buffer
	const hexdigits = "0123456789abcdef"
	for i, b := range data {
		if i > 0 {
			hexbuf.WriteByte(' ')
		}
		hexbuf.WriteByte(hexdigits[b>>4])
		hexbuf.WriteByte(hexdigits[b&0x0f])
	}

	line := fmt.Sprintf("%s %s frame: %d bytes, hex: %s\n",
		time.Now().Format("2006/01/02 15:04:05"),
		dir,
		len(data),
		hexbuf.String())

	r.mu.Lock()
	_, _ = r.w.Write([]byte(line))
	r.mu.Unlock()
}
