package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/quillmk/quill/com"
	"github.com/quillmk/quill/internal/log"
	"github.com/quillmk/quill/keymap"
	"github.com/quillmk/quill/keystate"
	"github.com/quillmk/quill/report"
	"github.com/quillmk/quill/storage"
)

const scanInterval = time.Millisecond

// simKeys maps terminal keystrokes to switch indexes, row by row.
const simKeys = "1234567890qwertyuiopasdfghjkl;zxcvbn"

// Run hosts the keyboard core on a developer machine: switch state is
// toggled from the terminal and the keymap protocol is served over TCP.
type Run struct {
	Addr        string `help:"Keymap protocol listen address" default:":7272" env:"QUILL_ADDR"`
	FlashFile   string `help:"Flash image file; empty keeps state in memory" env:"QUILL_FLASH_FILE"`
	Profile     int    `help:"Profile loaded at startup" default:"0"`
	Interactive bool   `help:"Toggle switches from the terminal" default:"true" negatable:""`
}

// Run is called by Kong when the run command is executed.
func (r *Run) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var flash storage.Flash
	if r.FlashFile == "" {
		flash = storage.NewMemFlash()
	} else {
		f, err := storage.OpenFileFlash(r.FlashFile)
		if err != nil {
			return fmt.Errorf("open flash image: %w", err)
		}
		flash = f
	}
	store := storage.NewStore(flash, logger)
	if err := store.Open(); err != nil {
		return fmt.Errorf("open storage: %w", err)
	}

	var keysMu sync.Mutex
	keys := keymap.New(store, logger)
	if err := keys.LoadFromStorage(r.Profile); err != nil {
		if !errors.Is(err, keymap.ErrNoStoredConfig) {
			return err
		}
		logger.Warn("no stored keymap, starting with defaults", "profile", r.Profile)
	}

	sensors := newTermSensors()
	if err := keys.SetupPositions(ctx, sensors); err != nil {
		return err
	}
	gen := report.NewGenerator(sensors)

	ln, err := net.Listen("tcp", r.Addr)
	if err != nil {
		return err
	}
	defer ln.Close()
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()
	logger.Info("keymap protocol listening", "addr", ln.Addr())
	go r.serve(ctx, ln, &keysMu, keys, store, logger, rawLogger)

	if r.Interactive && term.IsTerminal(int(os.Stdin.Fd())) {
		oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
		if err != nil {
			return err
		}
		defer func() { _ = term.Restore(int(os.Stdin.Fd()), oldState) }()
		logger.Info("keys 1-0, q-p, a-;, z-n toggle switches, Esc quits")
		go readKeystrokes(stop, sensors, logger)
	}

	r.scanLoop(ctx, &keysMu, keys, gen, logger, rawLogger)
	return nil
}

// scanLoop runs one Generate per scan tick and logs the reports a real
// keyboard would put on the wire.
func (r *Run) scanLoop(ctx context.Context, keysMu *sync.Mutex, keys *keymap.Keys, gen *report.Generator, logger *slog.Logger, rawLogger log.RawLogger) {
	ticker := time.NewTicker(scanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		keysMu.Lock()
		kr, mr, err := gen.Generate(ctx, keys)
		keysMu.Unlock()
		if err != nil {
			if ctx.Err() == nil {
				logger.Error("scan tick failed", "error", err)
			}
			return
		}
		if kr != nil {
			rawLogger.Log(false, kr.BuildReport())
			logger.Debug("keyboard report", "modifiers", kr.Modifiers)
		}
		if mr != nil {
			rawLogger.Log(false, mr.BuildReport())
			logger.Debug("mouse report", "buttons", mr.Buttons, "dx", mr.DX, "dy", mr.DY)
		}
	}
}

func (r *Run) serve(ctx context.Context, ln net.Listener, keysMu *sync.Mutex, keys *keymap.Keys, store keymap.ConfigStore, logger *slog.Logger, rawLogger log.RawLogger) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() == nil {
				logger.Error("accept failed", "error", err)
			}
			return
		}
		logger.Info("host connected", "remote", conn.RemoteAddr())
		go func() {
			defer conn.Close()
			framer := newLoggingFramer(com.NewConnFramer(conn), rawLogger)
			c := com.New(keysMu, keys, store, framer, framer, logger)
			if err := c.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Info("host disconnected", "remote", conn.RemoteAddr(), "error", err)
			}
		}()
	}
}

func readKeystrokes(stop func(), sensors *termSensors, logger *slog.Logger) {
	var buf [1]byte
	for {
		if _, err := os.Stdin.Read(buf[:]); err != nil {
			return
		}
		switch buf[0] {
		case 0x1b, 0x03: // Esc, Ctrl-C
			stop()
			return
		}
		for i := 0; i < len(simKeys); i++ {
			if simKeys[i] == buf[0] {
				pressed := sensors.Toggle(i)
				logger.Debug("switch toggled", "key", i, "pressed", pressed)
				break
			}
		}
	}
}

// termSensors feeds keyboard switch samples from terminal toggles. A real
// terminal cannot report key releases, so each keystroke flips its switch.
type termSensors struct {
	mu      sync.Mutex
	pressed [keymap.NumKeys]bool
}

func newTermSensors() *termSensors { return &termSensors{} }

// Toggle flips the switch at index and returns the new state.
func (t *termSensors) Toggle(index int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pressed[index] = !t.pressed[index]
	return t.pressed[index]
}

func (t *termSensors) UpdatePositions(ctx context.Context, states []keystate.KeyState) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range states {
		var sample uint16
		if i < len(t.pressed) && t.pressed[i] {
			sample = 1
		}
		states[i].UpdateBuf(sample)
	}
	return nil
}

func (t *termSensors) Setup(ctx context.Context, states []keystate.KeyState) error {
	for _, s := range states {
		for !s.Setup(0) {
		}
	}
	return nil
}

// loggingFramer wraps a framer and hex-dumps every frame that crosses it.
type loggingFramer struct {
	inner     *com.ConnFramer
	rawLogger log.RawLogger
}

func newLoggingFramer(inner *com.ConnFramer, rawLogger log.RawLogger) *loggingFramer {
	return &loggingFramer{inner: inner, rawLogger: rawLogger}
}

func (l *loggingFramer) ReadFrame(ctx context.Context, buf []byte) (int, error) {
	n, err := l.inner.ReadFrame(ctx, buf)
	if err == nil {
		l.rawLogger.Log(true, buf[:n])
	}
	return n, err
}

func (l *loggingFramer) WriteFrame(ctx context.Context, buf []byte) error {
	l.rawLogger.Log(false, buf)
	return l.inner.WriteFrame(ctx, buf)
}
