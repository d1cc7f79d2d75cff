package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quillmk/quill/com"
	"github.com/quillmk/quill/internal/config"
	"github.com/quillmk/quill/internal/log"
	"github.com/quillmk/quill/keymap"
	"github.com/quillmk/quill/scancode"
)

// KeymapCommand groups the keymap transfer subcommands.
type KeymapCommand struct {
	Info   KeymapInfo   `cmd:"" help:"Show the keyboard's geometry"`
	Export KeymapExport `cmd:"" help:"Download every profile into a keymap file"`
	Import KeymapImport `cmd:"" help:"Push one profile from a keymap file to the live table"`
	Flash  KeymapFlash  `cmd:"" help:"Write every profile from a keymap file to keyboard flash"`
}

// KeyboardFlags are the connection flags shared by the transfer subcommands.
type KeyboardFlags struct {
	Addr    string        `help:"Keyboard's keymap protocol address" default:"localhost:7272" env:"QUILL_ADDR"`
	Timeout time.Duration `help:"Connection timeout" default:"30s" env:"QUILL_TIMEOUT"`
}

// client speaks the host side of the keymap protocol.
type client struct {
	conn net.Conn
	r    *com.Reader
	w    *com.Writer
}

func dialKeyboard(ctx context.Context, flags KeyboardFlags, rawLogger log.RawLogger) (*client, error) {
	d := net.Dialer{Timeout: flags.Timeout}
	conn, err := d.DialContext(ctx, "tcp", flags.Addr)
	if err != nil {
		return nil, fmt.Errorf("connect to keyboard: %w", err)
	}
	framer := newLoggingFramer(com.NewConnFramer(conn), rawLogger)
	return &client{conn: conn, r: com.NewReader(framer), w: com.NewWriter(framer)}, nil
}

func (c *client) close() { _ = c.conn.Close() }

// meta requests the keyboard's geometry and checks it against ours. A
// mismatched board would corrupt the cell stream, so it is fatal.
func (c *client) meta(ctx context.Context) ([4]byte, error) {
	var m [4]byte
	if err := c.w.Write(ctx, []byte{byte(com.RequestKeyboardMetaInfo)}); err != nil {
		return m, err
	}
	if err := c.w.Flush(ctx); err != nil {
		return m, err
	}
	if err := c.r.PopSlice(ctx, m[:]); err != nil {
		return m, err
	}
	c.r.Flush()
	if m[0] != keymap.NumConfigs || m[1] != keymap.NumKeys || m[2] != keymap.NumLayers {
		return m, fmt.Errorf("keyboard geometry %dx%dx%d does not match %dx%dx%d",
			m[0], m[1], m[2], keymap.NumConfigs, keymap.NumKeys, keymap.NumLayers)
	}
	return m, nil
}

// nullStore backs the scratch tables used to encode and decode cell
// streams; nothing is ever loaded or persisted through it.
type nullStore struct{}

func (nullStore) LoadLayer(config, layer int) ([]scancode.Behavior, bool, error) {
	return nil, false, nil
}

func (nullStore) StoreLayer(config, layer int, codes []scancode.Behavior) error {
	return nil
}

// scratchFromProfile builds a transfer table from one file profile.
func scratchFromProfile(p config.Profile, logger *slog.Logger) (*keymap.Keys, error) {
	tables, err := p.Tables()
	if err != nil {
		return nil, err
	}
	keys := keymap.New(nullStore{}, logger)
	for layer, table := range tables {
		for i, b := range table {
			keys.SetBehavior(b, i, layer)
		}
	}
	return keys, nil
}

// profileFromScratch reads a transfer table back into a file profile.
func profileFromScratch(keys *keymap.Keys) config.Profile {
	tables := make([][]scancode.Behavior, keymap.NumLayers)
	for layer := range tables {
		table := make([]scancode.Behavior, keymap.NumKeys)
		for i := range table {
			table[i] = keys.Behavior(i, layer)
		}
		tables[layer] = table
	}
	return *config.FromTables(tables)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// KeymapInfo prints the keyboard's geometry.
type KeymapInfo struct {
	KeyboardFlags `embed:""`
}

func (k *KeymapInfo) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signalContext()
	defer stop()

	c, err := dialKeyboard(ctx, k.KeyboardFlags, rawLogger)
	if err != nil {
		return err
	}
	defer c.close()

	m, err := c.meta(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("profiles: %d\nkeys:     %d\nlayers:   %d\nprotocol: %d\n", m[0], m[1], m[2], m[3])
	return nil
}

// KeymapExport downloads every profile and writes them to a keymap file.
type KeymapExport struct {
	KeyboardFlags `embed:""`
	Output        string `arg:"" help:"Destination keymap file (.yaml or .toml)"`
}

func (k *KeymapExport) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signalContext()
	defer stop()

	c, err := dialKeyboard(ctx, k.KeyboardFlags, rawLogger)
	if err != nil {
		return err
	}
	defer c.close()

	if _, err := c.meta(ctx); err != nil {
		return err
	}
	if err := c.w.Write(ctx, []byte{byte(com.RequestKeyboardInfo)}); err != nil {
		return err
	}
	if err := c.w.Flush(ctx); err != nil {
		return err
	}

	file := &config.File{}
	scratch := keymap.New(nullStore{}, logger)
	for cfg := 0; cfg < keymap.NumConfigs; cfg++ {
		if err := scratch.LoadFromStream(ctx, c.r, cfg); err != nil {
			return fmt.Errorf("read profile %d: %w", cfg, err)
		}
		file.Profiles = append(file.Profiles, profileFromScratch(scratch))
	}
	c.r.Flush()

	if err := config.SaveFile(k.Output, file); err != nil {
		return err
	}
	logger.Info("exported keymap", "profiles", len(file.Profiles), "file", k.Output)
	return nil
}

// KeymapImport pushes one file profile into the live table without
// touching flash; a power cycle reverts it.
type KeymapImport struct {
	KeyboardFlags `embed:""`
	Input         string `arg:"" help:"Source keymap file (.yaml or .toml)"`
	Profile       int    `help:"Profile in the file to push" default:"0"`
	Target        int    `help:"Profile slot on the keyboard" default:"0"`
}

func (k *KeymapImport) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signalContext()
	defer stop()

	file, err := config.LoadFile(k.Input)
	if err != nil {
		return err
	}
	if k.Profile < 0 || k.Profile >= len(file.Profiles) {
		return fmt.Errorf("file has no profile %d", k.Profile)
	}
	if k.Target < 0 || k.Target >= keymap.NumConfigs {
		return fmt.Errorf("keyboard has no profile slot %d", k.Target)
	}
	scratch, err := scratchFromProfile(file.Profiles[k.Profile], logger)
	if err != nil {
		return err
	}

	c, err := dialKeyboard(ctx, k.KeyboardFlags, rawLogger)
	if err != nil {
		return err
	}
	defer c.close()

	if _, err := c.meta(ctx); err != nil {
		return err
	}
	if err := c.w.Write(ctx, []byte{byte(com.RequestUpdateKeys), byte(k.Target)}); err != nil {
		return err
	}
	if err := scratch.WriteToStream(ctx, c.w); err != nil {
		return err
	}
	if err := c.w.Flush(ctx); err != nil {
		return err
	}
	logger.Info("pushed profile", "file", k.Input, "profile", k.Profile, "target", k.Target)
	return nil
}

// KeymapFlash writes every profile in the file to keyboard flash.
type KeymapFlash struct {
	KeyboardFlags `embed:""`
	Input         string `arg:"" help:"Source keymap file (.yaml or .toml)"`
}

func (k *KeymapFlash) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signalContext()
	defer stop()

	file, err := config.LoadFile(k.Input)
	if err != nil {
		return err
	}
	if len(file.Profiles) > keymap.NumConfigs {
		return fmt.Errorf("file has %d profiles, keyboard has %d slots", len(file.Profiles), keymap.NumConfigs)
	}

	c, err := dialKeyboard(ctx, k.KeyboardFlags, rawLogger)
	if err != nil {
		return err
	}
	defer c.close()

	if _, err := c.meta(ctx); err != nil {
		return err
	}
	if err := c.w.Write(ctx, []byte{byte(com.RequestWriteToFlash)}); err != nil {
		return err
	}
	// Every slot is sent; slots past the file's profiles get default cells.
	for cfg := 0; cfg < keymap.NumConfigs; cfg++ {
		profile := config.Profile{}
		if cfg < len(file.Profiles) {
			profile = file.Profiles[cfg]
		}
		scratch, err := scratchFromProfile(profile, logger)
		if err != nil {
			return fmt.Errorf("profile %d: %w", cfg, err)
		}
		if err := scratch.WriteToStream(ctx, c.w); err != nil {
			return err
		}
	}
	if err := c.w.Flush(ctx); err != nil {
		return err
	}
	logger.Info("flashed keymap", "profiles", len(file.Profiles), "file", k.Input)
	return nil
}
