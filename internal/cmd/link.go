package cmd

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/quillmk/quill/internal/link"
	"github.com/quillmk/quill/internal/log"
)

// Link bridges the keymap protocol across an untrusted network. In client
// mode it accepts plaintext connections locally and encrypts them to the
// upstream bridge; with --serve it accepts encrypted connections and
// forwards them to the keyboard in plaintext.
type Link struct {
	ListenAddr        string        `help:"Listen address" default:":7273" env:"QUILL_LINK_ADDR"`
	UpstreamAddr      string        `help:"Address to forward connections to" required:"" env:"QUILL_LINK_UPSTREAM"`
	Passphrase        string        `help:"Shared passphrase for the encrypted side" required:"" env:"QUILL_LINK_PASSPHRASE"`
	Serve             bool          `help:"Accept encrypted connections instead of making them"`
	ConnectionTimeout time.Duration `help:"Connection timeout" default:"30s" env:"QUILL_LINK_TIMEOUT"`
}

// Run is called by Kong when the link command is executed.
func (l *Link) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signalContext()
	defer stop()

	key := link.DeriveKey(l.Passphrase)

	ln, err := net.Listen("tcp", l.ListenAddr)
	if err != nil {
		return err
	}
	defer ln.Close()
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()
	logger.Info("link listening", "addr", ln.Addr(), "upstream", l.UpstreamAddr, "serve", l.Serve)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		go l.bridge(ctx, conn, key, logger, rawLogger)
	}
}

func (l *Link) bridge(ctx context.Context, conn net.Conn, key []byte, logger *slog.Logger, rawLogger log.RawLogger) {
	defer conn.Close()
	logger.Info("bridging connection", "remote", conn.RemoteAddr())

	d := net.Dialer{Timeout: l.ConnectionTimeout}
	upstream, err := d.DialContext(ctx, "tcp", l.UpstreamAddr)
	if err != nil {
		logger.Error("dial upstream failed", "upstream", l.UpstreamAddr, "error", err)
		return
	}
	defer upstream.Close()

	// Exactly one side of the bridge is encrypted.
	if l.Serve {
		if conn, err = link.WrapConn(conn, key); err != nil {
			logger.Error("secure accepted connection failed", "error", err)
			return
		}
	} else {
		if upstream, err = link.WrapConn(upstream, key); err != nil {
			logger.Error("secure upstream connection failed", "error", err)
			return
		}
	}

	done := make(chan struct{}, 2)
	go pipe(upstream, conn, true, rawLogger, done)
	go pipe(conn, upstream, false, rawLogger, done)

	select {
	case <-ctx.Done():
	case <-done:
	}
	logger.Info("connection closed", "remote", conn.RemoteAddr())
}

// pipe copies one direction of the bridge, hex-dumping everything that
// crosses it.
func pipe(dst, src net.Conn, toKeyboard bool, rawLogger log.RawLogger, done chan<- struct{}) {
	defer func() { done <- struct{}{} }()
	buf := make([]byte, 4096)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			rawLogger.Log(toKeyboard, buf[:n])
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return
			}
		}
		if err != nil {
			return
		}
	}
}
