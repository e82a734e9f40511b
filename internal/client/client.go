package client

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type Config struct {
	ServerURL string
	Events    []string
	Sources   []string
	Out       io.Writer
	Logger    zerolog.Logger
}

// Run streams events from the receiver's websocket to cfg.Out, one JSON
// document per line, reconnecting until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	logger := cfg.Logger
	out := bufio.NewWriter(cfg.Out)
	backoff := time.Second

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		logger.Info().Str("server", cfg.ServerURL).Msg("connecting")
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, cfg.ServerURL, nil)
		if err != nil {
			logger.Warn().Err(err).Msg("connect failed")
			wait(ctx, backoff)
			backoff = nextBackoff(backoff)
			continue
		}

		logger.Info().Str("server", cfg.ServerURL).Msg("connected")
		backoff = time.Second

		if err := sendSubscribe(conn, cfg.Events, cfg.Sources); err != nil {
			logger.Warn().Err(err).Msg("subscribe failed")
			_ = conn.Close()
			wait(ctx, backoff)
			backoff = nextBackoff(backoff)
			continue
		}

		err = readLoop(ctx, conn, out, logger)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Info().AnErr("reason", err).Msg("disconnected")
	}
}

func readLoop(ctx context.Context, conn *websocket.Conn, out *bufio.Writer, logger zerolog.Logger) error {
	done := make(chan error, 1)
	go func() {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				done <- err
				return
			}
			if !json.Valid(msg) {
				logger.Warn().Str("data", string(msg)).Msg("invalid json from server")
			}
			if err := writeLine(out, msg); err != nil {
				done <- err
				return
			}
		}
	}()

	select {
	case <-ctx.Done():
		_ = conn.Close()
		<-done
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func writeLine(out *bufio.Writer, msg []byte) error {
	if _, err := out.Write(msg); err != nil {
		return err
	}
	if err := out.WriteByte('\n'); err != nil {
		return err
	}
	return out.Flush()
}

func sendSubscribe(conn *websocket.Conn, events, sources []string) error {
	if events == nil {
		events = []string{}
	}
	encoded, err := json.Marshal(subscribeMessage{
		Type:    "subscribe",
		Events:  events,
		Sources: sources,
	})
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, encoded)
}

type subscribeMessage struct {
	Type    string   `json:"type"`
	Events  []string `json:"events"`
	Sources []string `json:"sources,omitempty"`
}

func wait(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > 30*time.Second {
		return 30 * time.Second
	}
	return next
}
