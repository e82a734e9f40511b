package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/kehao95/line-sim/internal/config"
	"github.com/kehao95/line-sim/internal/line"
	"github.com/rs/zerolog"
)

const (
	DefaultMessage    = "Hello, LINE Echo Bot!"
	DefaultWebhookURL = config.DefaultWebhookURL
)

type Config struct {
	WebhookURL string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

type Result struct {
	StatusCode int
	Body       string
}

// OK reports whether the bot answered 200.
func (r Result) OK() bool {
	return r.StatusCode == http.StatusOK
}

// ConnectError means nothing accepted the TCP connection at URL.
type ConnectError struct {
	URL string
	err error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("could not connect to %s: %v", e.URL, e.err)
}

func (e *ConnectError) Unwrap() error {
	return e.err
}

func IsConnectError(err error) bool {
	var connErr *ConnectError
	return errors.As(err, &connErr)
}

// MessageFromArgs joins command line arguments into the message text.
func MessageFromArgs(args []string) string {
	if len(args) == 0 {
		return DefaultMessage
	}
	return strings.Join(args, " ")
}

// Send posts a single simulated text message event to cfg.WebhookURL and
// returns the bot's status code and raw body.
func Send(ctx context.Context, cfg Config, text string) (Result, error) {
	url := cfg.WebhookURL
	if url == "" {
		url = DefaultWebhookURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	body, err := json.Marshal(line.NewTextEvent(text))
	if err != nil {
		return Result{}, fmt.Errorf("encode webhook event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(line.SignatureHeader, line.PlaceholderSignature)

	cfg.Logger.Debug().Str("url", url).Int("bytes", len(body)).Msg("posting webhook event")

	resp, err := client.Do(req)
	if err != nil {
		if isDialError(err) {
			return Result{}, &ConnectError{URL: url, err: err}
		}
		return Result{}, fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{StatusCode: resp.StatusCode}, fmt.Errorf("read response: %w", err)
	}

	cfg.Logger.Debug().Int("status", resp.StatusCode).Int("bytes", len(respBody)).Msg("webhook response")

	return Result{StatusCode: resp.StatusCode, Body: string(respBody)}, nil
}

func isDialError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}
