package receiver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kehao95/line-sim/internal/line"
	"github.com/kehao95/line-sim/internal/message"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

type Config struct {
	Port          int
	ChannelSecret string
	Version       string
	Logger        zerolog.Logger
}

// Receiver is a local stand-in for the bot's webhook endpoint.
type Receiver struct {
	cfg         Config
	hub         *hub
	upgrader    websocket.Upgrader
	warnNoCheck sync.Once
	now         func() time.Time
}

func New(cfg Config) *Receiver {
	return &Receiver{
		cfg: cfg,
		hub: newHub(cfg.Logger),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		now: time.Now,
	}
}

// Start runs the broadcast hub until ctx is done.
func (rc *Receiver) Start(ctx context.Context) {
	go rc.hub.run(ctx)
}

func (rc *Receiver) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", rc.handleHealth)
	mux.HandleFunc("GET /health", rc.handleHealth)
	mux.HandleFunc("GET /webhook", rc.handleHealth)
	mux.HandleFunc("POST /webhook", rc.handleWebhook)
	mux.HandleFunc("/debug", rc.handleDebug)
	mux.HandleFunc("GET /ws", rc.handleWS)
	return mux
}

func (rc *Receiver) handleWebhook(w http.ResponseWriter, r *http.Request) {
	logger := rc.cfg.Logger
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	signed := rc.cfg.ChannelSecret != ""
	if !signed {
		rc.warnNoCheck.Do(func() {
			logger.Warn().Msg("signature verification disabled: LINE_SIM_LISTEN_CHANNEL_SECRET is not set")
		})
	}
	if ok, err := line.VerifySignature(body, r.Header.Get(line.SignatureHeader), rc.cfg.ChannelSecret); !ok {
		logger.Warn().Err(err).Msg("webhook signature verification failed")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var envelope struct {
		Destination string            `json:"destination"`
		Events      []json.RawMessage `json:"events"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		logger.Warn().Err(err).Msg("failed to decode webhook body")
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	for _, raw := range envelope.Events {
		var event line.MessageEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			logger.Warn().Err(err).Msg("failed to decode webhook event")
			http.Error(w, "invalid event", http.StatusBadRequest)
			return
		}
		if event.DeliveryContext != nil && event.DeliveryContext.IsRedelivery {
			logger.Info().Str("webhook_event_id", event.WebhookEventID).Msg("skipping redelivered event")
			continue
		}
		rc.dispatch(event, raw, signed)
	}

	logger.Info().Int("events", len(envelope.Events)).Int("bytes", len(body)).Msg("webhook received")

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (rc *Receiver) dispatch(event line.MessageEvent, raw json.RawMessage, signed bool) {
	logger := rc.cfg.Logger
	logger.Info().
		Str("type", event.Type).
		Str("user", event.Source.UserID).
		Str("text", event.Text()).
		Msg("event")

	encoded, err := json.Marshal(message.EventMessage{
		Type:       "event",
		EventType:  event.Type,
		UserID:     event.Source.UserID,
		Text:       event.Text(),
		ReplyToken: event.Token(),
		Signed:     signed,
		ReceivedAt: rc.now().Unix(),
		Payload:    raw,
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to encode stream message")
		return
	}
	if !rc.hub.publish(event, encoded) {
		logger.Warn().Str("type", event.Type).Msg("broadcast dropped")
	}
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func (rc *Receiver) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(healthResponse{Status: "ok", Version: rc.cfg.Version})
}

// handleDebug logs whatever it is sent and reports whether it decodes as a
// webhook body. Nothing is verified or broadcast.
func (rc *Receiver) handleDebug(w http.ResponseWriter, r *http.Request) {
	logger := rc.cfg.Logger
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	logger.Info().Str("method", r.Method).Str("body", string(body)).Msg("raw request body")

	if len(body) > 0 {
		var event line.WebhookEvent
		if err := json.Unmarshal(body, &event); err != nil {
			logger.Error().Err(err).Msg("failed to decode webhook body")
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}

func (rc *Receiver) handleWS(w http.ResponseWriter, r *http.Request) {
	logger := rc.cfg.Logger
	conn, err := rc.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	logger.Info().Str("remote", r.RemoteAddr).Msg("ws connected")

	sub := &subscriber{
		hub:    rc.hub,
		conn:   conn,
		send:   make(chan []byte, 16),
		logger: logger,
	}
	if !rc.hub.add(sub) {
		_ = conn.Close()
		return
	}

	go sub.writePump()
	sub.readPump()

	logger.Info().Str("remote", r.RemoteAddr).Msg("ws disconnected")
}

// Run serves the receiver on cfg.Port until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	rc := New(cfg)
	rc.Start(ctx)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           rc.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	cfg.Logger.Info().Int("port", cfg.Port).Msg("listening")
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
