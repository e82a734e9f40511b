package receiver

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/kehao95/line-sim/internal/line"
	"github.com/rs/zerolog"
)

type hub struct {
	subscribers map[*subscriber]bool
	broadcast   chan broadcastMessage
	register    chan *subscriber
	unregister  chan *subscriber
	done        chan struct{}
	active      atomic.Int64
	logger      zerolog.Logger
}

func newHub(logger zerolog.Logger) *hub {
	return &hub{
		subscribers: make(map[*subscriber]bool),
		broadcast:   make(chan broadcastMessage, 16),
		register:    make(chan *subscriber),
		unregister:  make(chan *subscriber),
		done:        make(chan struct{}),
		logger:      logger,
	}
}

func (h *hub) run(ctx context.Context) {
	defer func() {
		for sub := range h.subscribers {
			close(sub.send)
		}
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case sub := <-h.register:
			h.subscribers[sub] = true
			h.recount("ws subscriber added")
		case sub := <-h.unregister:
			if _, ok := h.subscribers[sub]; ok {
				delete(h.subscribers, sub)
				close(sub.send)
				h.recount("ws subscriber removed")
			}
		case message := <-h.broadcast:
			dropped := 0
			for sub := range h.subscribers {
				if !sub.wants(message.eventType, message.sourceType) {
					continue
				}
				select {
				case sub.send <- message.data:
				default:
					delete(h.subscribers, sub)
					close(sub.send)
					dropped++
				}
			}
			if dropped > 0 {
				h.recount("slow ws subscribers dropped")
			}
		}
	}
}

func (h *hub) recount(msg string) {
	n := len(h.subscribers)
	h.active.Store(int64(n))
	h.logger.Info().Int("subscribers", n).Msg(msg)
}

// publish queues an accepted event for every subscriber whose filter matches
// it. It reports false when the queue is full.
func (h *hub) publish(event line.MessageEvent, data []byte) bool {
	select {
	case h.broadcast <- broadcastMessage{eventType: event.Type, sourceType: event.Source.Type, data: data}:
		return true
	default:
		return false
	}
}

func (h *hub) add(sub *subscriber) bool {
	select {
	case h.register <- sub:
		return true
	case <-h.done:
		return false
	}
}

func (h *hub) remove(sub *subscriber) {
	select {
	case h.unregister <- sub:
	case <-h.done:
	}
}

type broadcastMessage struct {
	eventType  string
	sourceType string
	data       []byte
}

// filter selects events by type ("message", "follow", ...) and by the kind of
// chat they came from ("user", "group", "room"). Empty lists match anything.
type filter struct {
	events  []string
	sources []string
}

func (f filter) match(eventType, sourceType string) bool {
	return matchAny(f.events, eventType) && matchAny(f.sources, sourceType)
}

func matchAny(allowed []string, value string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, candidate := range allowed {
		if candidate == value {
			return true
		}
	}
	return false
}

type subscriber struct {
	hub    *hub
	conn   *websocket.Conn
	send   chan []byte
	mu     sync.RWMutex
	filter filter
	logger zerolog.Logger
}

// subscribeMessage is the only frame a watcher sends.
type subscribeMessage struct {
	Type    string   `json:"type"`
	Events  []string `json:"events"`
	Sources []string `json:"sources,omitempty"`
}

func (s *subscriber) wants(eventType, sourceType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter.match(eventType, sourceType)
}

func (s *subscriber) subscribe(msg subscribeMessage) {
	s.mu.Lock()
	s.filter = filter{
		events:  append([]string(nil), msg.Events...),
		sources: append([]string(nil), msg.Sources...),
	}
	s.mu.Unlock()
	s.logger.Info().
		Str("remote", s.conn.RemoteAddr().String()).
		Strs("events", msg.Events).
		Strs("sources", msg.Sources).
		Msg("ws subscribed")
}

// readPump applies subscribe frames until the connection drops.
func (s *subscriber) readPump() {
	defer func() {
		s.hub.remove(s)
		_ = s.conn.Close()
	}()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg subscribeMessage
		if json.Unmarshal(data, &msg) != nil || msg.Type != "subscribe" {
			continue
		}
		s.subscribe(msg)
	}
}

func (s *subscriber) writePump() {
	defer func() {
		_ = s.conn.Close()
	}()

	for data := range s.send {
		if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}
