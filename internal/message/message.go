package message

import "encoding/json"

// EventMessage is the JSONL envelope for a webhook event accepted by the
// receiver. Payload is the event object exactly as the sender posted it.
type EventMessage struct {
	Type       string          `json:"type"`
	EventType  string          `json:"event_type"`
	UserID     string          `json:"user_id,omitempty"`
	Text       string          `json:"text,omitempty"`
	ReplyToken string          `json:"reply_token,omitempty"`
	Signed     bool            `json:"signed"`
	ReceivedAt int64           `json:"received_at"`
	Payload    json.RawMessage `json:"payload"`
}
