package line

// Placeholder values carried by every simulated event.
const (
	PlaceholderMessageID  = "test-message-id"
	PlaceholderReplyToken = "test-reply-token"
	PlaceholderUserID     = "test-user-id"
	PlaceholderTimestamp  = int64(1234567890)

	// PlaceholderSignature is sent as X-Line-Signature. It is not an HMAC.
	PlaceholderSignature = "test-signature"

	SignatureHeader = "X-Line-Signature"
)

// WebhookEvent is the body the platform posts to a bot's webhook URL.
type WebhookEvent struct {
	Destination string         `json:"destination,omitempty"`
	Events      []MessageEvent `json:"events"`
}

type MessageEvent struct {
	Type            string           `json:"type"`
	Message         *Message         `json:"message,omitempty"`
	ReplyToken      string           `json:"reply_token,omitempty"`
	Source          Source           `json:"source"`
	Timestamp       int64            `json:"timestamp"`
	WebhookEventID  string           `json:"webhookEventId,omitempty"`
	Mode            string           `json:"mode,omitempty"`
	DeliveryContext *DeliveryContext `json:"deliveryContext,omitempty"`

	// Set only when decoding a body from the real platform.
	PlatformReplyToken string `json:"replyToken,omitempty"`
}

type Message struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Text string `json:"text"`
}

type Source struct {
	Type    string `json:"type"`
	UserID  string `json:"userId,omitempty"`
	GroupID string `json:"groupId,omitempty"`
	RoomID  string `json:"roomId,omitempty"`
}

type DeliveryContext struct {
	IsRedelivery bool `json:"isRedelivery"`
}

// NewTextEvent builds a webhook body holding exactly one text message event
// from a user.
func NewTextEvent(text string) WebhookEvent {
	return WebhookEvent{
		Events: []MessageEvent{
			{
				Type: "message",
				Message: &Message{
					Type: "text",
					ID:   PlaceholderMessageID,
					Text: text,
				},
				ReplyToken: PlaceholderReplyToken,
				Source: Source{
					Type:   "user",
					UserID: PlaceholderUserID,
				},
				Timestamp: PlaceholderTimestamp,
			},
		},
	}
}

// Token returns whichever reply token spelling the sender used.
func (e MessageEvent) Token() string {
	if e.ReplyToken != "" {
		return e.ReplyToken
	}
	return e.PlatformReplyToken
}

// Text returns the message text, or "" for non-text events.
func (e MessageEvent) Text() string {
	if e.Message == nil || e.Message.Type != "text" {
		return ""
	}
	return e.Message.Text
}
