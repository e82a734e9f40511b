package line

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTextEventShape(t *testing.T) {
	encoded, err := json.Marshal(NewTextEvent("Hello World"))
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	require.Len(t, decoded, 1)

	events, ok := decoded["events"].([]interface{})
	require.True(t, ok)
	require.Len(t, events, 1)

	event := events[0].(map[string]interface{})
	assert.ElementsMatch(t, []string{"type", "message", "reply_token", "source", "timestamp"}, keys(event))
	assert.Equal(t, "message", event["type"])
	assert.Equal(t, "test-reply-token", event["reply_token"])
	assert.Equal(t, float64(1234567890), event["timestamp"])
	assert.Equal(t, map[string]interface{}{
		"type": "text",
		"id":   "test-message-id",
		"text": "Hello World",
	}, event["message"])
	assert.Equal(t, map[string]interface{}{
		"type":   "user",
		"userId": "test-user-id",
	}, event["source"])
}

func TestNewTextEventPreservesText(t *testing.T) {
	for _, text := range []string{
		"a",
		"Hello, LINE Echo Bot!",
		"  leading and trailing  ",
		"quotes \" and \\ backslashes",
		"こんにちは 🐬",
		"line\nbreak",
	} {
		encoded, err := json.Marshal(NewTextEvent(text))
		require.NoError(t, err)

		var decoded WebhookEvent
		require.NoError(t, json.Unmarshal(encoded, &decoded))
		require.Len(t, decoded.Events, 1)
		assert.Equal(t, text, decoded.Events[0].Text())
	}
}

func TestDecodePlatformEvent(t *testing.T) {
	body := `{
		"destination": "U0000",
		"events": [{
			"type": "message",
			"webhookEventId": "01H",
			"deliveryContext": {"isRedelivery": true},
			"message": {"type": "text", "id": "444", "text": "hi", "quoteToken": "q"},
			"replyToken": "rt",
			"source": {"type": "group", "groupId": "G1", "userId": "U1"},
			"timestamp": 1700000000000,
			"mode": "active"
		}]
	}`

	var decoded WebhookEvent
	require.NoError(t, json.Unmarshal([]byte(body), &decoded))
	require.Len(t, decoded.Events, 1)

	event := decoded.Events[0]
	assert.Equal(t, "U0000", decoded.Destination)
	assert.Equal(t, "rt", event.Token())
	assert.Equal(t, "hi", event.Text())
	assert.Equal(t, "G1", event.Source.GroupID)
	require.NotNil(t, event.DeliveryContext)
	assert.True(t, event.DeliveryContext.IsRedelivery)
}

func TestTextIgnoresNonTextMessages(t *testing.T) {
	event := MessageEvent{Type: "message", Message: &Message{Type: "sticker", ID: "1"}}
	assert.Empty(t, event.Text())
	assert.Empty(t, MessageEvent{Type: "follow"}.Text())
}

func keys(m map[string]interface{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
