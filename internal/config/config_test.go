package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3001/webhook", cfg.WebhookURL)
	assert.Equal(t, DefaultWebhookURL, cfg.WebhookURL)
	assert.Equal(t, 3001, cfg.Listen.Port)
	assert.Empty(t, cfg.Listen.ChannelSecret)
	assert.Equal(t, "ws://localhost:3001/ws", cfg.Watch.Server)
	assert.Empty(t, cfg.Watch.Events)
	assert.Empty(t, cfg.Watch.Sources)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("LINE_SIM_WEBHOOK_URL", "http://127.0.0.1:9000/hook")
	t.Setenv("LINE_SIM_LISTEN_PORT", "9000")
	t.Setenv("LINE_SIM_LISTEN_CHANNEL_SECRET", "s3cr3t")
	t.Setenv("LINE_SIM_WATCH_EVENTS", "message,follow")
	t.Setenv("LINE_SIM_WATCH_SOURCES", "group")
	t.Setenv("LINE_SIM_LOG_LEVEL", "debug")

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:9000/hook", cfg.WebhookURL)
	assert.Equal(t, 9000, cfg.Listen.Port)
	assert.Equal(t, "s3cr3t", cfg.Listen.ChannelSecret)
	assert.Equal(t, []string{"message", "follow"}, cfg.Watch.Events)
	assert.Equal(t, []string{"group"}, cfg.Watch.Sources)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestBindFlag(t *testing.T) {
	t.Setenv("LINE_SIM_WEBHOOK_URL", "http://from-env/webhook")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("url", "http://localhost:3001/webhook", "")

	v := New()
	require.NoError(t, Bind(v, "webhook_url", flags.Lookup("url")))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "http://from-env/webhook", cfg.WebhookURL)

	require.NoError(t, flags.Parse([]string{"--url", "http://from-flag/webhook"}))
	cfg, err = Load(v)
	require.NoError(t, err)
	assert.Equal(t, "http://from-flag/webhook", cfg.WebhookURL)
}

func TestBindNilFlag(t *testing.T) {
	assert.NoError(t, Bind(New(), "webhook_url", nil))
}
