package config

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix = "LINE_SIM"

	DefaultWebhookURL = "http://localhost:3001/webhook"
	DefaultPort       = 3001
	DefaultServerURL  = "ws://localhost:3001/ws"
)

type Config struct {
	WebhookURL string        `mapstructure:"webhook_url"`
	Listen     ListenConfig  `mapstructure:"listen"`
	Watch      WatchConfig   `mapstructure:"watch"`
	Logging    LoggingConfig `mapstructure:"log"`
}

type ListenConfig struct {
	Port          int    `mapstructure:"port"`
	ChannelSecret string `mapstructure:"channel_secret"`
}

type WatchConfig struct {
	Server  string   `mapstructure:"server"`
	Events  []string `mapstructure:"events"`
	Sources []string `mapstructure:"sources"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// New returns a viper instance holding the defaults and reading LINE_SIM_*
// environment variables.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("webhook_url", DefaultWebhookURL)
	v.SetDefault("listen.port", DefaultPort)
	v.SetDefault("listen.channel_secret", "")
	v.SetDefault("watch.server", DefaultServerURL)
	v.SetDefault("watch.events", []string{})
	v.SetDefault("watch.sources", []string{})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	return v
}

// Bind maps a command line flag onto a config key. Flags only win over the
// environment when set explicitly.
func Bind(v *viper.Viper, key string, flag *pflag.Flag) error {
	if flag == nil {
		return nil
	}
	return v.BindPFlag(key, flag)
}

func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
