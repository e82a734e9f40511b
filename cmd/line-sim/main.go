package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kehao95/line-sim/internal/config"
	"github.com/kehao95/line-sim/internal/logger"
	"github.com/kehao95/line-sim/internal/simulator"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Flags are recognised only as a leading run of these names. Anything else,
// including an unknown flag, is message text.
var flagKeys = map[string]string{
	"url":        "webhook_url",
	"log-level":  "log.level",
	"log-format": "log.format",
}

func newFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("line-sim", pflag.ContinueOnError)
	flags.SetInterspersed(false)
	flags.SetOutput(io.Discard)
	flags.String("url", simulator.DefaultWebhookURL, "Webhook URL to post to")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "text", "Log format (text, json)")
	return flags
}

func isOwnFlag(arg string) bool {
	name, ok := strings.CutPrefix(arg, "--")
	if !ok {
		return false
	}
	name, _, _ = strings.Cut(name, "=")
	_, known := flagKeys[name]
	return known
}

// parseArgs splits args into a leading run of our own flags and the message
// words after it. A "--" right after that run is dropped. If the run does not
// parse, every word is message text.
func parseArgs(flags *pflag.FlagSet, args []string) []string {
	n := 0
	for n < len(args) && isOwnFlag(args[n]) {
		if strings.Contains(args[n], "=") {
			n++
		} else {
			n += 2
		}
	}
	if n == 0 || n > len(args) {
		return args
	}
	if err := flags.Parse(args[:n]); err != nil {
		return args
	}
	words := args[n:]
	if len(words) > 0 && words[0] == "--" {
		words = words[1:]
	}
	return words
}

func send(out io.Writer, v *viper.Viper, args []string) error {
	flags := newFlagSet()
	words := parseArgs(flags, args)
	for name, key := range flagKeys {
		if err := config.Bind(v, key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("bind --%s: %w", name, err)
		}
	}

	cfg, err := config.Load(v)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Logging)

	text := simulator.MessageFromArgs(words)
	fmt.Fprintf(out, "Sending test message: '%s'\n", text)

	res, err := simulator.Send(context.Background(), simulator.Config{
		WebhookURL: cfg.WebhookURL,
		Logger:     log,
	}, text)
	if err != nil {
		log.Debug().Err(err).Msg("send failed")
	}
	simulator.Report(out, cfg.WebhookURL, res, err)
	return nil
}

func newRootCmd() *cobra.Command {
	v := config.New()
	return &cobra.Command{
		Use:   "line-sim [--url URL] [message...]",
		Short: "Post a simulated LINE text message webhook to a local bot",
		Long: "Post a simulated LINE text message webhook to a local bot.\n\n" +
			"All arguments are joined with spaces to form the message text. Only\n" +
			"--url, --log-level and --log-format given before the first word are\n" +
			"treated as flags. The X-Line-Signature header is a fixed placeholder,\n" +
			"so only endpoints that skip signature verification accept the request.\n\n" +
			"The local receiver and watcher live in line-sim-receiver.",
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		SilenceUsage:       true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return send(cmd.OutOrStdout(), v, args)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
