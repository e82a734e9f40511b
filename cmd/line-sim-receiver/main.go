package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kehao95/line-sim/internal/client"
	"github.com/kehao95/line-sim/internal/config"
	"github.com/kehao95/line-sim/internal/logger"
	"github.com/kehao95/line-sim/internal/receiver"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev"

type exitError struct {
	code int
}

func (e exitError) Error() string {
	return fmt.Sprintf("exit with code %d", e.code)
}

func (e exitError) ExitCode() int {
	return e.code
}

func runWithSignals(run func(context.Context) error) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx)
	}()

	select {
	case sig := <-sigCh:
		cancel()
		_ = <-errCh
		if sig == os.Interrupt {
			return exitError{code: 130}
		}
		return exitError{code: 143}
	case err := <-errCh:
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
}

type app struct {
	v   *viper.Viper
	cfg *config.Config
	log zerolog.Logger
}

func (a *app) load(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.v)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg
	a.log = logger.New(cfg.Logging)
	return nil
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	rootCmd := &cobra.Command{
		Use:               "line-sim-receiver",
		Short:             "Local stand-in for a LINE bot webhook endpoint",
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
	}
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")

	listenCmd := &cobra.Command{
		Use:   "listen",
		Short: "Accept webhooks and stream them to watchers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithSignals(func(ctx context.Context) error {
				err := receiver.Run(ctx, receiver.Config{
					Port:          a.cfg.Listen.Port,
					ChannelSecret: a.cfg.Listen.ChannelSecret,
					Version:       version,
					Logger:        a.log,
				})
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
		},
	}
	listenCmd.Flags().Int("port", config.DefaultPort, "Port to listen on")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Print events accepted by a running receiver as JSON lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithSignals(func(ctx context.Context) error {
				err := client.Run(ctx, client.Config{
					ServerURL: a.cfg.Watch.Server,
					Events:    a.cfg.Watch.Events,
					Sources:   a.cfg.Watch.Sources,
					Out:       cmd.OutOrStdout(),
					Logger:    a.log,
				})
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
		},
	}
	watchCmd.Flags().String("server", config.DefaultServerURL, "Receiver WebSocket URL")
	watchCmd.Flags().StringSlice("event", nil, "Only stream these event types (message, follow, ...)")
	watchCmd.Flags().StringSlice("source", nil, "Only stream events from these source types (user, group, room)")

	bindings := []struct {
		key  string
		cmd  *cobra.Command
		name string
	}{
		{"listen.port", listenCmd, "port"},
		{"watch.server", watchCmd, "server"},
		{"watch.events", watchCmd, "event"},
		{"watch.sources", watchCmd, "source"},
	}
	for _, b := range bindings {
		_ = config.Bind(a.v, b.key, b.cmd.Flags().Lookup(b.name))
	}
	_ = config.Bind(a.v, "log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = config.Bind(a.v, "log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(listenCmd, watchCmd)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var exitErr interface{ ExitCode() int }
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		os.Exit(1)
	}
}
