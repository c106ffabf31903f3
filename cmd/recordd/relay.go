package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/recordd/internal/config"
	"github.com/alfredjeanlab/recordd/internal/events"
	"github.com/alfredjeanlab/recordd/internal/relay"
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Consume record mutation events into processed events",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.NATSURL == "" {
			return fmt.Errorf("RECORDD_NATS_URL is required for the relay")
		}

		st, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		logger.Info("store connected", "backend", cfg.Backend)

		sub, err := events.NewNATSSubscriber(cfg.NATSURL)
		if err != nil {
			st.Close()
			return err
		}

		consumer := relay.NewConsumer(st, logger)
		runner := relay.NewRunner(sub, consumer, logger)
		if err := runner.Start(); err != nil {
			sub.Close()
			st.Close()
			return err
		}
		logger.Info("relay started", "nats_url", cfg.NATSURL, "topic", events.TopicRecordAll)

		// Wait for SIGINT or SIGTERM.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		runner.Stop()
		logger.Info("relay stopped")

		if err := sub.Close(); err != nil {
			logger.Error("error closing subscriber", "err", err)
		}
		if err := st.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}
