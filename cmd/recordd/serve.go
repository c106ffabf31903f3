package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/recordd/internal/config"
	"github.com/alfredjeanlab/recordd/internal/events"
	"github.com/alfredjeanlab/recordd/internal/export"
	"github.com/alfredjeanlab/recordd/internal/seed"
	"github.com/alfredjeanlab/recordd/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the record HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		st, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		logger.Info("store connected", "backend", cfg.Backend)

		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				st.Close()
				return err
			}
			publisher = pub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = &events.NoopPublisher{}
			logger.Info("events disabled (RECORDD_NATS_URL not set)")
		}

		// Preload fixtures from file, if configured.
		if cfg.SeedFile != "" {
			fixtures, err := seed.LoadFile(cfg.SeedFile)
			if err != nil {
				publisher.Close()
				st.Close()
				return err
			}
			n, err := seed.Apply(cmd.Context(), st, fixtures)
			if err != nil {
				logger.Error("seed file apply failed", "file", cfg.SeedFile, "written", n, "err", err)
			} else {
				logger.Info("seed file applied", "file", cfg.SeedFile, "records", n)
			}
		}

		recordsServer := server.NewRecordsServer(st, publisher)
		httpServer := &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: recordsServer.NewHTTPHandler(cfg.AuthToken),
		}

		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		// Start export scheduler if a destination is configured.
		var scheduler *export.Scheduler
		if cfg.ExportInterval > 0 && cfg.ExportS3Bucket != "" {
			s3Dest, err := export.NewS3Destination(
				context.Background(),
				cfg.ExportS3Bucket,
				cfg.ExportS3Key,
				cfg.ExportS3Region,
				cfg.ExportS3Endpoint,
			)
			if err != nil {
				logger.Error("failed to create S3 export destination", "err", err)
			} else {
				scheduler = export.NewScheduler(st, []export.Destination{s3Dest}, cfg.ExportInterval, logger)
				scheduler.Start()
				logger.Info("export scheduler started",
					"interval", cfg.ExportInterval,
					"bucket", cfg.ExportS3Bucket,
					"key", cfg.ExportS3Key,
				)
			}
		}

		logger.Info("recordd server started", "http_addr", cfg.HTTPAddr)

		// Wait for SIGINT or SIGTERM.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		if scheduler != nil {
			scheduler.Stop()
			logger.Info("export scheduler stopped")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
		if err := st.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}
