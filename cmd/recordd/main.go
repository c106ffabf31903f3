package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/alfredjeanlab/recordd/internal/config"
	"github.com/alfredjeanlab/recordd/internal/store"
	"github.com/alfredjeanlab/recordd/internal/store/postgres"
	"github.com/alfredjeanlab/recordd/internal/store/redis"
)

var rootCmd = &cobra.Command{
	Use:   "recordd <command>",
	Short: "Record CRUD service with asynchronous event processing",
}

// newLogger picks the handler by output: human-readable text on a terminal,
// JSON when stderr is redirected (container logs, journald).
func newLogger() *slog.Logger {
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, nil))
}

// openStore connects to the backend named in the config.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		return postgres.New(cfg.DatabaseURL)
	case config.BackendRedis:
		return redis.New(ctx, cfg.RedisURL)
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(relayCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
