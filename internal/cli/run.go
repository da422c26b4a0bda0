// Package cli wires configuration, logging, storage, and the server into a
// runnable process.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/syrja/rendezvous/internal/config"
	"github.com/syrja/rendezvous/internal/directory"
	ilog "github.com/syrja/rendezvous/internal/log"
	"github.com/syrja/rendezvous/internal/server"
	"github.com/syrja/rendezvous/internal/store/sqlite"
)

// Run parses flags, assembles the server, and blocks until SIGINT/SIGTERM.
// Returns the process exit code.
func Run(args []string) int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.ParseServerFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, "config error:", err)
		return 2
	}

	logger := ilog.New(cfg.LogLevel)

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open store", "path", cfg.DBPath, "err", err)
		return 1
	}
	defer func() { _ = store.Close() }()

	dir := directory.New(store, logger, cfg.InviteTTL)
	srv := server.New(cfg, dir, logger)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server exited with error", "err", err)
		return 1
	}
	logger.Info("server exited")
	return 0
}
