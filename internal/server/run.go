package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/crypto/acme/autocert"
)

const httpReadHeaderTimeout = 10 * time.Second
const shutdownTimeout = 5 * time.Second

// Run starts the server and the background janitor. It blocks until ctx is
// cancelled or a fatal listener error occurs.
func (s *Server) Run(ctx context.Context) error {
	if purged, err := s.dir.Purge(ctx); err != nil {
		return fmt.Errorf("purge expired invites: %w", err)
	} else if purged > 0 {
		s.log.Info("purged invite links expired while down", "count", purged)
	}
	if err := s.dir.RearmExpiry(ctx); err != nil {
		return fmt.Errorf("re-arm invite expiry: %w", err)
	}

	go s.runJanitor(ctx)

	handler := s.router()
	useTLS := s.cfg.Domain != ""

	var manager *autocert.Manager
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           handler,
		ReadHeaderTimeout: httpReadHeaderTimeout,
	}
	if useTLS {
		manager = &autocert.Manager{
			Cache:      autocert.DirCache(s.cfg.CertCacheDir),
			Prompt:     autocert.AcceptTOS,
			HostPolicy: autocert.HostWhitelist(s.cfg.Domain),
		}
		tlsConfig := manager.TLSConfig()
		tlsConfig.MinVersion = tls.VersionTLS12
		srv.TLSConfig = tlsConfig
	}

	errChSize := 1
	if useTLS {
		errChSize = 2
	}
	errCh := make(chan error, errChSize)

	var challengeServer *http.Server
	if useTLS {
		challengeServer = &http.Server{
			Addr:              s.cfg.ListenChallenge,
			Handler:           manager.HTTPHandler(http.NotFoundHandler()),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			s.log.Info("starting ACME challenge server", "addr", s.cfg.ListenChallenge)
			if err := challengeServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("challenge server: %w", err)
			}
		}()
	}

	go func() {
		if useTLS {
			s.log.Info("starting HTTPS server", "addr", s.cfg.Listen, "domain", s.cfg.Domain)
			if err := srv.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("https server: %w", err)
			}
			return
		}
		s.log.Info("starting HTTP server", "addr", s.cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		var firstErr error
		if err := shutdownServer(srv, shutdownTimeout); err != nil {
			firstErr = err
		}
		if challengeServer != nil {
			if err := shutdownServer(challengeServer, shutdownTimeout); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		s.hub.closeAll()
		s.dir.Close()
		return firstErr
	case err := <-errCh:
		_ = shutdownServer(srv, shutdownTimeout)
		if challengeServer != nil {
			_ = shutdownServer(challengeServer, shutdownTimeout)
		}
		s.hub.closeAll()
		s.dir.Close()
		return err
	}
}

// runJanitor periodically evicts idle rate-limit records and purges invite
// rows whose expiry timers never fired.
func (s *Server) runJanitor(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.JanitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := s.limiter.sweep(s.cfg.LimiterSweepAge); evicted > 0 {
				s.log.Debug("evicted idle rate-limit records", "count", evicted)
			}
			purgeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			purged, err := s.dir.Purge(purgeCtx)
			cancel()
			if err != nil {
				s.log.Error("invite purge failed", "err", err)
			} else if purged > 0 {
				s.log.Info("purged expired invite links", "count", purged)
			}
		}
	}
}

func shutdownServer(server *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
