// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// defaultShutdownTimeout is used when no drain window is configured.
const defaultShutdownTimeout = 10 * time.Second

// HTTPServer is the lifecycle surface of *http.Server used by the service.
//
// Satisfied by *http.Server from net/http; tests substitute a fake.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
	Close() error
}

// HTTPServerService runs the API server in the supervisor's API layer.
//
// ListenAndServe blocks, so it runs in its own goroutine while Serve waits
// for either a listener failure or cancellation. On cancellation the server
// stops accepting connections and drains in-flight requests for up to the
// shutdown timeout.
//
// A synchronous POST /api/v1/train holds its connection for the whole build
// and can outlast the drain window. When the window passes, the remaining
// connections are closed so the tree can stop; the engine abandons the
// unpublished build and the previous generation stays current.
//
//	server := &http.Server{Addr: cfg.Server.Addr(), Handler: router}
//	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second, logger))
type HTTPServerService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
	logger          zerolog.Logger
	name            string
}

// NewHTTPServerService wraps server. A non-positive shutdownTimeout uses a
// 10s drain window.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHTTPServerService(server HTTPServer, shutdownTimeout time.Duration, logger zerolog.Logger) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}
	return &HTTPServerService{
		server:          server,
		shutdownTimeout: shutdownTimeout,
		logger:          logger.With().Str("service", "http").Logger(),
		name:            "http-server",
	}
}

// Serve implements suture.Service.
//
// It returns the listener error when the server fails to start or dies, and
// ctx.Err() after a clean drain. http.ErrServerClosed is expected on shutdown
// and is not reported.
func (h *HTTPServerService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil

	case <-ctx.Done():
		return h.drain(ctx, errCh)
	}
}

// drain shuts the server down after ctx is canceled, force-closing
// connections that outlive the drain window.
func (h *HTTPServerService) drain(ctx context.Context, errCh <-chan error) error {
	h.logger.Info().Dur("timeout", h.shutdownTimeout).Msg("draining http server")

	// ctx is already canceled; the drain needs its own deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
	defer cancel()

	err := h.server.Shutdown(shutdownCtx)
	if errors.Is(err, context.DeadlineExceeded) {
		h.logger.Warn().Msg("drain window passed, closing remaining connections")
		err = h.server.Close()
	}
	if err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}

	<-errCh
	h.logger.Info().Msg("http server stopped")
	return ctx.Err()
}

// String implements fmt.Stringer for suture's logs.
func (h *HTTPServerService) String() string {
	return h.name
}
