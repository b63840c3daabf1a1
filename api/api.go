// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package api exposes the governance engine over a JSON REST API
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/blinklabs-io/gargoyle/database"
	"github.com/blinklabs-io/gargoyle/event"
)

type ServerConfig struct {
	ListenAddress string
	// EventBus feeds the event stream. The stream is disabled when nil.
	EventBus *event.EventBus
}

// Server is the REST API server
type Server struct {
	config     ServerConfig
	logger     *slog.Logger
	node       Node
	db         *database.Database
	httpServer *http.Server
	addr       net.Addr
	done       chan struct{}
	doneOnce   sync.Once
	mu         sync.Mutex
}

// New creates a new API server instance. The database is optional and only
// serves the vote and checkpoint listings.
func New(
	cfg ServerConfig,
	node Node,
	db *database.Database,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.New(
			slog.NewJSONHandler(io.Discard, nil),
		)
	}
	logger = logger.With("component", "api")
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = ":8080"
	}
	return &Server{
		config: cfg,
		logger: logger,
		node:   node,
		db:     db,
		done:   make(chan struct{}),
	}
}

// closeStreams ends open event streams, which Shutdown would otherwise wait
// on until its deadline
func (s *Server) closeStreams() {
	s.doneOnce.Do(func() { close(s.done) })
}

// Handler returns the HTTP handler serving every API route
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/v1/chain/tip", s.handleTip)
	mux.HandleFunc("POST /api/v1/blocks/mine", s.handleMine)
	mux.HandleFunc("GET /api/v1/proposals", s.handleListProposals)
	mux.HandleFunc("POST /api/v1/proposals", s.handlePropose)
	mux.HandleFunc("POST /api/v1/proposals/hash", s.handleHashProposal)
	mux.HandleFunc("POST /api/v1/proposals/execute", s.handleExecute)
	mux.HandleFunc("GET /api/v1/proposals/{id}", s.handleGetProposal)
	mux.HandleFunc("POST /api/v1/proposals/{id}/votes", s.handleVote)
	mux.HandleFunc("GET /api/v1/proposals/{id}/votes", s.handleListVotes)
	mux.HandleFunc("POST /api/v1/proposals/{id}/cancel", s.handleCancel)
	mux.HandleFunc(
		"GET /api/v1/proposals/{id}/receipts/{voter}",
		s.handleReceipt,
	)
	mux.HandleFunc("POST /api/v1/delegations", s.handleDelegate)
	mux.HandleFunc("POST /api/v1/transfers", s.handleTransfer)
	mux.HandleFunc("GET /api/v1/accounts/{address}", s.handleAccount)
	mux.HandleFunc(
		"GET /api/v1/accounts/{address}/checkpoints",
		s.handleCheckpoints,
	)
	mux.HandleFunc("GET /api/v1/quorum", s.handleQuorum)
	mux.HandleFunc("GET /api/v1/events", s.handleEvents)
	return mux
}

// Start starts the HTTP server in a background goroutine.
func (s *Server) Start(
	ctx context.Context,
) error {
	s.mu.Lock()
	if s.httpServer != nil {
		s.mu.Unlock()
		return errors.New("server already started")
	}
	server := &http.Server{
		Addr:              s.config.ListenAddress,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 60 * time.Second,
	}
	s.httpServer = server
	s.mu.Unlock()

	// Start the server with deterministic error detection
	addr, err := s.startServer(server)
	if err != nil {
		s.mu.Lock()
		s.httpServer = nil
		s.mu.Unlock()
		return err
	}
	s.mu.Lock()
	s.addr = addr
	s.mu.Unlock()

	s.logger.Info(
		"API listener started on " + addr.String(),
	)

	// Monitor context for cancellation
	go func() {
		<-ctx.Done()
		s.mu.Lock()
		srv := s.httpServer
		s.httpServer = nil
		s.mu.Unlock()

		s.closeStreams()
		if srv != nil {
			s.logger.Debug(
				"context cancelled, shutting down API server",
			)
			//nolint:contextcheck
			shutdownCtx, cancel := context.WithTimeout(
				context.Background(),
				30*time.Second,
			)
			defer cancel()
			//nolint:contextcheck
			if err := srv.Shutdown(shutdownCtx); err != nil {
				s.logger.Error(
					"failed to shutdown API server on context cancellation",
					"error", err,
				)
			}
		}
	}()

	return nil
}

// Addr returns the address the server is listening on, or nil if it is not
// running
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.httpServer == nil {
		return nil
	}
	return s.addr
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(
	ctx context.Context,
) error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	s.mu.Unlock()

	s.closeStreams()
	if srv != nil {
		s.logger.Debug(
			"shutting down API server",
		)
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf(
				"failed to shutdown API server: %w",
				err,
			)
		}
	}
	return nil
}

// startServer binds the listening socket first so port conflicts are
// detected immediately, then serves in a background goroutine.
func (s *Server) startServer(
	server *http.Server,
) (net.Addr, error) {
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to listen for API server: %w",
			err,
		)
	}
	go func() {
		if err := server.Serve(ln); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(
				"API server error",
				"error", err,
			)
		}
	}()
	return ln.Addr(), nil
}
