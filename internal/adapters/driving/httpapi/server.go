// Package httpapi serves the query and evidence endpoints over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/custodia-labs/evidence-rag/internal/core/ports/driving"
	"github.com/custodia-labs/evidence-rag/internal/logger"
)

const shutdownTimeout = 5 * time.Second

// Ports holds the services the HTTP handlers call.
type Ports struct {
	Query    driving.QueryService
	Evidence driving.EvidenceService
}

// Server is the HTTP entry point.
type Server struct {
	mu       sync.Mutex
	addr     string
	ports    *Ports
	server   *http.Server
	listener net.Listener
	errChan  chan error
}

// NewServer creates a server bound to addr once started.
func NewServer(addr string, ports *Ports) (*Server, error) {
	if ports == nil || ports.Query == nil {
		return nil, ErrQueryServiceRequired
	}
	return &Server{
		addr:    addr,
		ports:   ports,
		errChan: make(chan error, 1),
	}, nil
}

// Handler returns the routed handler with panic recovery applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/rag/query", s.handleQuery)
	mux.HandleFunc("GET /api/data/evidence-requests", s.handleEvidence)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return recoverer(mux)
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = listener
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case s.errChan <- err:
			default:
			}
		}
	}()

	logger.Info("http server listening on %s", listener.Addr())
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Run starts the server and blocks until ctx is cancelled or serving fails.
// Cancellation triggers a graceful shutdown.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return s.Stop()
	case err := <-s.errChan:
		return errors.Join(fmt.Errorf("http server: %w", err), s.Stop())
	}
}

// Stop shuts the server down, waiting for in-flight requests.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := s.server.Shutdown(ctx)
	s.server = nil
	return err
}
