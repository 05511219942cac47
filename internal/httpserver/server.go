package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// ShutdownTimeout bounds a graceful shutdown when the caller's context has no
// deadline of its own.
var ShutdownTimeout = 10 * time.Second

// Server wraps the http.Server with sensible defaults.
type Server struct {
	inner *http.Server
}

// Option adjusts the underlying http.Server before it starts.
type Option func(*http.Server)

// WithWriteTimeout bounds how long a handler may take to write its response.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *http.Server) {
		if d > 0 {
			s.WriteTimeout = d
		}
	}
}

// New constructs a server listening on the provided port.
func New(port int, handler http.Handler, opts ...Option) *Server {
	inner := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      5 * time.Minute,
	}
	for _, opt := range opts {
		opt(inner)
	}
	return &Server{inner: inner}
}

// Addr reports the address the server listens on.
func (s *Server) Addr() string {
	return s.inner.Addr
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully terminates the HTTP server, draining in-flight uploads
// for at most ShutdownTimeout unless ctx already carries a deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ShutdownTimeout)
		defer cancel()
	}
	return s.inner.Shutdown(ctx)
}
