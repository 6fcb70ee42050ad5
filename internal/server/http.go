package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"mcp-tool-service/internal/models"
	mcperrors "mcp-tool-service/pkg/errors"
)

// Router returns the HTTP transport: POST /mcp takes one JSON-RPC request
// per body and GET /health reports liveness.
func (s *MCPServer) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Post("/mcp", s.handleHTTPMessage)

	return r
}

// ServeHTTP listens on addr and serves Router until ctx is cancelled
func (s *MCPServer) ServeHTTP(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.serveListener(ctx, listener)
}

func (s *MCPServer) serveListener(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	s.mu.Lock()
	s.httpServer = httpServer
	s.mu.Unlock()

	s.logger.WithContext("addr", listener.Addr().String()).Info("HTTP transport listening")

	errc := make(chan error, 1)
	go func() { errc <- httpServer.Serve(listener) }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to stop http server: %w", err)
		}
		return nil
	}
}

func (s *MCPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"tools":  s.toolManager.Registry().Len(),
	})
}

// handleHTTPMessage answers one JSON-RPC request. Notifications are
// acknowledged with 202 and no body; bodies that are not a JSON-RPC request
// get the parse or invalid request envelope with 400.
func (s *MCPServer) handleHTTPMessage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxMessageSize))
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge,
				s.createErrorResponse(nil, models.CodeInvalidRequest, "Request body too large"))
			return
		}
		structuredErr := mcperrors.NewMCPError(mcperrors.ErrCodeInvalidRequest, "Invalid Request", err)
		writeJSON(w, http.StatusBadRequest, s.createStructuredErrorResponse(nil, structuredErr))
		return
	}

	response := s.HandleRaw(r.Context(), body)
	if response == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	status := http.StatusOK
	if response.Error != nil {
		switch response.Error.Code {
		case models.CodeParseError, models.CodeInvalidRequest:
			status = http.StatusBadRequest
		}
	}
	writeJSON(w, status, response)
}

// requestLogger logs each HTTP request through the structured logger
func (s *MCPServer) requestLogger(next http.Handler) http.Handler {
	logger := s.loggingManager.GetLogger("http")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logger.
			WithContext("request_id", middleware.GetReqID(r.Context())).
			WithContext("remote_addr", r.RemoteAddr).
			WithContext("http_method", r.Method).
			WithContext("path", r.URL.Path).
			WithContext("status", ww.Status()).
			WithContext("bytes", ww.BytesWritten()).
			WithContext("duration_ms", time.Since(start).Milliseconds()).
			Info("HTTP request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(v)
}
