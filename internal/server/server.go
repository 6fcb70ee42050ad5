package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"mcp-tool-service/internal/models"
	"mcp-tool-service/pkg/config"
	"mcp-tool-service/pkg/errors"
	"mcp-tool-service/pkg/logging"
	"mcp-tool-service/pkg/tools"
)

// MaxMessageSize is the longest request line accepted on stdio
const MaxMessageSize = 10 * 1024 * 1024

// MCPServer represents the main MCP server
type MCPServer struct {
	config       *config.Config
	serverInfo   models.MCPServerInfo
	capabilities models.MCPCapabilities
	initialized  atomic.Bool
	startTime    time.Time

	// Tools
	toolManager *tools.ToolManager

	// Logging
	loggingManager *logging.LoggingManager
	logger         *logging.StructuredLogger

	// stdio transport streams
	stdin  io.Reader
	stdout io.Writer

	// HTTP transport, set while ServeHTTP runs
	httpServer *http.Server

	mu sync.Mutex
}

// NewMCPServer creates a server answering requests for the tools in registry
func NewMCPServer(cfg *config.Config, registry *tools.Registry, loggingManager *logging.LoggingManager) *MCPServer {
	if cfg == nil {
		cfg = config.Default()
	}
	if registry == nil {
		registry = tools.MustNewRegistry()
	}
	if loggingManager == nil {
		loggingManager = logging.NewLoggingManager()
	}

	return &MCPServer{
		config: cfg,
		serverInfo: models.MCPServerInfo{
			Name:    cfg.Server.Name,
			Version: cfg.Server.Version,
		},
		capabilities: models.MCPCapabilities{
			Tools: models.MCPToolCapabilities{ListChanged: false},
		},
		startTime:      time.Now(),
		toolManager:    tools.NewToolManager(registry, loggingManager),
		loggingManager: loggingManager,
		logger:         loggingManager.GetLogger("server"),
		stdin:          os.Stdin,
		stdout:         os.Stdout,
	}
}

// SetStdio replaces the streams the stdio transport reads and writes
func (s *MCPServer) SetStdio(stdin io.Reader, stdout io.Writer) {
	s.stdin = stdin
	s.stdout = stdout
}

// Start serves the configured transport until ctx is cancelled or, on
// stdio, the input is exhausted
func (s *MCPServer) Start(ctx context.Context) error {
	s.loggingManager.LogStartupSequence("server_ready", map[string]interface{}{
		"transport":  s.config.Transport.Mode,
		"tool_count": s.toolManager.Registry().Len(),
		"tools":      s.toolManager.Registry().Names(),
	}, time.Since(s.startTime), true)

	switch s.config.Transport.Mode {
	case config.ModeHTTP:
		return s.ServeHTTP(ctx, s.config.Transport.HTTPAddr)
	default:
		return s.Serve(ctx, s.stdin, s.stdout)
	}
}

// Shutdown gracefully shuts down the MCP server
func (s *MCPServer) Shutdown(ctx context.Context) error {
	shutdownStart := time.Now()
	s.loggingManager.LogShutdownSequence("shutdown_start", map[string]interface{}{}, 0, true)

	s.mu.Lock()
	httpServer := s.httpServer
	s.mu.Unlock()

	if httpServer != nil {
		if err := httpServer.Shutdown(ctx); err != nil {
			s.loggingManager.LogShutdownSequence("http_stop", map[string]interface{}{
				"error": err.Error(),
			}, time.Since(shutdownStart), false)
			return fmt.Errorf("failed to stop http server: %w", err)
		}
		s.loggingManager.LogShutdownSequence("http_stop", map[string]interface{}{}, time.Since(shutdownStart), true)
	}

	s.loggingManager.LogShutdownSequence("shutdown_complete", map[string]interface{}{
		"total_shutdown_time_ms": time.Since(shutdownStart).Milliseconds(),
		"tool_metrics":           s.toolManager.GetPerformanceMetrics(),
	}, time.Since(shutdownStart), true)

	return nil
}

// Serve runs the line-delimited JSON-RPC loop: one request per line in,
// one response per line out. It returns nil when reader is exhausted or
// ctx is cancelled.
func (s *MCPServer) Serve(ctx context.Context, reader io.Reader, writer io.Writer) error {
	return s.processMessages(ctx, reader, writer)
}

// processMessages handles the JSON-RPC message processing loop
func (s *MCPServer) processMessages(ctx context.Context, reader io.Reader, writer io.Writer) error {
	lines := make(chan inputLine)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)

	// Reading runs apart from dispatch so cancellation is noticed while
	// the reader is blocked.
	go func() {
		defer close(lines)

		br := bufio.NewReaderSize(reader, 64*1024)
		for {
			line, err := readLine(br, MaxMessageSize)
			if len(line.data) > 0 || line.tooLong {
				select {
				case lines <- line:
				case <-done:
					return
				}
			}
			if err != nil {
				if err == io.EOF {
					err = nil
				}
				readErr <- err
				return
			}
		}
	}()

	encoder := json.NewEncoder(writer)
	encoder.SetEscapeHTML(false)

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				if err := <-readErr; err != nil {
					return fmt.Errorf("failed to read request: %w", err)
				}
				return nil
			}

			var response *models.MCPMessage
			if line.tooLong {
				structuredErr := errors.NewParseError(fmt.Errorf("message exceeds %d bytes", MaxMessageSize))
				s.logger.WithError(structuredErr).WithContext("bytes", line.size).Warn("Discarding oversized message")
				response = s.createStructuredErrorResponse(nil, structuredErr)
			} else {
				if len(bytes.TrimSpace(line.data)) == 0 {
					continue
				}
				response = s.HandleRaw(ctx, line.data)
			}

			if response == nil {
				continue
			}
			if err := encoder.Encode(response); err != nil {
				structuredErr := errors.NewSystemError(errors.ErrCodeSerializationFailed, "Error encoding response", err)
				s.logger.WithError(structuredErr).Error("Error encoding response")
				return fmt.Errorf("failed to write response: %w", err)
			}
		}
	}
}

// inputLine is one newline-terminated request. A line longer than the
// limit is not kept; only its size is reported.
type inputLine struct {
	data    []byte
	size    int
	tooLong bool
}

// readLine reads up to the next newline. Bytes past limit are consumed and
// dropped so the following line starts clean.
func readLine(br *bufio.Reader, limit int) (inputLine, error) {
	var line inputLine
	for {
		chunk, err := br.ReadSlice('\n')
		chunk = bytes.TrimSuffix(chunk, []byte("\n"))
		line.size += len(chunk)

		if !line.tooLong {
			if line.size > limit {
				line.tooLong = true
				line.data = nil
			} else {
				line.data = append(line.data, chunk...)
			}
		}

		if err == bufio.ErrBufferFull {
			continue
		}
		return line, err
	}
}

// HandleRaw decodes one JSON-RPC envelope and dispatches it. Input that is
// not JSON yields a parse error with a null id; JSON that is not a request
// object yields an invalid request error echoing the id when one can be
// read. A nil result means no response is sent.
func (s *MCPServer) HandleRaw(ctx context.Context, data []byte) *models.MCPMessage {
	var message models.MCPMessage
	if err := json.Unmarshal(data, &message); err != nil {
		var syntaxErr *json.SyntaxError
		if stderrors.As(err, &syntaxErr) {
			structuredErr := errors.NewParseError(err)
			s.logger.WithError(structuredErr).WithContext("bytes", len(data)).Warn("Error decoding message")
			return s.createStructuredErrorResponse(nil, structuredErr)
		}

		structuredErr := errors.NewMCPError(errors.ErrCodeInvalidRequest, "Invalid Request", err).
			WithDetails(err.Error())
		s.logger.WithError(structuredErr).WithContext("bytes", len(data)).Warn("Invalid request envelope")
		return s.createStructuredErrorResponse(envelopeID(data), structuredErr)
	}
	return s.handleMessage(ctx, &message)
}

// envelopeID returns the id of a JSON object whose other members did not
// decode, or nil when there is none
func envelopeID(data []byte) json.RawMessage {
	var envelope struct {
		ID json.RawMessage `json:"id"`
	}
	if json.Unmarshal(data, &envelope) != nil {
		return nil
	}
	return envelope.ID
}

// HandleMessage processes an already decoded MCP message
func (s *MCPServer) HandleMessage(ctx context.Context, message *models.MCPMessage) *models.MCPMessage {
	return s.handleMessage(ctx, message)
}

// handleMessage processes individual MCP messages
func (s *MCPServer) handleMessage(ctx context.Context, message *models.MCPMessage) *models.MCPMessage {
	startTime := time.Now()
	traceID := ulid.Make().String()
	var response *models.MCPMessage
	var success = true
	var errorMsg string

	defer func() {
		s.loggingManager.LogMCPRequest(message.Method, requestID(message.ID), traceID, time.Since(startTime), success, errorMsg)
	}()

	if message.IsNotification() {
		s.logger.WithContext("mcp_method", message.Method).Debug("Notification received")
	}

	switch message.Method {
	case "initialize":
		response = s.handleInitialize(message)
	case "notifications/initialized":
		response = s.handleInitialized(message)
	case "notifications/cancelled":
		response = nil
	case "ping":
		response = s.handlePing(message)
	case "tools/list":
		response = s.handleToolsList(message)
	case "tools/call":
		response = s.handleToolsCall(ctx, traceID, message)
	case "server/performance":
		response = s.handlePerformanceMetrics(message)
	default:
		response = s.createStructuredErrorResponse(message.ID, errors.NewMethodNotFoundError(message.Method))
	}

	if response != nil && response.Error != nil {
		success = false
		errorMsg = response.Error.Message
	}

	return response
}

// requestID renders a raw id for logging
func requestID(id json.RawMessage) interface{} {
	if id == nil {
		return nil
	}
	return string(id)
}
