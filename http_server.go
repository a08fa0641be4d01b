package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"infinity-mcp/internal/models"
)

// HTTPServer wraps the MCP server for HTTP transport
type HTTPServer struct {
	server *mcp.Server
	config models.Config
	log    zerolog.Logger
}

// NewHTTPServer creates a new HTTP-based MCP server
func NewHTTPServer(server *mcp.Server, config models.Config, log zerolog.Logger) *HTTPServer {
	return &HTTPServer{
		server: server,
		config: config,
		log:    log,
	}
}

// Start starts the HTTP server with streamable HTTP support
func (h *HTTPServer) Start() error {
	// url is host:port
	url := h.config.Host + ":" + h.config.Port

	// Create a mux to handle multiple endpoints
	mux := http.NewServeMux()

	// Stateless MCP handler: direct tool calls without session management,
	// which keeps curl testing and horizontal scaling simple
	httpHandler := mcp.NewStreamableHTTPHandler(func(req *http.Request) *mcp.Server {
		return h.server
	}, nil)

	// Register handlers on both root and /mcp paths for maximum client flexibility
	mux.Handle("/", httpHandler)    // Root endpoint for standard MCP clients
	mux.Handle("/mcp", httpHandler) // /mcp endpoint for explicit MCP usage
	mux.HandleFunc("/health", h.handleHealth)

	// Create HTTP server with timeouts
	httpServer := &http.Server{
		Addr:         url,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	h.log.Info().Str("addr", url).Msg("MCP server listening")

	// add shutdown hook
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in a goroutine
	serverErr := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for a shutdown signal or server error
	select {
	case sig := <-signalChan:
		h.log.Info().Str("signal", sig.String()).Msg("initiating graceful shutdown")

	case err := <-serverErr:
		h.log.Error().Err(err).Msg("server error")
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		h.log.Error().Err(err).Msg("graceful shutdown failed")
		return err
	}

	h.log.Info().Msg("HTTP server shutdown complete")
	return nil
}

func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"server":  "infinity-events-mcp",
		"version": Version,
	})
}
