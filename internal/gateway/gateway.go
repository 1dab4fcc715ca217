// ABOUTME: Gateway orchestrator wiring config, session store, engine, and HTTP server.
// ABOUTME: Owns route registration and graceful startup/shutdown lifecycle.

package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/finsight/finsight-gateway/internal/config"
	"github.com/finsight/finsight-gateway/internal/conversation"
	"github.com/finsight/finsight-gateway/internal/engine"
	"github.com/finsight/finsight-gateway/internal/marketdata"
	"github.com/finsight/finsight-gateway/internal/session"
)

// Gateway orchestrates the finsight-gateway server components: the HTTP API,
// the conversation service, the session store, and the market data proxy.
type Gateway struct {
	config       *config.Config
	store        session.Store
	conversation *conversation.Service
	marketData   *marketdata.Client
	httpServer   *http.Server
	logger       *slog.Logger

	// version is reported by the health endpoint
	version string
}

// initStore selects the session store backend: a configured database path
// gets the durable SQLite store, otherwise history is held in memory and
// lost on restart.
func initStore(cfg *config.Config) (session.Store, error) {
	if cfg.Database.Path == "" {
		return session.NewMemoryStore(), nil
	}
	return session.NewSQLiteStore(cfg.Database.Path)
}

// New creates a Gateway with all components wired. The engine is injected so
// callers (and tests) control which backend answers chat turns.
func New(cfg *config.Config, eng engine.Engine, logger *slog.Logger, version string) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}

	store, err := initStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating session store: %w", err)
	}

	g := &Gateway{
		config:       cfg,
		store:        store,
		conversation: conversation.New(store, eng, logger),
		marketData:   marketdata.NewClient(cfg.MarketData.BaseURL, cfg.MarketData.Timeout, logger),
		logger:       logger,
		version:      version,
	}

	mux := http.NewServeMux()
	g.registerRoutes(mux)

	g.httpServer = &http.Server{
		Handler:           corsMiddleware(cfg.CORS.AllowedOrigins, mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return g, nil
}

// registerRoutes attaches the /v1 API surface to the mux.
func (g *Gateway) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/health", g.handleHealth)
	mux.HandleFunc("/v1/chat", g.handleChat)
	mux.HandleFunc("/v1/chat/stream", g.handleChatStream)
	mux.HandleFunc("/v1/conversations/", g.handleConversations)
	mux.HandleFunc("/v1/stocks/", g.handleStockData)
}

// Handler exposes the fully-wired HTTP handler, CORS included.
func (g *Gateway) Handler() http.Handler {
	return g.httpServer.Handler
}

// Run starts the HTTP server and blocks until the context is canceled.
// Returns nil on graceful shutdown (context canceled), or an error if the
// server fails.
func (g *Gateway) Run(ctx context.Context) error {
	g.logger.Info("starting gateway", "http_addr", g.config.Server.HTTPAddr)

	ln, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := g.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		g.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := g.gracefulShutdown()

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the original context is
// already canceled.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return g.Shutdown(ctx)
}

// Shutdown gracefully stops the HTTP server and closes the store.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway")

	var errs []error
	errs = appendCloseError(errs, "HTTP shutdown", g.httpServer.Shutdown(ctx))
	errs = appendCloseError(errs, "store close", g.store.Close())

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}

// appendCloseError appends an error with label if err is non-nil.
func appendCloseError(errs []error, label string, err error) []error {
	if err != nil {
		return append(errs, fmt.Errorf("%s: %w", label, err))
	}
	return errs
}
