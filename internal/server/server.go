// Package server exposes the live graph to the browser viewer over HTTP and
// WebSocket.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/dusk-indust/archgraph/internal/builder"
	"github.com/dusk-indust/archgraph/internal/logging"
	"github.com/dusk-indust/archgraph/internal/navigate"
)

// Opener opens a workspace file in the host editor.
type Opener interface {
	Open(ctx context.Context, path, symbol string) (*navigate.Result, error)
}

// Options configures a Server. Graphs is required.
type Options struct {
	Graphs  *builder.Service
	Opener  Opener // nil disables POST /api/open
	Metrics *Metrics
	Logger  *slog.Logger
	Root    string // workspace root, reported by /healthz
}

// Server serves the viewer API.
type Server struct {
	graphs   *builder.Service
	opener   Opener
	metrics  *Metrics
	logger   *slog.Logger
	root     string
	upgrader websocket.Upgrader
}

// New returns a Server. A nil Metrics gets a private registry.
func New(opts Options) (*Server, error) {
	if opts.Graphs == nil {
		return nil, errors.New("server: graph service is required")
	}
	s := &Server{
		graphs:  opts.Graphs,
		opener:  opts.Opener,
		metrics: opts.Metrics,
		logger:  logging.OrDefault(opts.Logger),
		root:    opts.Root,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
			// The viewer is served from a dev server on another port.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	return s, nil
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())
	s.RegisterRoutes(router)
	return router
}

// RegisterRoutes registers the viewer routes on r.
//
//	GET  /healthz          liveness plus the published generation
//	GET  /api/graph        latest snapshot, ?status= and ?prefix= filter it
//	POST /api/refresh      rebuild now
//	GET  /api/dependencies ?node= &direction=upstream|downstream &depth=
//	GET  /api/impact       ?file= (repeatable), defaults to changed files
//	GET  /api/clusters     connected file groups
//	POST /api/open         {path, symbol} opens the editor
//	GET  /api/diagram      Mermaid rendering of the latest snapshot
//	GET  /ws               pushes every published snapshot
//	GET  /metrics          Prometheus metrics
func (s *Server) RegisterRoutes(r gin.IRouter) {
	r.GET("/healthz", s.handleHealth)

	api := r.Group("/api")
	{
		api.GET("/graph", s.handleGraph)
		api.POST("/refresh", s.handleRefresh)
		api.GET("/dependencies", s.handleDependencies)
		api.GET("/impact", s.handleImpact)
		api.GET("/clusters", s.handleClusters)
		api.POST("/open", s.handleOpen)
		api.GET("/diagram", s.handleDiagram)
	}

	r.GET("/ws", s.handleWebSocket)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	s.logger.Info("viewer API listening", "addr", addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve %s: %w", addr, err)
	}
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
