// Package server exposes augmentation runs over HTTP.
//
// Routes:
//
//	GET  /health
//	POST /v1/runs                      submit a run (add ?wait=true to block)
//	GET  /v1/runs/:id                  run status and result
//	GET  /v1/runs/:id/snapshots/:n     snapshot n as CSV
//	GET  /metrics                      Prometheus metrics
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/matdisco"
	"github.com/hupe1980/matdisco/codec"
	"github.com/hupe1980/matdisco/prommetrics"
	"github.com/hupe1980/matdisco/snapshot"
)

// Server holds the state for the REST API server.
type Server struct {
	router   *gin.Engine
	runs     *registry
	logger   *matdisco.Logger
	metrics  matdisco.MetricsCollector
	gatherer prometheus.Gatherer
	sink     *snapshot.Sink
	codec    codec.Codec

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type options struct {
	logger  *matdisco.Logger
	sink    *snapshot.Sink
	codec   codec.Codec
	maxRuns int
	reg     *prometheus.Registry
}

// Option configures a Server.
type Option func(*options)

// WithLogger sets the logger for requests and runs.
func WithLogger(l *matdisco.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSnapshotSink persists run snapshots. Snapshots of runs evicted from
// memory are then loaded from the sink's store.
func WithSnapshotSink(s *snapshot.Sink) Option {
	return func(o *options) { o.sink = s }
}

// WithCodec sets the JSON codec for request and response bodies.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithMaxRuns bounds the number of runs kept in memory. Default is 128.
func WithMaxRuns(n int) Option {
	return func(o *options) { o.maxRuns = n }
}

// WithRegistry registers run metrics with reg and serves it on /metrics.
// Default is a fresh registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) { o.reg = reg }
}

// NewServer creates a new Server instance.
func NewServer(optFns ...Option) (*Server, error) {
	o := options{
		logger:  matdisco.NoopLogger(),
		codec:   codec.Default,
		maxRuns: 128,
	}
	for _, fn := range optFns {
		fn(&o)
	}
	if o.reg == nil {
		o.reg = prometheus.NewRegistry()
	}

	runs, err := newRegistry(o.maxRuns)
	if err != nil {
		return nil, err
	}
	mc, err := prommetrics.New(o.reg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		router:   gin.New(),
		runs:     runs,
		logger:   o.logger,
		metrics:  mc,
		gatherer: o.reg,
		sink:     o.sink,
		codec:    o.codec,
		ctx:      ctx,
		cancel:   cancel,
	}
	s.router.Use(gin.Recovery(), s.requestLogger())
	s.setupRoutes()
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is done, then shuts down gracefully and
// cancels runs still in flight.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.InfoContext(ctx, "server listening", "addr", addr)

	select {
	case err := <-errCh:
		s.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	return err
}

// Close cancels in-flight runs and waits for them to finish.
func (s *Server) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)
	s.router.POST("/v1/runs", s.handleCreateRun)
	s.router.GET("/v1/runs/:id", s.handleGetRun)
	s.router.GET("/v1/runs/:id/snapshots/:n", s.handleGetSnapshot)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
}

// Health check
func (s *Server) healthCheck(c *gin.Context) {
	c.Status(http.StatusOK)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.DebugContext(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
