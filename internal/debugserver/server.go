package debugserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/fieldstation/dsengine/internal/facade"
	"github.com/fieldstation/dsengine/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Config controls the debug HTTP/websocket listener.
type Config struct {
	Host               string
	Port               int
	RateLimitPerMinute int
	// Registry, if set, is exposed at /metrics. Pass the same Registerer
	// given to telemetry.NewMetrics so the two stay in sync.
	Registry *prometheus.Registry
}

// Server hosts the chi router, the websocket hub, and the dashboard sink
// that feeds it. It never mutates the facade — every handler is a read.
type Server struct {
	cfg    Config
	client *facade.Client
	hub    *hub
	log    *zap.Logger
	http   *http.Server
}

// New builds a Server around an already-initialized facade.Client. Call
// Sink() to obtain the telemetry.Sink that should be registered on the
// engine's telemetry.Pump alongside Redis/MQTT — that is how events reach
// the hub, since events.Queue allows exactly one consumer.
func New(cfg Config, client *facade.Client, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.RateLimitPerMinute <= 0 {
		cfg.RateLimitPerMinute = 600
	}
	s := &Server{
		cfg:    cfg,
		client: client,
		hub:    newHub(log),
		log:    log,
	}
	return s
}

// Sink returns the telemetry.Sink that forwards events to every connected
// dashboard. Wire it into telemetry.NewPump's sink list.
func (s *Server) Sink() telemetry.Sink {
	return &dashboardSink{h: s.hub}
}

func (s *Server) router() http.Handler {
	rl := newRateLimiter(s.cfg.RateLimitPerMinute, s.log)

	r := chi.NewRouter()
	r.Use(requestLogger(s.log))
	r.Use(rl.middleware)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/status", s.handleStatus)
	r.Get("/ws", s.serveWS)
	if s.cfg.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.cfg.Registry, promhttp.HandlerOpts{}))
	}
	return r
}

// Run starts the hub's event loop and the HTTP listener, blocking until
// the listener stops. Call it from its own goroutine.
func (s *Server) Run() error {
	go s.hub.run()

	s.http = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:      s.router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	s.log.Info("debug server listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
