package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/printhive/printhive-core/internal/audit"
	"github.com/printhive/printhive-core/internal/auth"
	"github.com/printhive/printhive-core/internal/bus"
	"github.com/printhive/printhive-core/internal/events"
	"github.com/printhive/printhive-core/internal/infrastructure/config"
	"github.com/printhive/printhive-core/internal/infrastructure/logging"
	"github.com/printhive/printhive-core/internal/settings"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Sink receives every outward-facing event the relay drains, after it
// has been broadcast to WebSocket clients. Implementations must not
// block: a slow sink stalls the relay and, through queue backpressure,
// eventually the router.
type Sink interface {
	Publish(ev events.WebsocketEvent)
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.API
	WS       config.WebSocket
	Security config.Security
	Logger   *logging.Logger

	Users    auth.UserRepository
	Tokens   auth.TokenRepository
	Settings settings.Repository

	// Audit is optional; when nil, no action trail is recorded.
	Audit audit.Repository

	// Distribution is where REST handlers push the events they produce.
	Distribution *bus.Queue[events.Event]

	// WebsocketOut is drained by the relay goroutine and broadcast.
	WebsocketOut *bus.Queue[events.Event]

	// Sinks are optional integration fan-outs (MQTT, InfluxDB).
	Sinks []Sink

	Version string
}

// Server is the HTTP API server for PrintHive.
//
// It manages the HTTP listener, routes, middleware, WebSocket hub, and
// the websocket-outbound relay. Created with New(), started with
// Start(); Abort() satisfies the router's worker-handle contract.
type Server struct {
	cfg      config.API
	wsCfg    config.WebSocket
	secCfg   config.Security
	logger   *logging.Logger
	users    auth.UserRepository
	tokens   auth.TokenRepository
	settings settings.Repository
	audit    audit.Repository
	dist     *bus.Queue[events.Event]
	wsOut    *bus.Queue[events.Event]
	sinks    []Sink
	version  string

	server  *http.Server
	hub     *Hub
	tickets *ticketStore
	cancel  context.CancelFunc
}

// New creates a new API server with the given dependencies.
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Users == nil || deps.Tokens == nil {
		return nil, fmt.Errorf("user and token repositories are required")
	}
	if deps.Distribution == nil || deps.WebsocketOut == nil {
		return nil, fmt.Errorf("distribution and websocket-outbound queues are required")
	}

	return &Server{
		cfg:      deps.Config,
		wsCfg:    deps.WS,
		secCfg:   deps.Security,
		logger:   deps.Logger,
		users:    deps.Users,
		tokens:   deps.Tokens,
		settings: deps.Settings,
		audit:    deps.Audit,
		dist:     deps.Distribution,
		wsOut:    deps.WebsocketOut,
		sinks:    deps.Sinks,
		version:  deps.Version,
		tickets:  newTicketStore(),
	}, nil
}

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub, the websocket-outbound relay, the ticket
// cleanup loop, and the HTTP listener, all on background goroutines.
// The server is stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.hub = NewHub(s.wsCfg, s.logger)
	go s.hub.Run(srvCtx)
	go s.relayLoop()
	go s.cleanTicketsLoop(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server. It waits up to 10 seconds
// for in-flight requests to complete, then forcefully closes remaining
// connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// Abort forcibly stops the server. It implements the worker-handle
// contract held by the process supervisor for the API session.
func (s *Server) Abort() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.server != nil {
		s.server.Close() //nolint:errcheck // Forced abort; errors are moot
	}
}

// HealthCheck verifies the API server is running and responsive.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
