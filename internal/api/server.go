package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/itemvault/internal/audit"
	"github.com/nerrad567/itemvault/internal/auth"
	"github.com/nerrad567/itemvault/internal/infrastructure/config"
	"github.com/nerrad567/itemvault/internal/infrastructure/logging"
	"github.com/nerrad567/itemvault/internal/item"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// auditChanSize is the buffer size for the async audit log channel.
// Entries beyond this are dropped to avoid back-pressure on requests.
const auditChanSize = 256

// HealthChecker is implemented by every backend the server depends on.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// AuthRecorder receives the outcome of every signup, login and refresh.
// *influxdb.Client satisfies it.
type AuthRecorder interface {
	WriteAuthEvent(event, outcome string)
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config      config.APIConfig
	WS          config.WebSocketConfig
	Logger      *logging.Logger
	Credentials *auth.CredentialStore
	Tokens      *auth.TokenService
	Items       *item.Store
	AuditRepo   audit.Repository // optional: audit trail disabled when nil
	Hub         *Hub             // optional: created if nil; must also be an item event sink
	Metrics     *Metrics         // optional: created on a private registry if nil
	AuthEvents  AuthRecorder     // optional: InfluxDB telemetry
	Health      map[string]HealthChecker
	Version     string
}

// Server is the HTTP API server for itemvault.
//
// It manages the HTTP listener, routes, middleware, the WebSocket hub and
// the async audit writer. Create it with New and start it with Start.
type Server struct {
	cfg         config.APIConfig
	wsCfg       config.WebSocketConfig
	logger      *logging.Logger
	credentials *auth.CredentialStore
	tokens      *auth.TokenService
	items       *item.Store
	auditRepo   audit.Repository
	auditCh     chan *audit.AuditLog
	auditDone   chan struct{}
	hub         *Hub
	metrics     *Metrics
	authEvents  AuthRecorder
	health      map[string]HealthChecker
	version     string
	server      *http.Server
	cancel      context.CancelFunc
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Credentials == nil {
		return nil, fmt.Errorf("credential store is required")
	}
	if deps.Tokens == nil {
		return nil, fmt.Errorf("token service is required")
	}
	if deps.Items == nil {
		return nil, fmt.Errorf("item store is required")
	}

	s := &Server{
		cfg:         deps.Config,
		wsCfg:       deps.WS,
		logger:      deps.Logger,
		credentials: deps.Credentials,
		tokens:      deps.Tokens,
		items:       deps.Items,
		auditRepo:   deps.AuditRepo,
		hub:         deps.Hub,
		metrics:     deps.Metrics,
		authEvents:  deps.AuthEvents,
		health:      deps.Health,
		version:     deps.Version,
	}

	if s.hub == nil {
		s.hub = NewHub(deps.WS, deps.Logger)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}
	if s.auditRepo != nil {
		s.auditCh = make(chan *audit.AuditLog, auditChanSize)
	}

	return s, nil
}

// Handler returns the fully wired router. Start serves the same handler.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start launches the background workers and the HTTP listener.
//
// It syncs the item gauge, starts the WebSocket hub and the audit writer,
// and begins listening in a background goroutine. Stop it with Close().
//
// Parameters:
//   - ctx: Parent context for background workers (not the listener)
//
// Returns:
//   - error: If the initial item count cannot be read
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	n, err := s.items.Count(ctx)
	if err != nil {
		s.cancel()
		return fmt.Errorf("counting items: %w", err)
	}
	s.metrics.SetItems(n)

	go s.hub.Run(srvCtx)
	s.startAuditWriter(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// startAuditWriter launches drainAuditLog when an audit repository is set.
func (s *Server) startAuditWriter(ctx context.Context) {
	if s.auditCh == nil || s.auditDone != nil {
		return
	}
	s.auditDone = make(chan struct{})
	go func() {
		defer close(s.auditDone)
		s.drainAuditLog(ctx)
	}()
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete, stops
// the hub, then waits for queued audit entries to be written.
func (s *Server) Close() error {
	var shutdownErr error
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		s.logger.Info("API server shutting down")
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("shutting down API server: %w", err)
		}
	}

	if s.cancel != nil {
		s.cancel()
	}
	if s.auditDone != nil {
		<-s.auditDone
	}
	return shutdownErr
}

// HealthCheck runs every registered backend check and returns the first
// failure, prefixed with the backend name.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	for name, checker := range s.health {
		if err := checker.HealthCheck(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
