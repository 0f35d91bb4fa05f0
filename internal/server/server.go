// Package server exposes displaydevice's settings manager over an HTTP API:
// gin-gonic routing and middleware, OpenAPI request validation, bearer-token
// auth, gzip compression for bulkier responses, and a websocket stream of
// session-state transitions.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"displayd/internal/auth"
	"displayd/internal/config"
	"displayd/internal/displaydevice"
	"displayd/internal/events"
	"displayd/internal/health"
	"displayd/internal/runtime/commands"
)

// Server is the supervisor.Component that owns the HTTP listener and all
// request routing for the daemon.
type Server struct {
	version string
	cfg     config.Config

	router     *gin.Engine
	dispatcher *commands.Dispatcher
	validator  *validator.Validate

	api         displaydevice.Api
	manager     commands.SettingsManager
	authManager *auth.Manager
	tokens      *auth.TokenIssuer
	sessions    *auth.SessionStore
	bus         *events.Bus
	health      *health.Tracker

	apiValidator *openAPIValidator

	listener net.Listener
	httpSrv  *http.Server
}

// Deps bundles the collaborators Server needs; all are constructed and
// wired by the caller (typically cmd/displayd/main.go).
type Deps struct {
	Version     string
	Config      config.Config
	Api         displaydevice.Api
	Manager     commands.SettingsManager
	Reporter    commands.SessionReporter
	AuthManager *auth.Manager
	Bus         *events.Bus
	Health      *health.Tracker
}

// New constructs a Server and wires its routes. It does not bind a socket;
// that happens in Start so the component can be registered with a
// supervisor before anything starts listening.
func New(deps Deps) *Server {
	dispatcher := commands.NewDispatcher()
	dispatcher.Use(auditMiddleware(deps.Bus))
	for name, h := range commands.NewSettingsHandlers(deps.Manager, deps.Reporter) {
		dispatcher.Register(name, h)
	}

	var signingKey []byte
	if deps.Config.JWTSigningKey != "" {
		if key, err := auth.DecodeSigningKey(deps.Config.JWTSigningKey); err == nil {
			signingKey = key
		} else {
			log.Printf("WARN: server: ignoring malformed jwt_signing_key: %v", err)
		}
	}

	s := &Server{
		version:     deps.Version,
		cfg:         deps.Config,
		dispatcher:  dispatcher,
		validator:   validator.New(),
		api:         deps.Api,
		manager:     deps.Manager,
		authManager: deps.AuthManager,
		tokens:      auth.NewTokenIssuer(signingKey, deps.Config.SessionTTL),
		sessions:    auth.NewSessionStore(),
		bus:         deps.Bus,
		health:      deps.Health,
	}

	if v, err := newOpenAPIValidator(deps.Config.OpenAPIPath); err != nil {
		log.Printf("WARN: server: openapi validation disabled: %v", err)
	} else {
		s.apiValidator = v
	}

	gin.SetMode(gin.ReleaseMode)
	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(s.requestLoggingMiddleware())
	s.router.Use(s.securityHeadersMiddleware())
	s.router.Use(s.corsMiddleware())
	if s.apiValidator != nil {
		s.router.Use(s.apiValidator.Middleware())
	}
	s.registerRoutes()

	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", s.handleHealthz)
	s.router.POST("/v1/auth/login", s.handleLogin)

	v1 := s.router.Group("/v1")
	v1.Use(s.requireAuth())
	v1.GET("/devices", gzip.Gzip(gzip.DefaultCompression), s.handleDevices)
	v1.POST("/sessions", s.handleApply)
	v1.POST("/sessions/revert", s.handleRevert)
	v1.POST("/admin/reset-persistence", s.handleResetPersistence)
	v1.POST("/auth/logout", s.handleLogout)
	v1.GET("/events", s.handleEventsStream)
}

// Name identifies the component to the supervisor.
func (s *Server) Name() string { return "server" }

// Start binds the configured listen address and begins serving in the
// background. It returns once the socket is ready to accept connections.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Listen, err)
	}
	s.listener = listener
	s.httpSrv = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		var serveErr error
		if s.cfg.TLSEnabled() {
			serveErr = s.httpSrv.ServeTLS(listener, s.cfg.TLSCertFile, s.cfg.TLSKeyFile)
		} else {
			serveErr = s.httpSrv.Serve(listener)
		}
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			log.Printf("ERROR: server: listener stopped: %v", serveErr)
		}
	}()

	log.Printf("INFO: server: listening on %s", listener.Addr())
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func auditMiddleware(bus *events.Bus) commands.Middleware {
	return func(ctx context.Context, cmd commands.Command, next commands.Handler) (commands.Response, error) {
		resp, err := next.Handle(ctx, cmd)
		if bus != nil {
			bus.Publish(events.Event{Topic: events.TopicAudit, Payload: events.AuditEvent{
				Kind:     cmd.Name(),
				Time:     time.Now(),
				Source:   "api",
				Metadata: map[string]any{"correlation_id": uuid.NewString()},
			}})
		}
		return resp, err
	}
}
