package application

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/dataprowler/dataprowler/internal/api"
	"github.com/dataprowler/dataprowler/internal/config"
	"github.com/dataprowler/dataprowler/internal/ratelimit"
	"github.com/dataprowler/dataprowler/internal/schema"
)

// Overrides holds command-line values that win over resolved settings for
// this process only.
type Overrides struct {
	Host string
	Port int
}

// App encapsulates the application dependencies and HTTP server.
type App struct {
	manager *config.Manager
	handler *api.Handler
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server
}

// New validates the manager's settings and wires the HTTP server from them.
func New(manager *config.Manager, logger *zap.Logger, overrides *Overrides) (*App, error) {
	settings, err := manager.Validate()
	if err != nil {
		return nil, fmt.Errorf("failed to validate settings: %w", err)
	}

	handler := api.NewHandler(manager)
	apiRouter := api.NewRouter(handler, logger, routerOptions(settings)...)

	return &App{
		manager: manager,
		handler: handler,
		router:  apiRouter,
		logger:  logger,
		server:  NewServer(settings, overrides, apiRouter),
	}, nil
}

func routerOptions(settings *schema.Settings) []api.RouterOption {
	limits := settings.RateLimiting
	return []api.RouterOption{
		api.WithLogging(true),
		api.WithMaxBodyBytes(int64(settings.API.MaxContentLength)),
		api.WithRateLimit(0, 0),
		api.WithClientLimits(ratelimit.NewRegistry(limits, ratelimit.WithBurst(limits.RequestsPerMinute))),
	}
}

// NewServer creates an HTTP server bound to api.host:api.port, with
// command-line overrides applied.
func NewServer(settings *schema.Settings, overrides *Overrides, handler http.Handler) *http.Server {
	host, port := settings.API.Host, settings.API.Port
	if overrides != nil {
		if overrides.Host != "" {
			host = overrides.Host
		}
		if overrides.Port > 0 {
			port = overrides.Port
		}
	}

	requestTimeout := time.Duration(settings.API.RequestTimeout) * time.Second
	return &http.Server{
		Addr:              net.JoinHostPort(host, strconv.Itoa(port)),
		Handler:           handler,
		ReadHeaderTimeout: requestTimeout,
		WriteTimeout:      requestTimeout,
		IdleTimeout:       time.Duration(settings.Performance.Timeout) * time.Second,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening",
			zap.String("addr", a.server.Addr),
			zap.Stringer("settings", a.manager),
		)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.router
}
