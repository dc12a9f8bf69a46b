package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/dataprowler/dataprowler/internal/application"
	"github.com/dataprowler/dataprowler/internal/config"
	"github.com/dataprowler/dataprowler/internal/logging"
	"github.com/dataprowler/dataprowler/internal/schema"
)

var signalNotify = signal.Notify

func main() {
	kingpinApp := kingpin.New("dataprowler-server", "DataProwler settings service - serves the resolved configuration over HTTP")
	configFile := kingpinApp.Flag("config", "Path to the user YAML settings file").String()
	defaultFile := kingpinApp.Flag("default-config", "Path to a default YAML settings file replacing the bundled one").String()
	host := kingpinApp.Flag("host", "Interface to bind, overrides api.host").String()
	port := kingpinApp.Flag("port", "HTTP port, overrides api.port").Int()
	shutdownTimeout := kingpinApp.Flag("shutdown-timeout", "Grace period for in-flight requests on shutdown").Default("10s").Duration()

	kingpin.MustParse(kingpinApp.Parse(os.Args[1:]))

	bootstrap, err := logging.Bootstrap()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	manager := newManager(*configFile, *defaultFile, bootstrap)
	settings, err := manager.Validate()
	if err != nil {
		bootstrap.Fatal("invalid settings", zap.Error(err))
	}

	logger, err := adoptSettingsLogger(manager, settings.Logging)
	if err != nil {
		bootstrap.Fatal("failed to initialize logger from settings", zap.Error(err))
	}
	_ = bootstrap.Sync()
	defer func() {
		_ = logger.Sync()
	}()

	app, err := application.New(manager, logger, &application.Overrides{Host: *host, Port: *port})
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app.Server(), *shutdownTimeout, logger)
}

func newManager(configFile, defaultFile string, logger *zap.Logger) *config.Manager {
	opts := []config.Option{config.WithLogger(logger)}
	if configFile != "" {
		opts = append(opts, config.WithUserFile(configFile))
	}
	if defaultFile != "" {
		opts = append(opts, config.WithDefaultPath(defaultFile))
	}
	return config.New(opts...)
}

// adoptSettingsLogger builds the logger described by the logging section and
// hands it to the manager so reload warnings follow the same configuration.
func adoptSettingsLogger(manager *config.Manager, cfg schema.Logging) (*zap.Logger, error) {
	logger, err := logging.New(cfg)
	if err != nil {
		return nil, err
	}
	manager.SetLogger(logger)
	return logger, nil
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
