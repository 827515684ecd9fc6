// Package main is the entry point for the minapi server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vyrodovalexey/minapi/internal/config"
	"github.com/vyrodovalexey/minapi/internal/observability"
	"github.com/vyrodovalexey/minapi/internal/router"
	"github.com/vyrodovalexey/minapi/internal/routes"
	"github.com/vyrodovalexey/minapi/internal/server"
)

const serviceName = "minapi"

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// cliFlags holds command line flags.
type cliFlags struct {
	configPath  string
	logLevel    string
	logFormat   string
	showVersion bool
}

func main() {
	flags := parseFlags()

	if flags.showVersion {
		printVersion()
		return
	}

	logger := initLogger(flags)

	cfg := loadAndValidateConfig(flags.configPath, logger)
	logger = reconfigureLogger(logger, flags, cfg)
	defer func() { _ = logger.Sync() }()

	app := initApplication(cfg, logger)

	runServer(app, flags.configPath, logger)
}

// parseFlags parses command line flags.
func parseFlags() cliFlags {
	configPath := flag.String("config", getEnvOrDefault("MINAPI_CONFIG_PATH", "configs/minapi.yaml"),
		"Path to configuration file")
	logLevel := flag.String("log-level", getEnvOrDefault("MINAPI_LOG_LEVEL", ""),
		"Log level (debug, info, warn, error); overrides the config file")
	logFormat := flag.String("log-format", getEnvOrDefault("MINAPI_LOG_FORMAT", ""),
		"Log format (json, console); overrides the config file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	return cliFlags{
		configPath:  *configPath,
		logLevel:    *logLevel,
		logFormat:   *logFormat,
		showVersion: *showVersion,
	}
}

// printVersion prints version information and exits.
func printVersion() {
	fmt.Printf("%s version %s\n", serviceName, version)
	fmt.Printf("  Build time: %s\n", buildTime)
	fmt.Printf("  Git commit: %s\n", gitCommit)
}

// initLogger initializes a bootstrap logger from flags so config
// loading itself has somewhere to log.
func initLogger(flags cliFlags) observability.Logger {
	logger, err := observability.NewLogger(observability.LogConfig{
		Level:  valueOrDefault(flags.logLevel, "info"),
		Format: valueOrDefault(flags.logFormat, "json"),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	observability.SetGlobalLogger(logger)
	return logger
}

// reconfigureLogger rebuilds the logger once the config file is
// loaded. Flags win over the config file.
func reconfigureLogger(bootstrap observability.Logger, flags cliFlags, cfg *config.Config) observability.Logger {
	level := valueOrDefault(flags.logLevel, cfg.Log.Level)
	format := valueOrDefault(flags.logFormat, cfg.Log.Format)

	logger, err := observability.NewLogger(observability.LogConfig{
		Level:  valueOrDefault(level, "info"),
		Format: valueOrDefault(format, "json"),
	})
	if err != nil {
		bootstrap.Fatal("failed to reconfigure logger", observability.Error(err))
	}

	observability.SetGlobalLogger(logger)
	return logger
}

// loadAndValidateConfig loads and validates the configuration. A
// missing config file falls back to defaults so the binary runs out of
// the box.
func loadAndValidateConfig(configPath string, logger observability.Logger) *config.Config {
	logger.Info("starting minapi",
		observability.String("version", version),
		observability.String("config", configPath),
	)

	cfg, err := config.Load(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("config file not found, using defaults",
				observability.String("config", configPath))
			return config.DefaultConfig()
		}
		logger.Fatal("failed to load configuration", observability.Error(err))
	}

	if err := config.Validate(cfg); err != nil {
		logger.Fatal("invalid configuration", observability.Error(err))
	}

	logger.Info("configuration loaded",
		observability.String("address", cfg.Server.Address()),
		observability.Int("workers", cfg.Server.Workers),
		observability.Bool("metrics", cfg.Metrics.Enabled),
	)

	return cfg
}

// application holds all application components.
type application struct {
	server  *server.Server
	table   *router.Table
	metrics *observability.Metrics
	config  *config.Config
}

// initApplication initializes all application components.
func initApplication(cfg *config.Config, logger observability.Logger) *application {
	metrics := observability.NewMetrics(serviceName)
	metrics.SetBuildInfo(version)

	table := router.NewTable()
	if err := routes.Register(table, routes.ServiceInfo{
		Name:    serviceName,
		Version: version,
	}); err != nil {
		logger.Fatal("failed to register routes", observability.Error(err))
	}
	logger.Info("routes registered", observability.Int("routes", table.Len()))

	srv, err := server.NewServer(cfg.Server, table,
		server.WithLogger(logger),
		server.WithMetrics(metrics),
	)
	if err != nil {
		logger.Fatal("failed to create server", observability.Error(err))
	}

	return &application{
		server:  srv,
		table:   table,
		metrics: metrics,
		config:  cfg,
	}
}

// runServer runs the server and handles shutdown.
func runServer(app *application, configPath string, logger observability.Logger) {
	ctx := context.Background()

	if err := app.server.Start(ctx); err != nil {
		logger.Fatal("failed to start server", observability.Error(err))
	}

	startMetricsServerIfEnabled(app, logger)
	watcher := startConfigWatcher(configPath, logger)

	waitForShutdown(app, watcher, logger)
}

// startMetricsServerIfEnabled starts the Prometheus admin listener if
// enabled.
func startMetricsServerIfEnabled(app *application, logger observability.Logger) {
	if !app.config.Metrics.Enabled {
		return
	}
	go startMetricsServer(app.config.Metrics.Address(), app.metrics, logger)
}

// startConfigWatcher starts the configuration watcher. The route table
// and listener are immutable for the process lifetime, so a change is
// only reported; applying it requires a restart.
func startConfigWatcher(configPath string, logger observability.Logger) *config.Watcher {
	watcher, err := config.NewWatcher(configPath, func(newCfg *config.Config) {
		logger.Warn("configuration file changed, restart required to apply",
			observability.String("address", newCfg.Server.Address()),
			observability.Int("workers", newCfg.Server.Workers),
		)
	}, config.WithWatcherLogger(logger))

	if err != nil {
		logger.Warn("failed to create config watcher", observability.Error(err))
		return nil
	}

	if err := watcher.Start(context.Background()); err != nil {
		logger.Warn("failed to start config watcher", observability.Error(err))
	}

	return watcher
}

// waitForShutdown waits for a shutdown signal and performs graceful
// shutdown.
func waitForShutdown(app *application, watcher *config.Watcher, logger observability.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("received shutdown signal", observability.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if watcher != nil {
		_ = watcher.Stop()
	}

	if err := app.server.Stop(shutdownCtx); err != nil {
		logger.Error("failed to stop server gracefully", observability.Error(err))
	}

	logger.Info("server stopped")
}

// startMetricsServer serves /metrics and /healthz on the admin
// listener.
func startMetricsServer(addr string, metrics *observability.Metrics, logger observability.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	logger.Info("starting metrics server", observability.String("address", addr))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("metrics server error", observability.Error(err))
	}
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// valueOrDefault returns value unless it is empty.
func valueOrDefault(value, defaultValue string) string {
	if value != "" {
		return value
	}
	return defaultValue
}
