package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/iconidentify/tumblrembed/internal/api"
	"github.com/iconidentify/tumblrembed/internal/api/handler"
	"github.com/iconidentify/tumblrembed/internal/auth"
	"github.com/iconidentify/tumblrembed/internal/config"
	"github.com/iconidentify/tumblrembed/internal/embed"
	"github.com/iconidentify/tumblrembed/internal/metrics"
	"github.com/iconidentify/tumblrembed/internal/service"
	"github.com/iconidentify/tumblrembed/internal/store"
	"github.com/iconidentify/tumblrembed/internal/tumblr"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	envFile := flag.String("env-file", ".env", "Path to a dotenv file with secrets")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("tumblrembed %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting tumblrembed",
		"version", Version,
		"build_time", BuildTime,
	)

	// A missing dotenv file is normal in container deployments.
	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to load env file", "path", *envFile, "error", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	trailOrder, _ := cfg.Embed.ParsedTrailOrder()
	defaultLocale, _ := cfg.Embed.ParsedDefaultLocale()

	if path := cfg.Store.DiskPath(); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			logger.Error("failed to create store directory", "error", err)
			os.Exit(1)
		}
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), 10*time.Second)
	tokenStore, err := store.New(startCtx, cfg.Store.StoreOptions())
	cancelStart()
	if err != nil {
		logger.Error("failed to open token store", "backend", cfg.Store.Backend, "error", err)
		os.Exit(1)
	}
	defer tokenStore.Close()

	m := metrics.New()

	coordinator := auth.NewCoordinator(auth.Config{
		ConsumerKey:    cfg.Tumblr.ConsumerKey,
		ConsumerSecret: cfg.Tumblr.ConsumerSecret,
		TokenURL:       cfg.Tumblr.TokenURL,
		UserAgent:      cfg.Tumblr.UserAgent,
		HTTPTimeout:    cfg.Tumblr.Timeout,
	}, tokenStore, m, logger)

	client := tumblr.NewClient(tumblr.Config{
		BaseURL:   cfg.Tumblr.BaseURL,
		Timeout:   cfg.Tumblr.Timeout,
		UserAgent: cfg.Tumblr.UserAgent,
	})

	composer := embed.NewComposer(embed.Composer{
		ServiceName:  cfg.Embed.ServiceName,
		ProviderURL:  cfg.Embed.ProviderURL,
		DefaultColor: cfg.Embed.DefaultColor,
		DangerColor:  cfg.Embed.DangerColor,
	})

	embedSvc := service.NewEmbedService(
		client,
		client,
		coordinator,
		composer,
		service.EmbedServiceConfig{
			TrailOrder:    trailOrder,
			DefaultLocale: defaultLocale,
		},
		logger,
	)

	embedHandler := handler.NewEmbedHandler(embedSvc, handler.EmbedConfig{
		HomeURL:               cfg.Embed.HomeURL,
		PublicBaseURL:         cfg.Server.PublicBaseURL,
		LegacyJSONContentType: cfg.Embed.LegacyJSONContentType,
	}, m, logger)
	healthHandler := handler.NewHealthHandler(tokenStore, cfg.Store.Backend, cfg.Store.DiskPath())

	router := api.NewRouter(embedHandler, healthHandler, m.Handler(), api.RouterConfig{
		OpsAPIKey:      cfg.Server.OpsAPIKey,
		RequestTimeout: cfg.Server.RequestTimeout,
	}, logger)

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("starting HTTP server",
			"addr", srv.Addr,
			"store", cfg.Store.Backend,
			"trail_order", trailOrder,
		)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
