package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"sitebot/config"
	"sitebot/internal/client/auth"
	"sitebot/internal/client/channel"
	"sitebot/internal/client/directory"
	"sitebot/internal/client/nlu"
	"sitebot/internal/handler"
	"sitebot/internal/service"
	"sitebot/internal/session"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run() error {
	// per-environment config (APP_ENV=local|dev|prod)
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := newLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	ginMode := cfg.Server.Mode
	if m := os.Getenv("GIN_MODE"); m != "" {
		ginMode = m
	}
	gin.SetMode(ginMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg.Session)
	if err != nil {
		return err
	}
	defer closeStore()

	nluClient := nlu.NewClient(nlu.Config{
		ServiceURI: cfg.LUIS.ServiceURI,
		Timeout:    cfg.LUIS.Timeout,
	})
	dirClient := directory.NewClient(directory.Config{Timeout: cfg.Directory.Timeout})
	channelClient := channel.NewClient(channel.Config{
		AppID:       cfg.Bot.AppID,
		AppPassword: cfg.Bot.AppPassword,
		Timeout:     cfg.Directory.Timeout,
	})
	authClient := auth.NewClient(auth.Config{
		Authority:    cfg.ActiveDirectory.Authority,
		Tenant:       cfg.ActiveDirectory.Tenant,
		ClientID:     cfg.ActiveDirectory.ClientID,
		ClientSecret: cfg.ActiveDirectory.ClientSecret,
		RedirectURL:  cfg.ActiveDirectory.RedirectURL,
	})

	gate, err := service.NewAuthGate(
		cfg.ActiveDirectory.Tenant,
		cfg.Directory.AdminHostSuffix,
		cfg.ActiveDirectory.ResourceID,
		func(adminURL, token string) service.Directory { return dirClient.Tenant(adminURL, token) },
	)
	if err != nil {
		return fmt.Errorf("auth gate: %w", err)
	}
	collector := service.NewFormCollector(cfg.Directory.CompatLevel)
	router, err := service.NewIntentRouter(collector, service.WithDiagnostics(cfg.Features.Diagnostics))
	if err != nil {
		return err
	}
	dialog := service.NewDialogSession(service.DialogDeps{
		Store:      store,
		Gate:       gate,
		Classifier: service.NewIntentClassifier(nluClient, logger),
		Router:     router,
		Collector:  collector,
		Transport:  channelClient,
		SignIn:     authClient,
		Logger:     logger,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler.Router(dialog, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", srv.Addr, "env", config.Env(), "admin_url", gate.AdminURL(), "session_backend", cfg.Session.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// openStore returns the configured session store and its cleanup.
func openStore(ctx context.Context, cfg config.SessionConfig) (session.Store, func(), error) {
	switch cfg.Backend {
	case "sqlite":
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("create session dir: %w", err)
			}
		}
		store, err := session.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open session store: %w", err)
		}
		return store, func() { _ = store.Close() }, nil
	case "redis":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse redis url: %w", err)
		}
		rdb := redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return session.NewRedisStore(rdb, cfg.TTL), func() { _ = rdb.Close() }, nil
	default:
		return session.NewMemoryStore(), func() {}, nil
	}
}
