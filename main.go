package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"civicsync/config"
	"civicsync/controllers"
	"civicsync/realtime"
	"civicsync/repository"
	"civicsync/routes"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := config.ConnectDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Client().Disconnect(context.Background()); err != nil {
			slog.Warn("disconnect mongodb", "error", err)
		}
	}()
	slog.Info("mongodb connected", "database", cfg.MongoDatabase)

	rdb, err := config.ConnectRedis(ctx, cfg)
	if err != nil {
		return err
	}
	defer rdb.Close()
	slog.Info("redis connected", "address", cfg.RedisAddress)

	issueRepo := repository.NewIssueRepository(db)
	userRepo := repository.NewUserRepository(db)
	if err := issueRepo.EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		return err
	}

	logger := slog.Default()
	gin.SetMode(gin.ReleaseMode)
	r, err := routes.NewRouter(routes.Dependencies{
		Auth: controllers.NewAuthController(userRepo, cfg.JWTSecret, cfg.TokenTTL, cfg.AdminInvite, logger),
		Issues: controllers.NewIssueController(issueRepo,
			realtime.NewRedisPublisher(rdb),
			realtime.NewRedisProvider(rdb, logger),
			logger),
		JWTSecret:       cfg.JWTSecret,
		RateCounter:     rdb,
		IssueLimitQueue: cfg.IssueLimitQueue,
		IssueRateLimit:  cfg.IssueRateLimit,
		FrontendURL:     cfg.FrontendURL,
	})
	if err != nil {
		return err
	}

	// No write timeout: the event stream stays open for the life of a view.
	// Request contexts end with ctx so open streams return on shutdown.
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		BaseContext:       func(net.Listener) context.Context { return ctx },
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
