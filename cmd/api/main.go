package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/moodsong/api/internal/app/migrate"
	"github.com/moodsong/api/internal/config"
	httpx "github.com/moodsong/api/internal/http"
	"github.com/moodsong/api/internal/logger"
	"github.com/moodsong/api/internal/repository/postgres"
	"github.com/moodsong/api/internal/service/auth"
	"github.com/moodsong/api/internal/service/catalog"
	"github.com/moodsong/api/internal/service/song"
	"github.com/moodsong/api/internal/service/usage"
	"github.com/moodsong/api/internal/token"
)

func main() {
	log := logger.New("api", slog.LevelInfo)

	cfg, err := config.LoadAPIConfig()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	runner, err := migrate.New(pool, cfg.DatabaseURL, cfg.MigrationsDir, log)
	if err != nil {
		log.Error("failed to configure migrations", "error", err)
		os.Exit(1)
	}
	defer runner.Close()
	if err := runner.Ping(ctx); err != nil {
		log.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	if err := runner.Ensure(ctx); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	repo := postgres.New(pool)
	codec := token.NewCodec([]byte(cfg.JWTSecret), cfg.TokenTTL)

	authSvc := auth.New(repo, codec, log, cfg.BcryptCost)
	catalogSvc := catalog.New(repo, log)
	generator := song.NewHTTPGenerator(cfg.SongServiceURL, cfg.SongTimeout)
	songSvc := song.New(generator, repo, cfg.SongsDir, log)
	usageSvc := usage.New(repo, log)

	limiter := httpx.NewMemoryRateLimiter()
	if cfg.RateLimitRedisAddr != "" {
		redisLimiter, err := httpx.NewRedisRateLimiter(cfg.RateLimitRedisAddr, cfg.RateLimitRedisPass, cfg.RateLimitRedisDB, log)
		if err != nil {
			log.Warn("redis rate limiter unavailable", "error", err)
		} else {
			limiter = redisLimiter
		}
	}

	router := httpx.NewRouter(log, authSvc, catalogSvc, songSvc, usageSvc, limiter, httpx.NewTokenSources(cfg.TokenSources), pool.Ping)
	defer router.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", "addr", cfg.Addr)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("api server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
