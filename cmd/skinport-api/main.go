package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/skinvault/skinport-api/internal/config"
	"github.com/skinvault/skinport-api/internal/server"
	"github.com/skinvault/skinport-api/pkg/cache"
	"github.com/skinvault/skinport-api/pkg/logging"
	"github.com/skinvault/skinport-api/pkg/prices"
	"github.com/skinvault/skinport-api/pkg/purchase"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := logging.Setup(logging.DefaultConfig())

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Store clients are constructed here and injected; they live for the
	// whole process and are closed on shutdown.
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Str("url", cfg.RedisURL).Msg("Invalid Redis URL")
	}
	redisClient := redis.NewClient(redisOpts)

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		// The cache is optional: the read path degrades to pass-through
		// and go-redis reconnects once the store comes back.
		logger.Warn().Err(err).Msg("Redis unreachable; item prices will be served uncached")
	}
	cancelPing()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open database handle")
	}
	db.SetMaxOpenConns(10)

	pingCtx, cancelPing = context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	cancelPing()

	fetcher, err := prices.NewFetcher(prices.FetcherConfig{
		URL:       cfg.SkinportAPIURL,
		UserAgent: cfg.SkinportUserAgent,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create Skinport fetcher")
	}

	priceService := prices.NewService(
		prices.NewSource(fetcher, cfg.UseFallback),
		cache.NewStore(redisClient, cache.ItemsKey, cfg.CacheTTL),
	)
	engine := purchase.NewEngine(db)

	srv := server.New(fmt.Sprintf(":%d", cfg.Port), priceService, engine, cfg.UserAPIKeys)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("Shutting down")
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("HTTP server failed")
		}
	}

	// Drain the HTTP server first, then release the store clients.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Error while shutting down HTTP server")
	}

	if err := redisClient.Close(); err != nil {
		logger.Warn().Err(err).Msg("Error while closing Redis client")
	}
	if err := db.Close(); err != nil {
		logger.Warn().Err(err).Msg("Error while closing database handle")
	}

	logger.Info().Msg("Shutdown complete")
}
