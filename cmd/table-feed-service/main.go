package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	sharedcache "github.com/radieske/baccarat-platform-poc/internal/shared/cache"
	"github.com/radieske/baccarat-platform-poc/internal/shared/config"
	"github.com/radieske/baccarat-platform-poc/internal/shared/db"
	"github.com/radieske/baccarat-platform-poc/internal/shared/logger"
	"github.com/radieske/baccarat-platform-poc/internal/shared/metrics"
	"github.com/radieske/baccarat-platform-poc/internal/table-feed/cache"
	fhttp "github.com/radieske/baccarat-platform-poc/internal/table-feed/http"
	"github.com/radieske/baccarat-platform-poc/internal/table-feed/repo"
	"github.com/radieske/baccarat-platform-poc/internal/table-feed/ws"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	// Postgres: leitura de rodadas e histórico
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	// Redis: cache de estado/histórico e Pub/Sub do WebSocket
	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// WebSocket hub alimentado pelo canal Redis Pub/Sub
	hub := ws.NewHub(func(r *http.Request) bool { return true }) // POC: origem liberada
	ws.StartRedisSubscriber(ctx, redisClient, hub)

	api := &fhttp.API{
		ReadRepo: &repo.ReadRepo{
			DB:            pg,
			BettingWindow: cfg.BettingWindow,
			RevealWait:    cfg.RevealWait,
			RoundGap:      cfg.RoundGap,
		},
		Cache: cache.New(redisClient),
		WS:    hub.HandleWS,
	}

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(hctx context.Context) error {
		if err := pg.PingContext(hctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		return redisClient.Ping(hctx).Err()
	})
	defer metricsSrv.Close()

	srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: api.Router()}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	log.Info("table-feed-service listening", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
	log.Info("table-feed-service stopped")
}
