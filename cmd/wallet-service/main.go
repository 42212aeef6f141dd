package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/radieske/baccarat-platform-poc/internal/shared/config"
	"github.com/radieske/baccarat-platform-poc/internal/shared/db"
	"github.com/radieske/baccarat-platform-poc/internal/shared/logger"
	"github.com/radieske/baccarat-platform-poc/internal/shared/metrics"
	whttp "github.com/radieske/baccarat-platform-poc/internal/wallet-service/http"
	"github.com/radieske/baccarat-platform-poc/internal/wallet-service/repo"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	// Postgres: carteiras e ledger de movimentos
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	repository := repo.NewPostgres(pg)
	api := whttp.NewServer(log, repository)

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})
	defer metricsSrv.Close()

	addr := ":" + cfg.HTTPPort
	log.Info("wallet-service listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, api.Router()); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
