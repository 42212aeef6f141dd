package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/baccarat-platform-poc/internal/history-worker/cache"
	"github.com/radieske/baccarat-platform-poc/internal/history-worker/consumer"
	"github.com/radieske/baccarat-platform-poc/internal/history-worker/repository"
	sharedcache "github.com/radieske/baccarat-platform-poc/internal/shared/cache"
	"github.com/radieske/baccarat-platform-poc/internal/shared/config"
	"github.com/radieske/baccarat-platform-poc/internal/shared/db"
	"github.com/radieske/baccarat-platform-poc/internal/shared/kafka"
	"github.com/radieske/baccarat-platform-poc/internal/shared/logger"
	"github.com/radieske/baccarat-platform-poc/internal/shared/metrics"
	"github.com/radieske/baccarat-platform-poc/pkg/contracts/events"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	// Postgres: histórico de rodadas liquidadas
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

	repo := repository.NewPostgresRepo(pg)
	rcache := cache.NewRedisCache(redisClient, 5*time.Minute)

	// Consumer group round-history sobre o tópico round_updates
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  strings.Split(cfg.KafkaBrokers, ","),
		GroupID:  "round-history",
		Topic:    cfg.TopicRoundUpdates,
		MinBytes: 1e3,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	var dlqWriter *kafkago.Writer
	if cfg.TopicRoundUpdatesDLQ != "" {
		dlqWriter = kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicRoundUpdatesDLQ)
		defer dlqWriter.Close()
	}

	// Métricas Prometheus para monitoramento do processamento
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "history_messages_consumed_total", Help: "mensagens consumidas"})
	cached := prometheus.NewCounter(prometheus.CounterOpts{Name: "history_cache_sets_total", Help: "sets no cache"})
	persist := prometheus.NewCounter(prometheus.CounterOpts{Name: "history_db_writes_total", Help: "rodadas persistidas no histórico"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "history_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, cached, persist, errorsBy)

	proc := &consumer.Processor{
		Log:        log,
		Reader:     reader,
		Repo:       repo,
		Cache:      rcache,
		DLQ:        dlqWriter,
		OnConsumed: func() { consumed.Inc() },
		OnCached:   func() { cached.Inc() },
		OnPersist:  func() { persist.Inc() },
		OnError:    func(stage string) { errorsBy.WithLabelValues(stage).Inc() },

		// Após persistir, repassa a atualização pro canal do WebSocket
		OnAfterPersist: func(ev events.RoundUpdate) {
			b, _ := json.Marshal(ev)
			ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
			defer cancel()
			if err := redisClient.Publish(ctx, cfg.RedisPubSubChannel, b).Err(); err != nil {
				log.Warn("ws broadcast publish failed", zap.Error(err))
			}
		},
	}

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(hctx context.Context) error {
		if err := pg.PingContext(hctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		return redisClient.Ping(hctx).Err()
	})
	defer metricsSrv.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("round-history-worker started", zap.String("consume", cfg.TopicRoundUpdates))
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}
	log.Info("round-history-worker stopped")
}
