package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/baccarat-platform-poc/internal/engine/game"
	ehttp "github.com/radieske/baccarat-platform-poc/internal/engine/httpapi"
	"github.com/radieske/baccarat-platform-poc/internal/engine/ledger"
	"github.com/radieske/baccarat-platform-poc/internal/engine/payout"
	kpub "github.com/radieske/baccarat-platform-poc/internal/engine/producer"
	"github.com/radieske/baccarat-platform-poc/internal/engine/pubsub"
	"github.com/radieske/baccarat-platform-poc/internal/engine/round"
	"github.com/radieske/baccarat-platform-poc/internal/engine/scheduler"
	"github.com/radieske/baccarat-platform-poc/internal/engine/store"
	"github.com/radieske/baccarat-platform-poc/internal/engine/wallet"
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

	// Postgres: rodadas e apostas
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	// Redis: broadcast de baixa latência pro table-feed
	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	// Kafka writers: round_updates e bet_placed
	roundsWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicRoundUpdates)
	defer roundsWriter.Close()
	betsWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetPlaced)
	defer betsWriter.Close()

	// Odds de pagamento configuráveis (strings decimais)
	table, err := payout.Parse(cfg.PayoutPlayer, cfg.PayoutBanker, cfg.PayoutTie)
	if err != nil {
		log.Fatal("payout config", zap.Error(err))
	}

	pgStore := store.NewPostgres(pg)
	wcli := wallet.New(cfg.WalletURL) // wallet-service
	led := ledger.New(log, pgStore, table, wcli)
	publ := kpub.NewKafkaPublisher(roundsWriter, betsWriter)
	broadcaster := pubsub.NewRedisBroadcaster(redisClient)

	// Métricas Prometheus do ciclo da mesa
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "engine_phase_transitions_total", Help: "transições de fase por fase destino",
	}, []string{"phase"})
	roundsOpened := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "engine_rounds_opened_total", Help: "rodadas abertas",
	})
	roundsSettled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "engine_rounds_settled_total", Help: "rodadas liquidadas",
	})
	settleRetries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "engine_settle_retries_total", Help: "tentativas de liquidação que falharam",
	})
	halted := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "engine_table_halted", Help: "1 quando a mesa parou por violação de invariante",
	})
	betsAccepted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "engine_bets_accepted_total", Help: "apostas aceitas",
	})
	betsRejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "engine_bets_rejected_total", Help: "apostas rejeitadas por motivo",
	}, []string{"reason"})
	prometheus.MustRegister(transitions, roundsOpened, roundsSettled, settleRetries, halted,
		betsAccepted, betsRejected)

	// publish envia a atualização pro Kafka e pro canal Pub/Sub do WebSocket
	publish := func(upd events.RoundUpdate) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := publ.PublishRoundUpdate(ctx, upd); err != nil {
			log.Warn("kafka publish round update", zap.Error(err))
		}
		b, _ := json.Marshal(upd)
		if err := broadcaster.Publish(ctx, cfg.RedisPubSubChannel, b); err != nil {
			log.Warn("ws broadcast publish", zap.Error(err))
		}
	}

	hooks := round.Hooks{
		OnTransition: func(snap round.Snapshot) {
			transitions.WithLabelValues(string(snap.Phase)).Inc()
			publish(toRoundUpdate(snap, nil))
		},
		OnSettled: func(snap round.Snapshot, deltas []ledger.Delta) {
			roundsSettled.Inc()
			var total int64
			for _, d := range deltas {
				total += d.AmountCents
			}
			publish(toRoundUpdate(snap, &events.Payouts{
				BetCount:    led.BetCount(),
				PlayerCount: len(deltas),
				TotalCents:  total,
			}))
		},
		OnSettleRetry: func(roundID int64, err error) {
			settleRetries.Inc()
		},
		OnRoundOpened: func(roundID int64) {
			roundsOpened.Inc()
		},
		OnHalted: func(roundID int64, err error) {
			halted.Set(1)
			log.Error("table halted", zap.Int64("roundId", roundID), zap.Error(err))
		},
	}

	machine := round.NewMachine(log, pgStore, led, game.NewCryptoShoe(), round.Timing{
		BettingWindow: cfg.BettingWindow,
		RevealWait:    cfg.RevealWait,
		RoundGap:      cfg.RoundGap,
	}, nil, hooks)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Recupera a rodada corrente (ou abre a primeira) antes de aceitar tráfego
	if err := machine.Start(ctx); err != nil {
		log.Fatal("machine start", zap.Error(err))
	}

	// Servidor de métricas e health: a mesa parada conta como unhealthy
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(hctx context.Context) error {
		if err := pg.PingContext(hctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		if err := redisClient.Ping(hctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		if machine.Halted() {
			return fmt.Errorf("table halted")
		}
		return nil
	})
	defer metricsSrv.Close()

	// API pública: apostas e estado da mesa
	api := ehttp.NewServer(log, led, machine, publ)
	api.OnAccepted = func() { betsAccepted.Inc() }
	api.OnRejected = func(reason string) { betsRejected.WithLabelValues(reason).Inc() }
	apiSrv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: api.Router(),
	}
	go func() {
		log.Info("round-engine listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("api", zap.Error(err))
		}
	}()

	// Scheduler: única goroutine que escreve fase
	loop := scheduler.New(log, cfg.TickInterval, machine)
	log.Info("round-engine started",
		zap.Duration("bettingWindow", cfg.BettingWindow),
		zap.Duration("revealWait", cfg.RevealWait),
		zap.Duration("roundGap", cfg.RoundGap),
	)
	_ = loop.Run(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = apiSrv.Shutdown(shutdownCtx)
	log.Info("round-engine stopped")
}

// toRoundUpdate converte o snapshot do machine no evento de contrato
func toRoundUpdate(snap round.Snapshot, settlement *events.Payouts) events.RoundUpdate {
	upd := events.RoundUpdate{
		RoundID:     snap.RoundID,
		Phase:       string(snap.Phase),
		SecondsLeft: snap.SecondsLeft,
		Settlement:  settlement,
	}
	if snap.Result != nil {
		upd.Result = &events.Result{
			PlayerCards: toInts(snap.Result.PlayerHand),
			BankerCards: toInts(snap.Result.BankerHand),
			PlayerTotal: snap.Result.PlayerTotal,
			BankerTotal: snap.Result.BankerTotal,
			PlayerDraw3: snap.Result.PlayerDraw3,
			BankerDraw3: snap.Result.BankerDraw3,
			Outcome:     string(snap.Result.Outcome),
		}
	}
	return upd
}

func toInts(h game.Hand) []int {
	out := make([]int, len(h))
	for i, c := range h {
		out[i] = int(c)
	}
	return out
}
