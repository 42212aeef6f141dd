package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/baccarat-platform-poc/internal/history-worker/cache"
	"github.com/radieske/baccarat-platform-poc/internal/history-worker/repository"
	"github.com/radieske/baccarat-platform-poc/pkg/contracts/events"
)

const historyCacheSize = 50

// Processor consome atualizações de rodada do Kafka, renova o cache lido
// pelo table-feed-service e persiste rodadas liquidadas no histórico
// Callbacks de métricas podem ser usadas para monitoramento de cada etapa
type Processor struct {
	Log    *zap.Logger
	Reader *kafka.Reader
	Repo   *repository.PostgresRepo
	Cache  *cache.RedisCache
	DLQ    *kafka.Writer // opcional: mensagens indecodificáveis

	OnConsumed func()       // métricas (counter++)
	OnCached   func()       // métricas
	OnPersist  func()       // métricas
	OnError    func(string) // métricas por fase

	// Após persistir uma rodada liquidada, repassa o evento (usado para
	// republicar no canal Pub/Sub do WebSocket)
	OnAfterPersist func(events.RoundUpdate)
}

// Run inicia o loop principal de consumo e processamento das mensagens Kafka
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err() // encerra se o contexto for cancelado
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			if p.OnError != nil {
				p.OnError("read")
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if p.OnConsumed != nil {
			p.OnConsumed() // callback de métrica: mensagem consumida
		}

		var ev events.RoundUpdate
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			p.Log.Warn("invalid message", zap.Error(err))
			if p.OnError != nil {
				p.OnError("decode")
			}
			p.toDLQ(ctx, m)
			continue
		}

		// Atualiza o estado corrente da mesa no Redis a cada transição
		if err := p.Cache.SetState(ctx, ev); err != nil {
			p.Log.Warn("redis set state failed", zap.Error(err))
			if p.OnError != nil {
				p.OnError("cache")
			}
			// não bloqueia persistência se falhar o cache
		} else if p.OnCached != nil {
			p.OnCached() // callback de métrica: cache atualizado
		}

		// Apenas rodadas liquidadas entram no histórico
		if ev.Phase != "CLOSED" || ev.Result == nil {
			continue
		}

		if err := p.persistWithRetry(ctx, ev); err != nil {
			p.Log.Warn("db insert history failed", zap.Int64("roundId", ev.RoundID), zap.Error(err))
			if p.OnError != nil {
				p.OnError("db_history")
			}
			p.toDLQ(ctx, m)
			continue
		}
		if p.OnPersist != nil {
			p.OnPersist() // callback de métrica: persistência concluída
		}

		// Renova a lista de rodadas recentes lida pelo table-feed-service
		items, err := p.Repo.RecentHistory(ctx, historyCacheSize)
		if err != nil {
			p.Log.Warn("history reload failed", zap.Error(err))
			if p.OnError != nil {
				p.OnError("db_reload")
			}
		} else if err := p.Cache.SetHistory(ctx, items); err != nil {
			p.Log.Warn("redis set history failed", zap.Error(err))
			if p.OnError != nil {
				p.OnError("cache")
			}
		}

		if p.OnAfterPersist != nil {
			p.OnAfterPersist(ev)
		}
	}
}

// persistWithRetry tenta inserir no histórico até 3 vezes com backoff simples
func (p *Processor) persistWithRetry(ctx context.Context, ev events.RoundUpdate) error {
	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		if err = p.Repo.InsertHistory(ctx, ev); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 200 * time.Millisecond):
		}
	}
	return err
}

// toDLQ encaminha a mensagem original para o tópico de dead letter, se configurado
func (p *Processor) toDLQ(ctx context.Context, m kafka.Message) {
	if p.DLQ == nil {
		return
	}
	if err := p.DLQ.WriteMessages(ctx, kafka.Message{Key: m.Key, Value: m.Value}); err != nil {
		p.Log.Warn("dlq write failed", zap.Error(err))
		if p.OnError != nil {
			p.OnError("dlq")
		}
	}
}
