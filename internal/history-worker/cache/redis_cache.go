package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	feeddto "github.com/radieske/baccarat-platform-poc/internal/table-feed/dto"
	"github.com/radieske/baccarat-platform-poc/pkg/contracts/events"
)

// RedisCache renova as chaves de estado e histórico da mesa lidas pelo
// table-feed-service
// Client: cliente Redis
// TTL: tempo de expiração do histórico (o estado usa TTL curto fixo)
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewRedisCache cria uma instância de cache Redis com TTL configurável
func NewRedisCache(c *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{Client: c, TTL: ttl}
}

const (
	keyState   = "table:state"
	keyHistory = "table:history"
)

// phaseDeadline converte a contagem do evento em deadline absoluto. O valor
// cacheado precisa sobreviver ao TTL sem envelhecer: quem lê deriva os
// segundos restantes do deadline, não do snapshot congelado.
func phaseDeadline(ev events.RoundUpdate) *time.Time {
	if ev.SecondsLeft <= 0 {
		return nil
	}
	t := ev.TransitionAt.Add(time.Duration(ev.SecondsLeft) * time.Second)
	return &t
}

// SetState armazena o estado corrente da mesa derivado do evento de rodada
func (r *RedisCache) SetState(ctx context.Context, ev events.RoundUpdate) error {
	st := feeddto.TableState{
		RoundID:     ev.RoundID,
		Phase:       ev.Phase,
		SecondsLeft: ev.SecondsLeft,
		PhaseEndsAt: phaseDeadline(ev),
	}
	if ev.Result != nil {
		st.Result = &feeddto.RoundResult{
			PlayerCards: ev.Result.PlayerCards,
			BankerCards: ev.Result.BankerCards,
			PlayerTotal: ev.Result.PlayerTotal,
			BankerTotal: ev.Result.BankerTotal,
			Outcome:     ev.Result.Outcome,
		}
	}
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, keyState, b, 5*time.Second).Err()
}

// SetHistory armazena a lista de rodadas liquidadas recentes
func (r *RedisCache) SetHistory(ctx context.Context, items []feeddto.HistoryItem) error {
	b, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, keyHistory, b, r.TTL).Err()
}
