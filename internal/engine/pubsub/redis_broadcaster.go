package pubsub

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const ChannelRoundBroadcast = "round_updates_broadcast"

// RedisBroadcaster repassa atualizações de rodada pro canal Pub/Sub que o
// table-feed-service escuta (baixa latência pro WebSocket, sem esperar o
// caminho Kafka).
type RedisBroadcaster struct {
	r *redis.Client
}

func NewRedisBroadcaster(r *redis.Client) *RedisBroadcaster {
	return &RedisBroadcaster{r: r}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.r.Publish(ctx, channel, payload).Err()
}
