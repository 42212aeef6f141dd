package producer

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/radieske/baccarat-platform-poc/pkg/contracts/events"
)

// KafkaPublisher publica os eventos da mesa: transições de rodada e apostas
// aceitas. Chaveia por round_id pra manter ordenação por rodada na partição.
type KafkaPublisher struct {
	Rounds *kafka.Writer
	Bets   *kafka.Writer
}

func NewKafkaPublisher(rounds, bets *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{Rounds: rounds, Bets: bets}
}

func (p *KafkaPublisher) PublishRoundUpdate(ctx context.Context, e events.RoundUpdate) error {
	e.TransitionAt = time.Now().UTC()
	b, _ := json.Marshal(e)
	return p.Rounds.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(e.RoundID, 10)),
		Value: b,
	})
}

func (p *KafkaPublisher) PublishBetPlaced(ctx context.Context, e events.BetPlaced) error {
	e.TsUnixMs = time.Now().UnixMilli()
	b, _ := json.Marshal(e)
	return p.Bets.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(e.RoundID, 10)),
		Value: b,
	})
}
