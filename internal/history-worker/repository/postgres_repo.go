package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	feeddto "github.com/radieske/baccarat-platform-poc/internal/table-feed/dto"
	"github.com/radieske/baccarat-platform-poc/pkg/contracts/events"
)

// PostgresRepo persiste o histórico de rodadas liquidadas (round_history)
// DB: conexão com o banco de dados
type PostgresRepo struct {
	DB *sql.DB
}

// NewPostgresRepo retorna uma instância de repositório Postgres
func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{DB: db}
}

// InsertHistory insere o resultado de uma rodada liquidada no histórico
// ON CONFLICT garante idempotência quando o consumer reprocessa a mensagem
func (r *PostgresRepo) InsertHistory(ctx context.Context, ev events.RoundUpdate) error {
	const q = `
		INSERT INTO round_history
		  (round_id, outcome, player_total, banker_total, player_cards, banker_cards,
		   bet_count, player_count, total_payout_cents, settled_at)
		VALUES
		  ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (round_id) DO NOTHING
	`
	res := ev.Result
	var betCount, playerCount int
	var totalCents int64
	if ev.Settlement != nil {
		betCount = ev.Settlement.BetCount
		playerCount = ev.Settlement.PlayerCount
		totalCents = ev.Settlement.TotalCents
	}
	_, err := r.DB.ExecContext(ctx, q,
		ev.RoundID, res.Outcome, res.PlayerTotal, res.BankerTotal,
		pq.Array(toInt64s(res.PlayerCards)), pq.Array(toInt64s(res.BankerCards)),
		betCount, playerCount, totalCents, ev.TransitionAt,
	)
	return err
}

// RecentHistory retorna as últimas rodadas do histórico, da mais antiga
// para a mais recente (usado para renovar o cache lido pelo table-feed)
func (r *PostgresRepo) RecentHistory(ctx context.Context, limit int) ([]feeddto.HistoryItem, error) {
	const q = `
		SELECT round_id, outcome, player_total, banker_total, player_cards, banker_cards,
		       to_char(settled_at, 'YYYY-MM-DD"T"HH24:MI:SSZ')
		FROM (
			SELECT round_id, outcome, player_total, banker_total, player_cards, banker_cards, settled_at
			FROM round_history
			ORDER BY round_id DESC
			LIMIT $1
		) recent
		ORDER BY round_id ASC;
	`
	rows, err := r.DB.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []feeddto.HistoryItem
	for rows.Next() {
		var h feeddto.HistoryItem
		var playerCards, bankerCards pq.Int64Array
		if err := rows.Scan(&h.RoundID, &h.Outcome, &h.PlayerTotal, &h.BankerTotal,
			&playerCards, &bankerCards, &h.SettledAt); err != nil {
			return nil, err
		}
		h.PlayerCards = toInts(playerCards)
		h.BankerCards = toInts(bankerCards)
		out = append(out, h)
	}
	return out, rows.Err()
}

func toInt64s(a []int) []int64 {
	out := make([]int64, len(a))
	for i, v := range a {
		out[i] = int64(v)
	}
	return out
}

func toInts(a pq.Int64Array) []int {
	out := make([]int, len(a))
	for i, v := range a {
		out[i] = int(v)
	}
	return out
}
