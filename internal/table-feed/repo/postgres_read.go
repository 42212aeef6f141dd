package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/radieske/baccarat-platform-poc/internal/table-feed/dto"
)

// ReadRepo consulta rodadas no Postgres. As durações de fase espelham a
// configuração do round-engine e permitem derivar o deadline da fase
// corrente a partir dos timestamps persistidos.
type ReadRepo struct {
	DB            *sql.DB
	BettingWindow time.Duration
	RevealWait    time.Duration
	RoundGap      time.Duration
}

// LatestState retorna a rodada mais recente da mesa (qualquer fase)
// Retorna sql.ErrNoRows se a mesa nunca abriu uma rodada
func (r *ReadRepo) LatestState(ctx context.Context) (dto.TableState, error) {
	const q = `
		SELECT id, phase,
		       COALESCE(player_cards, '{}'), COALESCE(banker_cards, '{}'),
		       COALESCE(player_total, 0), COALESCE(banker_total, 0),
		       COALESCE(outcome, ''),
		       opened_at, revealed_at, settled_at
		FROM rounds
		ORDER BY id DESC
		LIMIT 1;
	`
	var st dto.TableState
	var playerCards, bankerCards pq.Int64Array
	var playerTotal, bankerTotal int
	var outcome string
	var openedAt time.Time
	var revealedAt, settledAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, q).Scan(
		&st.RoundID, &st.Phase, &playerCards, &bankerCards,
		&playerTotal, &bankerTotal, &outcome,
		&openedAt, &revealedAt, &settledAt)
	if err != nil {
		return dto.TableState{}, err
	}
	if outcome != "" {
		st.Result = &dto.RoundResult{
			PlayerCards: toInts(playerCards),
			BankerCards: toInts(bankerCards),
			PlayerTotal: playerTotal,
			BankerTotal: bankerTotal,
			Outcome:     outcome,
		}
	}
	st.PhaseEndsAt = r.phaseDeadline(st.Phase, openedAt, revealedAt, settledAt)
	return st, nil
}

// phaseDeadline reconstrói o deadline da fase a partir dos timestamps
// persistidos, do mesmo jeito que o round-engine agenda as transições.
// LOCKED e SETTLING não têm duração configurada (transicionam assim que o
// trabalho termina), então ficam sem deadline.
func (r *ReadRepo) phaseDeadline(phase string, openedAt time.Time, revealedAt, settledAt sql.NullTime) *time.Time {
	var t time.Time
	switch {
	case phase == "OPEN":
		t = openedAt.Add(r.BettingWindow)
	case phase == "REVEALING" && revealedAt.Valid:
		t = revealedAt.Time.Add(r.RevealWait)
	case phase == "CLOSED" && settledAt.Valid:
		t = settledAt.Time.Add(r.RoundGap)
	default:
		return nil
	}
	return &t
}

// RecentHistory retorna as últimas rodadas liquidadas, da mais antiga
// para a mais recente
func (r *ReadRepo) RecentHistory(ctx context.Context, limit int) ([]dto.HistoryItem, error) {
	const q = `
		SELECT id, outcome, player_total, banker_total, player_cards, banker_cards,
		       to_char(settled_at, 'YYYY-MM-DD"T"HH24:MI:SSZ')
		FROM (
			SELECT id, outcome, player_total, banker_total, player_cards, banker_cards, settled_at
			FROM rounds
			WHERE phase = 'CLOSED'
			ORDER BY id DESC
			LIMIT $1
		) recent
		ORDER BY id ASC;
	`
	rows, err := r.DB.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []dto.HistoryItem
	for rows.Next() {
		var h dto.HistoryItem
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

func toInts(a pq.Int64Array) []int {
	out := make([]int, len(a))
	for i, v := range a {
		out[i] = int(v)
	}
	return out
}
