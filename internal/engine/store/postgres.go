package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/radieske/baccarat-platform-poc/internal/engine/game"
	"github.com/radieske/baccarat-platform-poc/internal/engine/ledger"
	"github.com/radieske/baccarat-platform-poc/internal/engine/round"
)

// Postgres implementa a persistência durável de rodadas e apostas.
// Satisfaz round.Store e ledger.BetStore.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// CreateRound abre uma rodada nova em fase OPEN com id monotônico.
func (p *Postgres) CreateRound(ctx context.Context, openedAt time.Time) (*round.Round, error) {
	var id int64
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO rounds (phase, opened_at)
		VALUES ('OPEN', $1)
		RETURNING id`, openedAt,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create round: %w", err)
	}
	return &round.Round{ID: id, Phase: round.PhaseOpen, OpenedAt: openedAt}, nil
}

// LatestRound carrega a rodada corrente (a de maior id). Devolve nil, nil
// quando a mesa nunca rodou.
func (p *Postgres) LatestRound(ctx context.Context) (*round.Round, error) {
	var (
		r           round.Round
		phase       string
		lockedAt    sql.NullTime
		revealedAt  sql.NullTime
		settledAt   sql.NullTime
		playerCards pq.Int64Array
		bankerCards pq.Int64Array
		outcome     sql.NullString
	)
	err := p.db.QueryRowContext(ctx, `
		SELECT id, phase, opened_at, locked_at, revealed_at, settled_at,
		       COALESCE(player_cards, '{}'), COALESCE(banker_cards, '{}'),
		       COALESCE(player_total, 0), COALESCE(banker_total, 0),
		       COALESCE(player_draw3, false), COALESCE(banker_draw3, false),
		       outcome
		FROM rounds
		ORDER BY id DESC
		LIMIT 1`,
	).Scan(&r.ID, &phase, &r.OpenedAt, &lockedAt, &revealedAt, &settledAt,
		&playerCards, &bankerCards, &r.PlayerTotal, &r.BankerTotal,
		&r.PlayerDraw3, &r.BankerDraw3, &outcome)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest round: %w", err)
	}

	r.Phase = round.Phase(phase)
	if lockedAt.Valid {
		r.LockedAt = lockedAt.Time
	}
	if revealedAt.Valid {
		r.RevealedAt = revealedAt.Time
	}
	if settledAt.Valid {
		r.SettledAt = settledAt.Time
	}
	r.PlayerHand = toHand(playerCards)
	r.BankerHand = toHand(bankerCards)
	if outcome.Valid {
		out, err := game.ParseOutcome(outcome.String)
		if err != nil {
			return nil, fmt.Errorf("latest round: %w", err)
		}
		r.Outcome = out
	}
	return &r, nil
}

// UpdatePhase grava fase e timestamp da transição numa escrita atômica.
func (p *Postgres) UpdatePhase(ctx context.Context, roundID int64, phase round.Phase, at time.Time) error {
	var err error
	switch phase {
	case round.PhaseLocked:
		_, err = p.db.ExecContext(ctx,
			`UPDATE rounds SET phase=$1, locked_at=$2 WHERE id=$3`, phase, at, roundID)
	case round.PhaseClosed:
		_, err = p.db.ExecContext(ctx,
			`UPDATE rounds SET phase=$1, settled_at=$2 WHERE id=$3`, phase, at, roundID)
	default:
		_, err = p.db.ExecContext(ctx,
			`UPDATE rounds SET phase=$1 WHERE id=$2`, phase, roundID)
	}
	if err != nil {
		return fmt.Errorf("update phase %s: %w", phase, err)
	}
	return nil
}

// SaveResult grava mãos, flags de terceira carta e outcome junto com a
// entrada em REVEALING.
func (p *Postgres) SaveResult(ctx context.Context, roundID int64, res *game.Result, revealedAt time.Time) error {
	_, err := p.db.ExecContext(ctx, `
		UPDATE rounds
		SET phase='REVEALING', revealed_at=$1,
		    player_cards=$2, banker_cards=$3,
		    player_total=$4, banker_total=$5,
		    player_draw3=$6, banker_draw3=$7,
		    outcome=$8
		WHERE id=$9`,
		revealedAt,
		pq.Array(fromHand(res.PlayerHand)), pq.Array(fromHand(res.BankerHand)),
		res.PlayerTotal, res.BankerTotal,
		res.PlayerDraw3, res.BankerDraw3,
		string(res.Outcome), roundID,
	)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

// InsertBet grava uma aposta nova (append atômico).
func (p *Postgres) InsertBet(ctx context.Context, b *ledger.Bet) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO bets (id, round_id, player_id, side, amount_cents, placed_at, settled)
		VALUES ($1,$2,$3,$4,$5,$6,false)`,
		b.ID, b.RoundID, b.PlayerID, string(b.Side), b.AmountCents, b.PlacedAt,
	)
	return err
}

// MarkSettled marca as apostas da rodada como liquidadas com seus lucros,
// tudo numa transação. O predicado settled=false torna o retry inócuo.
func (p *Postgres) MarkSettled(ctx context.Context, roundID int64, payouts map[string]int64) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for betID, payout := range payouts {
		if _, err := tx.ExecContext(ctx, `
			UPDATE bets SET settled=true, payout_cents=$1
			WHERE id=$2 AND round_id=$3 AND settled=false`,
			payout, betID, roundID,
		); err != nil {
			return fmt.Errorf("mark bet %s settled: %w", betID, err)
		}
	}
	return tx.Commit()
}

// UnsettledBets lê as apostas pendentes da rodada (reidratação pós-crash).
func (p *Postgres) UnsettledBets(ctx context.Context, roundID int64) ([]*ledger.Bet, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, round_id, player_id, side, amount_cents, placed_at
		FROM bets
		WHERE round_id=$1 AND settled=false
		ORDER BY placed_at`, roundID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ledger.Bet
	for rows.Next() {
		var (
			b    ledger.Bet
			side string
		)
		if err := rows.Scan(&b.ID, &b.RoundID, &b.PlayerID, &side, &b.AmountCents, &b.PlacedAt); err != nil {
			return nil, err
		}
		b.Side = game.Side(side)
		out = append(out, &b)
	}
	return out, rows.Err()
}

func toHand(arr pq.Int64Array) game.Hand {
	if len(arr) == 0 {
		return nil
	}
	h := make(game.Hand, len(arr))
	for i, v := range arr {
		h[i] = game.Card(v)
	}
	return h
}

func fromHand(h game.Hand) []int64 {
	out := make([]int64, len(h))
	for i, c := range h {
		out[i] = int64(c)
	}
	return out
}
