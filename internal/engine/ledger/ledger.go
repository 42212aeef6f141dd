package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/baccarat-platform-poc/internal/engine/game"
	"github.com/radieske/baccarat-platform-poc/internal/engine/payout"
)

var (
	// ErrRoundClosed é devolvido ao caller quando a aposta chega fora da
	// fase OPEN. Não é retentável: o jogador espera a próxima rodada.
	ErrRoundClosed = errors.New("round closed for betting")

	// ErrInvalidAmount é devolvido para valores <= 0.
	ErrInvalidAmount = errors.New("invalid bet amount")

	// ErrBalanceRejected marca uma recusa determinística do collaborator de
	// saldo (fundos insuficientes, carteira inexistente). Diferente de
	// indisponibilidade transitória, retry nunca vai resolver: a liquidação
	// pula o delta, sinaliza, e a rodada segue em vez de travar a mesa.
	ErrBalanceRejected = errors.New("balance delta rejected")
)

// Bet é uma aposta registrada contra a rodada aberta.
type Bet struct {
	ID          string
	RoundID     int64
	PlayerID    string
	Side        game.Side
	AmountCents int64
	PlacedAt    time.Time
	Settled     bool
	PayoutCents int64 // lucro da aposta (0 em derrota e push)
}

// Delta é o ajuste líquido de saldo de um jogador após a liquidação.
type Delta struct {
	PlayerID    string
	AmountCents int64 // positivo = credit, negativo = debit
}

// BetStore é a fatia do armazenamento durável que o ledger usa.
type BetStore interface {
	InsertBet(ctx context.Context, b *Bet) error
	MarkSettled(ctx context.Context, roundID int64, payouts map[string]int64) error
	UnsettledBets(ctx context.Context, roundID int64) ([]*Bet, error)
}

// Balance é o collaborator externo de saldo. Credit/Debit precisam ser
// idempotentes por ref pra tolerar retries de liquidação.
type Balance interface {
	Credit(ctx context.Context, playerID string, amountCents int64, ref string) error
	Debit(ctx context.Context, playerID string, amountCents int64, ref string) error
}

// Ledger guarda as apostas da rodada corrente. O caminho de Place é
// concorrente (muitos jogadores simultâneos); o mutex cobre o append e a
// escrita durável, de modo que uma aposta correndo contra a transição de
// lock ou entra inteira antes do Close ou falha com ErrRoundClosed —
// nunca aplica parcialmente.
type Ledger struct {
	log     *zap.Logger
	store   BetStore
	table   *payout.Table
	balance Balance

	mu      sync.Mutex
	roundID int64
	open    bool
	bets    []*Bet
}

func New(log *zap.Logger, store BetStore, table *payout.Table, balance Balance) *Ledger {
	return &Ledger{log: log, store: store, table: table, balance: balance}
}

// Open reinicia o ledger para uma nova rodada em fase OPEN.
func (l *Ledger) Open(roundID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.roundID = roundID
	l.open = true
	l.bets = nil
}

// Close fecha a janela de apostas (transição OPEN -> LOCKED). Depois do
// retorno, nenhuma aposta nova entra no conjunto visível pela liquidação.
func (l *Ledger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.open = false
}

// Rehydrate recarrega o ledger a partir do armazenamento durável na
// recuperação pós-crash.
func (l *Ledger) Rehydrate(ctx context.Context, roundID int64, open bool) error {
	bets, err := l.store.UnsettledBets(ctx, roundID)
	if err != nil {
		return fmt.Errorf("rehydrate bets: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.roundID = roundID
	l.open = open
	l.bets = bets
	return nil
}

// Place registra uma aposta contra a rodada aberta. Não há dedup: apostas
// repetidas do mesmo jogador no mesmo lado acumulam e são somadas na
// liquidação.
func (l *Ledger) Place(ctx context.Context, playerID string, side game.Side, amountCents int64) (*Bet, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	if playerID == "" {
		return nil, fmt.Errorf("player id required")
	}
	if _, err := game.ParseSide(string(side)); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.open || l.roundID == 0 {
		return nil, ErrRoundClosed
	}

	bet := &Bet{
		ID:          uuid.NewString(),
		RoundID:     l.roundID,
		PlayerID:    playerID,
		Side:        side,
		AmountCents: amountCents,
		PlacedAt:    time.Now().UTC(),
	}
	// persiste antes de soltar o mutex: ou a aposta está durável e visível
	// pra liquidação, ou o caller recebe o erro e nada fica pela metade
	if err := l.store.InsertBet(ctx, bet); err != nil {
		return nil, fmt.Errorf("insert bet: %w", err)
	}
	l.bets = append(l.bets, bet)
	return bet, nil
}

// Settle liquida todas as apostas não liquidadas da rodada: calcula o delta
// líquido por jogador, aplica no collaborator de saldo (refs idempotentes
// settle:<round>:<player>) e marca as apostas como settled no armazenamento.
// Chamada repetida após sucesso é no-op e devolve lista vazia. Qualquer
// falha deixa tudo pendente pra retry do scheduler.
func (l *Ledger) Settle(ctx context.Context, roundID int64, outcome game.Outcome) ([]Delta, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.open {
		return nil, fmt.Errorf("settle on open round %d", roundID)
	}
	if l.roundID != roundID {
		return nil, fmt.Errorf("settle round mismatch: ledger=%d got=%d", l.roundID, roundID)
	}

	pending := make([]*Bet, 0, len(l.bets))
	for _, b := range l.bets {
		if !b.Settled {
			pending = append(pending, b)
		}
	}
	if len(pending) == 0 {
		return nil, nil
	}

	// delta líquido por jogador: soma lucros das vencedoras, subtrai stakes
	// das perdedoras; push não move saldo
	payouts := make(map[string]int64, len(pending))
	byPlayer := make(map[string]int64)
	for _, b := range pending {
		delta := l.table.Delta(b.Side, outcome, b.AmountCents)
		byPlayer[b.PlayerID] += delta
		if b.Side.Wins(outcome) {
			payouts[b.ID] = delta
		} else {
			payouts[b.ID] = 0
		}
	}

	deltas := make([]Delta, 0, len(byPlayer))
	for pid, amt := range byPlayer {
		deltas = append(deltas, Delta{PlayerID: pid, AmountCents: amt})
	}
	sort.Slice(deltas, func(i, j int) bool { return deltas[i].PlayerID < deltas[j].PlayerID })

	// saldo primeiro: o wallet é idempotente por ref, então um retry após
	// falha parcial reaplica os mesmos refs sem duplicar. Recusa
	// determinística (ErrBalanceRejected) não segura a rodada: o delta é
	// pulado e sinalizado pra cobrança manual, os demais seguem.
	applied := deltas[:0]
	for _, d := range deltas {
		ref := fmt.Sprintf("settle:%d:%s", roundID, d.PlayerID)
		var err error
		switch {
		case d.AmountCents > 0:
			err = l.balance.Credit(ctx, d.PlayerID, d.AmountCents, ref)
		case d.AmountCents < 0:
			err = l.balance.Debit(ctx, d.PlayerID, -d.AmountCents, ref)
		}
		if errors.Is(err, ErrBalanceRejected) {
			l.log.Error("balance delta rejected, skipping player",
				zap.Int64("roundId", roundID),
				zap.String("playerId", d.PlayerID),
				zap.Int64("amountCents", d.AmountCents),
				zap.Error(err),
			)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("apply balance delta for %s: %w", d.PlayerID, err)
		}
		applied = append(applied, d)
	}
	deltas = applied

	if err := l.store.MarkSettled(ctx, roundID, payouts); err != nil {
		return nil, fmt.Errorf("mark settled: %w", err)
	}

	for _, b := range pending {
		b.Settled = true
		b.PayoutCents = payouts[b.ID]
	}
	return deltas, nil
}

// BetCount devolve o número de apostas da rodada corrente.
func (l *Ledger) BetCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.bets)
}

// Pools devolve o total apostado por lado e o número de apostadores da
// rodada corrente (usado pelo endpoint de estado).
func (l *Ledger) Pools() (map[game.Side]int64, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pools := map[game.Side]int64{
		game.SidePlayer: 0,
		game.SideBanker: 0,
		game.SideTie:    0,
	}
	players := map[string]struct{}{}
	for _, b := range l.bets {
		pools[b.Side] += b.AmountCents
		players[b.PlayerID] = struct{}{}
	}
	return pools, len(players)
}
