package payout

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/radieske/baccarat-platform-poc/internal/engine/game"
)

// Table é o mapeamento puro de lado -> multiplicador de lucro.
// Convenção (fixada uma única vez, ver DESIGN.md): o saldo só é tocado na
// liquidação, com deltas líquidos de lucro — vitória soma stake*odd, derrota
// subtrai o stake, push (PLAYER/BANKER em rodada TIE) não move saldo.
type Table struct {
	profit map[game.Side]decimal.Decimal
}

// New monta a tabela com os multiplicadores de lucro por lado.
func New(player, banker, tie decimal.Decimal) *Table {
	return &Table{profit: map[game.Side]decimal.Decimal{
		game.SidePlayer: player,
		game.SideBanker: banker,
		game.SideTie:    tie,
	}}
}

// Default usa as odds padrão de mesa: 1:1, 0.95:1 (comissão) e 8:1.
func Default() *Table {
	return New(
		decimal.NewFromInt(1),
		decimal.RequireFromString("0.95"),
		decimal.NewFromInt(8),
	)
}

// Parse monta a tabela a partir das strings decimais da configuração.
func Parse(player, banker, tie string) (*Table, error) {
	p, err := decimal.NewFromString(player)
	if err != nil {
		return nil, fmt.Errorf("payout player odd: %w", err)
	}
	b, err := decimal.NewFromString(banker)
	if err != nil {
		return nil, fmt.Errorf("payout banker odd: %w", err)
	}
	t, err := decimal.NewFromString(tie)
	if err != nil {
		return nil, fmt.Errorf("payout tie odd: %w", err)
	}
	if p.IsNegative() || b.IsNegative() || t.IsNegative() {
		return nil, fmt.Errorf("payout odds must be >= 0")
	}
	return New(p, b, t), nil
}

// Profit calcula o lucro em centavos de uma aposta vencedora, truncado
// (a casa fica com a fração da comissão do banker).
func (t *Table) Profit(side game.Side, stakeCents int64) int64 {
	mult, ok := t.profit[side]
	if !ok {
		return 0
	}
	return mult.Mul(decimal.NewFromInt(stakeCents)).Truncate(0).IntPart()
}

// Delta devolve o delta líquido de saldo de uma aposta dado o outcome:
// vitória -> +lucro, push -> 0, derrota -> -stake.
func (t *Table) Delta(side game.Side, outcome game.Outcome, stakeCents int64) int64 {
	switch {
	case side.Wins(outcome):
		return t.Profit(side, stakeCents)
	case side.Pushes(outcome):
		return 0
	default:
		return -stakeCents
	}
}
