package game

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvariant indica que a avaliação chegou a um estado que as regras fixas
// de baccarat não definem (carta fora do intervalo, lookup indefinido na
// tabela). É fatal para a progressão da rodada: a mesa deve parar para
// inspeção manual em vez de chutar um resultado.
var ErrInvariant = errors.New("evaluator invariant violation")

// Result é o desfecho completo de uma rodada avaliada.
type Result struct {
	PlayerHand  Hand
	BankerHand  Hand
	PlayerTotal int
	BankerTotal int
	PlayerDraw3 bool
	BankerDraw3 bool
	Natural     bool
	Outcome     Outcome
}

// Deal distribui duas cartas pra cada lado e aplica as regras de terceira
// carta: naturais 8/9 encerram a mão; player puxa com <=5; banker segue a
// tabela canônica. A ordem de distribuição é P1 B1 P2 B2, como na mesa real.
func Deal(ctx context.Context, shoe Shoe) (*Result, error) {
	p1, err := drawValid(ctx, shoe)
	if err != nil {
		return nil, err
	}
	b1, err := drawValid(ctx, shoe)
	if err != nil {
		return nil, err
	}
	p2, err := drawValid(ctx, shoe)
	if err != nil {
		return nil, err
	}
	b2, err := drawValid(ctx, shoe)
	if err != nil {
		return nil, err
	}

	player := Hand{p1, p2}
	banker := Hand{b1, b2}
	return Resolve(ctx, shoe, player, banker)
}

// Resolve aplica as regras de terceira carta sobre mãos iniciais já dadas.
// Separado de Deal pra permitir teste exaustivo da tabela.
func Resolve(ctx context.Context, shoe Shoe, player, banker Hand) (*Result, error) {
	if len(player) != 2 || len(banker) != 2 {
		return nil, fmt.Errorf("%w: initial hands must have 2 cards", ErrInvariant)
	}
	for _, c := range append(append(Hand{}, player...), banker...) {
		if !c.Valid() {
			return nil, fmt.Errorf("%w: card %d out of range", ErrInvariant, c)
		}
	}

	pt := player.Total()
	bt := banker.Total()

	// natural 8/9 de qualquer lado encerra sem compra
	if pt >= 8 || bt >= 8 {
		return finish(player, banker, false, false, true), nil
	}

	playerDrew := false
	var playerThird Card
	if pt <= 5 {
		c, err := drawValid(ctx, shoe)
		if err != nil {
			return nil, err
		}
		player = append(player, c)
		playerThird = c
		playerDrew = true
	}

	var draws, ok bool
	if playerDrew {
		draws, ok = bankerDrawsAfterPlayerThird(bt, playerThird)
	} else {
		draws, ok = bankerDrawsStandingPlayer(bt)
	}
	if !ok {
		return nil, fmt.Errorf("%w: tableau lookup banker=%d playerDrew=%v third=%d",
			ErrInvariant, bt, playerDrew, playerThird)
	}

	bankerDrew := false
	if draws {
		c, err := drawValid(ctx, shoe)
		if err != nil {
			return nil, err
		}
		banker = append(banker, c)
		bankerDrew = true
	}

	return finish(player, banker, playerDrew, bankerDrew, false), nil
}

func finish(player, banker Hand, p3, b3, natural bool) *Result {
	pt := player.Total()
	bt := banker.Total()
	out := OutcomeTie
	if pt > bt {
		out = OutcomePlayer
	} else if bt > pt {
		out = OutcomeBanker
	}
	return &Result{
		PlayerHand:  player,
		BankerHand:  banker,
		PlayerTotal: pt,
		BankerTotal: bt,
		PlayerDraw3: p3,
		BankerDraw3: b3,
		Natural:     natural,
		Outcome:     out,
	}
}

func drawValid(ctx context.Context, shoe Shoe) (Card, error) {
	c, err := shoe.Draw(ctx)
	if err != nil {
		return 0, fmt.Errorf("shoe: %w", err)
	}
	if !c.Valid() {
		return 0, fmt.Errorf("%w: shoe yielded card %d", ErrInvariant, c)
	}
	return c, nil
}
