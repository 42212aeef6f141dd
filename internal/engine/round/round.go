package round

import (
	"context"
	"time"

	"github.com/radieske/baccarat-platform-poc/internal/engine/game"
)

// Phase é a fase da rodada. As transições são estritamente ordenadas:
// OPEN -> LOCKED -> REVEALING -> SETTLING -> CLOSED, sem pular nem voltar.
type Phase string

const (
	PhaseOpen      Phase = "OPEN"
	PhaseLocked    Phase = "LOCKED"
	PhaseRevealing Phase = "REVEALING"
	PhaseSettling  Phase = "SETTLING"
	PhaseClosed    Phase = "CLOSED"
)

// Round é uma rodada da mesa. Exatamente uma rodada é "corrente" a cada
// instante; todas as anteriores são histórico imutável. Timestamps zerados
// significam "fase ainda não alcançada".
type Round struct {
	ID    int64
	Phase Phase

	OpenedAt   time.Time
	LockedAt   time.Time
	RevealedAt time.Time
	SettledAt  time.Time

	PlayerHand  game.Hand
	BankerHand  game.Hand
	PlayerTotal int
	BankerTotal int
	PlayerDraw3 bool
	BankerDraw3 bool
	Outcome     game.Outcome // vazio até REVEALING
}

// Store é o collaborator durável de rodadas. Cada operação precisa ser
// atômica: fase + timestamp da transição gravados juntos.
type Store interface {
	CreateRound(ctx context.Context, openedAt time.Time) (*Round, error)
	LatestRound(ctx context.Context) (*Round, error) // nil, nil quando não há rodada
	UpdatePhase(ctx context.Context, roundID int64, phase Phase, at time.Time) error
	SaveResult(ctx context.Context, roundID int64, res *game.Result, revealedAt time.Time) error
}
