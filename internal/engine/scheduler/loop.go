package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/baccarat-platform-poc/internal/engine/round"
)

// Advancer é o que o loop dirige a cada tick (o round machine).
type Advancer interface {
	Tick(ctx context.Context) error
}

// Loop é o único driver de tempo da mesa: uma goroutine, um ticker de
// granularidade fina, e nenhuma outra escrita de fase em lugar nenhum.
type Loop struct {
	log      *zap.Logger
	interval time.Duration
	machine  Advancer
}

func New(log *zap.Logger, interval time.Duration, machine Advancer) *Loop {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &Loop{log: log, interval: interval, machine: machine}
}

// Run gira até o contexto encerrar. Erros de tick são logados e o loop
// segue: transições que falharam são naturalmente retentadas porque o
// machine compara tempo decorrido, não agendamentos.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	haltedLogged := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			err := l.machine.Tick(ctx)
			switch {
			case err == nil:
				haltedLogged = false
			case errors.Is(err, round.ErrHalted):
				// mesa travada pra inspeção: mantém o processo vivo
				// (healthz reporta) sem spammar o log
				if !haltedLogged {
					l.log.Error("table halted, scheduler idling", zap.Error(err))
					haltedLogged = true
				}
			default:
				l.log.Warn("tick failed", zap.Error(err))
			}
		}
	}
}
