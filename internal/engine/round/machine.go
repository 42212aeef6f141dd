package round

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/baccarat-platform-poc/internal/engine/game"
	"github.com/radieske/baccarat-platform-poc/internal/engine/ledger"
)

// ErrHalted indica que a mesa parou após uma violação de invariante do
// avaliador. A rodada não progride até inspeção manual.
var ErrHalted = errors.New("table halted for manual inspection")

// Clock abstrai o relógio pra teste determinístico.
type Clock func() time.Time

// Timing são as durações configuradas de cada fase.
type Timing struct {
	BettingWindow time.Duration
	RevealWait    time.Duration
	RoundGap      time.Duration
}

// Hooks são callbacks opcionais disparados pelo machine (publicação de
// eventos, métricas). Executam na goroutine do scheduler.
type Hooks struct {
	OnTransition  func(snap Snapshot)
	OnSettled     func(snap Snapshot, deltas []ledger.Delta)
	OnSettleRetry func(roundID int64, err error)
	OnRoundOpened func(roundID int64)
	OnHalted      func(roundID int64, err error)
}

// Snapshot é a visão de leitura da rodada corrente exposta ao transporte.
type Snapshot struct {
	RoundID     int64
	Phase       Phase
	SecondsLeft int
	Result      *game.Result
	OpenedAt    time.Time
}

// Machine é o dono exclusivo do ciclo de vida da rodada. Só o scheduler
// escreve fase, via Tick; todos os outros componentes leem por Snapshot ou
// apostam pelo ledger, que o machine abre/fecha nas transições.
type Machine struct {
	log    *zap.Logger
	store  Store
	ledger *ledger.Ledger
	shoe   game.Shoe
	timing Timing
	now    Clock
	hooks  Hooks

	mu     sync.RWMutex
	cur    *Round
	halted bool
}

func NewMachine(log *zap.Logger, store Store, led *ledger.Ledger, shoe game.Shoe, timing Timing, now Clock, hooks Hooks) *Machine {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Machine{
		log:    log,
		store:  store,
		ledger: led,
		shoe:   shoe,
		timing: timing,
		now:    now,
		hooks:  hooks,
	}
}

// Start recupera a rodada corrente do armazenamento durável ou abre a
// primeira. A fase retomada vem dos timestamps persistidos: nenhum timer em
// memória sobrevive a restart, o Tick compara tempo decorrido com as
// durações configuradas.
func (m *Machine) Start(ctx context.Context) error {
	r, err := m.store.LatestRound(ctx)
	if err != nil {
		return fmt.Errorf("load latest round: %w", err)
	}
	if r == nil {
		return m.openNewRound(ctx)
	}

	if err := m.ledger.Rehydrate(ctx, r.ID, r.Phase == PhaseOpen); err != nil {
		return err
	}
	m.mu.Lock()
	m.cur = r
	m.mu.Unlock()
	m.log.Info("resumed round",
		zap.Int64("roundId", r.ID),
		zap.String("phase", string(r.Phase)),
	)
	return nil
}

// Tick avança a rodada se a duração da fase corrente expirou. Deve ser
// chamado por exatamente uma goroutine (o scheduler loop).
func (m *Machine) Tick(ctx context.Context) error {
	if m.Halted() {
		return ErrHalted
	}
	m.mu.RLock()
	cur := m.cur
	m.mu.RUnlock()
	if cur == nil {
		return m.openNewRound(ctx)
	}

	now := m.now()
	switch cur.Phase {
	case PhaseOpen:
		if now.Sub(cur.OpenedAt) < m.timing.BettingWindow {
			return nil
		}
		if err := m.lock(ctx, cur, now); err != nil {
			return err
		}
		return m.reveal(ctx)

	case PhaseLocked:
		// só alcançável após crash entre lock e reveal
		return m.reveal(ctx)

	case PhaseRevealing:
		if now.Sub(cur.RevealedAt) < m.timing.RevealWait {
			return nil
		}
		if err := m.enterSettling(ctx, cur, now); err != nil {
			return err
		}
		return m.settle(ctx)

	case PhaseSettling:
		return m.settle(ctx)

	case PhaseClosed:
		if now.Sub(cur.SettledAt) < m.timing.RoundGap {
			return nil
		}
		return m.openNewRound(ctx)

	default:
		return fmt.Errorf("unknown phase %q in round %d", cur.Phase, cur.ID)
	}
}

// lock fecha a janela de apostas. O ledger fecha antes da escrita durável:
// se a persistência falhar a mesa fica fail-closed e o próximo tick repete.
func (m *Machine) lock(ctx context.Context, cur *Round, now time.Time) error {
	m.ledger.Close()
	if err := m.store.UpdatePhase(ctx, cur.ID, PhaseLocked, now); err != nil {
		return fmt.Errorf("lock round %d: %w", cur.ID, err)
	}
	m.mu.Lock()
	cur.Phase = PhaseLocked
	cur.LockedAt = now
	m.mu.Unlock()
	m.log.Info("round locked", zap.Int64("roundId", cur.ID))
	m.emitTransition()
	return nil
}

// reveal distribui e avalia as mãos (transição LOCKED -> REVEALING,
// síncrona). Violação de invariante do avaliador trava a mesa.
func (m *Machine) reveal(ctx context.Context) error {
	m.mu.RLock()
	cur := m.cur
	m.mu.RUnlock()

	res, err := game.Deal(ctx, m.shoe)
	if err != nil {
		if errors.Is(err, game.ErrInvariant) {
			m.halt(cur.ID, err)
			return ErrHalted
		}
		return fmt.Errorf("deal round %d: %w", cur.ID, err)
	}

	now := m.now()
	if err := m.store.SaveResult(ctx, cur.ID, res, now); err != nil {
		// resultado ainda não publicado: o próximo tick redistribui
		return fmt.Errorf("save result round %d: %w", cur.ID, err)
	}

	m.mu.Lock()
	cur.Phase = PhaseRevealing
	cur.RevealedAt = now
	cur.PlayerHand = res.PlayerHand
	cur.BankerHand = res.BankerHand
	cur.PlayerTotal = res.PlayerTotal
	cur.BankerTotal = res.BankerTotal
	cur.PlayerDraw3 = res.PlayerDraw3
	cur.BankerDraw3 = res.BankerDraw3
	cur.Outcome = res.Outcome
	m.mu.Unlock()

	m.log.Info("round revealed",
		zap.Int64("roundId", cur.ID),
		zap.String("outcome", string(res.Outcome)),
		zap.Int("playerTotal", res.PlayerTotal),
		zap.Int("bankerTotal", res.BankerTotal),
		zap.Bool("playerDraw3", res.PlayerDraw3),
		zap.Bool("bankerDraw3", res.BankerDraw3),
	)
	m.emitTransition()
	return nil
}

func (m *Machine) enterSettling(ctx context.Context, cur *Round, now time.Time) error {
	if err := m.store.UpdatePhase(ctx, cur.ID, PhaseSettling, now); err != nil {
		return fmt.Errorf("enter settling round %d: %w", cur.ID, err)
	}
	m.mu.Lock()
	cur.Phase = PhaseSettling
	m.mu.Unlock()
	m.emitTransition()
	return nil
}

// settle tenta liquidar a rodada. Falha (saldo/armazenamento indisponível)
// mantém a fase SETTLING e o próximo tick tenta de novo — a rodada nunca
// fecha sem liquidação completa.
func (m *Machine) settle(ctx context.Context) error {
	m.mu.RLock()
	cur := m.cur
	m.mu.RUnlock()

	deltas, err := m.ledger.Settle(ctx, cur.ID, cur.Outcome)
	if err != nil {
		m.log.Warn("settlement failed, will retry",
			zap.Int64("roundId", cur.ID),
			zap.Error(err),
		)
		if m.hooks.OnSettleRetry != nil {
			m.hooks.OnSettleRetry(cur.ID, err)
		}
		return nil
	}

	now := m.now()
	if err := m.store.UpdatePhase(ctx, cur.ID, PhaseClosed, now); err != nil {
		// liquidação aplicada e durável; só o flip de fase pendente
		return fmt.Errorf("close round %d: %w", cur.ID, err)
	}
	m.mu.Lock()
	cur.Phase = PhaseClosed
	cur.SettledAt = now
	m.mu.Unlock()

	m.log.Info("round settled",
		zap.Int64("roundId", cur.ID),
		zap.Int("payouts", len(deltas)),
	)
	m.emitTransition()
	if m.hooks.OnSettled != nil {
		m.hooks.OnSettled(m.Snapshot(), deltas)
	}
	return nil
}

func (m *Machine) openNewRound(ctx context.Context) error {
	r, err := m.store.CreateRound(ctx, m.now())
	if err != nil {
		return fmt.Errorf("open round: %w", err)
	}
	m.mu.Lock()
	m.cur = r
	m.mu.Unlock()
	m.ledger.Open(r.ID)
	m.log.Info("round opened", zap.Int64("roundId", r.ID))
	if m.hooks.OnRoundOpened != nil {
		m.hooks.OnRoundOpened(r.ID)
	}
	m.emitTransition()
	return nil
}

func (m *Machine) halt(roundID int64, err error) {
	m.mu.Lock()
	m.halted = true
	m.mu.Unlock()
	m.log.Error("table halted: evaluator invariant violation",
		zap.Int64("roundId", roundID),
		zap.Error(err),
	)
	if m.hooks.OnHalted != nil {
		m.hooks.OnHalted(roundID, err)
	}
}

// Halted informa se a mesa travou (exposto no /healthz).
func (m *Machine) Halted() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.halted
}

// Snapshot devolve a visão corrente da rodada, segura pra chamar de
// qualquer goroutine.
func (m *Machine) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cur == nil {
		return Snapshot{}
	}
	cur := m.cur
	snap := Snapshot{
		RoundID:  cur.ID,
		Phase:    cur.Phase,
		OpenedAt: cur.OpenedAt,
	}
	now := m.now()
	switch cur.Phase {
	case PhaseOpen:
		snap.SecondsLeft = secondsLeft(cur.OpenedAt, m.timing.BettingWindow, now)
	case PhaseRevealing:
		snap.SecondsLeft = secondsLeft(cur.RevealedAt, m.timing.RevealWait, now)
	case PhaseClosed:
		snap.SecondsLeft = secondsLeft(cur.SettledAt, m.timing.RoundGap, now)
	}
	if cur.Outcome != "" {
		snap.Result = &game.Result{
			PlayerHand:  cur.PlayerHand,
			BankerHand:  cur.BankerHand,
			PlayerTotal: cur.PlayerTotal,
			BankerTotal: cur.BankerTotal,
			PlayerDraw3: cur.PlayerDraw3,
			BankerDraw3: cur.BankerDraw3,
			Outcome:     cur.Outcome,
		}
	}
	return snap
}

func (m *Machine) emitTransition() {
	if m.hooks.OnTransition != nil {
		m.hooks.OnTransition(m.Snapshot())
	}
}

func secondsLeft(since time.Time, window time.Duration, now time.Time) int {
	left := since.Add(window).Sub(now)
	if left < 0 {
		return 0
	}
	return int(left.Seconds())
}
