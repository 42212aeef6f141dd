package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/radieske/baccarat-platform-poc/internal/engine/game"
	"github.com/radieske/baccarat-platform-poc/internal/engine/payout"
)

type memStore struct {
	mu        sync.Mutex
	bets      map[string]*Bet
	failMark  bool
	markCalls int
}

func newMemStore() *memStore { return &memStore{bets: map[string]*Bet{}} }

func (s *memStore) InsertBet(_ context.Context, b *Bet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *b
	s.bets[b.ID] = &cp
	return nil
}

func (s *memStore) MarkSettled(_ context.Context, _ int64, payouts map[string]int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markCalls++
	if s.failMark {
		return errors.New("store unavailable")
	}
	for id, p := range payouts {
		if b, ok := s.bets[id]; ok {
			b.Settled = true
			b.PayoutCents = p
		}
	}
	return nil
}

func (s *memStore) UnsettledBets(_ context.Context, roundID int64) ([]*Bet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Bet
	for _, b := range s.bets {
		if b.RoundID == roundID && !b.Settled {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memBalance struct {
	mu       sync.Mutex
	applied  map[string]int64 // ref -> delta aplicado (idempotente)
	failAt   string           // ref que deve falhar uma vez
	rejectAt string           // ref recusado deterministicamente (fundos insuficientes)
}

func newMemBalance() *memBalance { return &memBalance{applied: map[string]int64{}} }

func (b *memBalance) apply(ref string, delta int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.rejectAt == ref {
		return errors.Join(errors.New("insufficient funds"), ErrBalanceRejected)
	}
	if b.failAt == ref {
		b.failAt = ""
		return errors.New("wallet unavailable")
	}
	if _, ok := b.applied[ref]; ok {
		return nil // idempotente por ref
	}
	b.applied[ref] = delta
	return nil
}

func (b *memBalance) Credit(_ context.Context, _ string, amount int64, ref string) error {
	return b.apply(ref, amount)
}

func (b *memBalance) Debit(_ context.Context, _ string, amount int64, ref string) error {
	return b.apply(ref, -amount)
}

func newLedger(store BetStore, bal Balance) *Ledger {
	return New(zap.NewNop(), store, payout.Default(), bal)
}

func TestPlaceValidation(t *testing.T) {
	l := newLedger(newMemStore(), newMemBalance())
	l.Open(1)

	if _, err := l.Place(context.Background(), "a", game.SidePlayer, 0); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("err=%v want ErrInvalidAmount", err)
	}
	if _, err := l.Place(context.Background(), "a", game.SidePlayer, -5); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("err=%v want ErrInvalidAmount", err)
	}
	if _, err := l.Place(context.Background(), "a", game.Side("DRAGON"), 100); err == nil {
		t.Fatal("invalid side must error")
	}

	l.Close()
	// fora da fase OPEN sempre falha com RoundClosed, qualquer valor
	if _, err := l.Place(context.Background(), "a", game.SidePlayer, 100); !errors.Is(err, ErrRoundClosed) {
		t.Fatalf("err=%v want ErrRoundClosed", err)
	}
}

func TestPlaceAccumulates(t *testing.T) {
	l := newLedger(newMemStore(), newMemBalance())
	l.Open(7)

	for i := 0; i < 3; i++ {
		if _, err := l.Place(context.Background(), "a", game.SideBanker, 100); err != nil {
			t.Fatal(err)
		}
	}
	pools, bettors := l.Pools()
	if pools[game.SideBanker] != 300 || bettors != 1 {
		t.Fatalf("pools=%v bettors=%d", pools, bettors)
	}
}

func TestSettleDeltasAndIdempotence(t *testing.T) {
	store := newMemStore()
	bal := newMemBalance()
	l := newLedger(store, bal)
	l.Open(9)

	ctx := context.Background()
	mustPlace := func(player string, side game.Side, amt int64) {
		t.Helper()
		if _, err := l.Place(ctx, player, side, amt); err != nil {
			t.Fatal(err)
		}
	}
	mustPlace("ana", game.SidePlayer, 10000)  // vence: +10000
	mustPlace("bia", game.SideBanker, 10000)  // perde: -10000
	mustPlace("caio", game.SideTie, 1000)     // perde: -1000
	mustPlace("caio", game.SidePlayer, 2000)  // vence: +2000 => caio líquido +1000
	l.Close()

	deltas, err := l.Settle(ctx, 9, game.OutcomePlayer)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]int64{"ana": 10000, "bia": -10000, "caio": 1000}
	if len(deltas) != len(want) {
		t.Fatalf("deltas=%v", deltas)
	}
	for _, d := range deltas {
		if want[d.PlayerID] != d.AmountCents {
			t.Fatalf("delta %s=%d want=%d", d.PlayerID, d.AmountCents, want[d.PlayerID])
		}
	}

	// invariante de não-deriva: soma dos deltas == lucros - stakes perdidos
	var sum int64
	for _, d := range deltas {
		sum += d.AmountCents
	}
	if sum != 10000-10000-1000+2000 {
		t.Fatalf("net sum=%d", sum)
	}

	// segunda chamada: no-op, nenhum delta adicional
	again, err := l.Settle(ctx, 9, game.OutcomePlayer)
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != 0 {
		t.Fatalf("second settle must be empty, got %v", again)
	}
	if len(bal.applied) != 3 {
		t.Fatalf("wallet applied %d refs, want 3", len(bal.applied))
	}
}

func TestSettleTiePushesFlatBets(t *testing.T) {
	store := newMemStore()
	bal := newMemBalance()
	l := newLedger(store, bal)
	l.Open(4)
	ctx := context.Background()

	if _, err := l.Place(ctx, "ana", game.SidePlayer, 5000); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Place(ctx, "bia", game.SideTie, 100); err != nil {
		t.Fatal(err)
	}
	l.Close()

	deltas, err := l.Settle(ctx, 4, game.OutcomeTie)
	if err != nil {
		t.Fatal(err)
	}
	got := map[string]int64{}
	for _, d := range deltas {
		got[d.PlayerID] = d.AmountCents
	}
	if got["ana"] != 0 {
		t.Fatalf("player bet on tie must push, delta=%d", got["ana"])
	}
	if got["bia"] != 800 {
		t.Fatalf("tie bet profit=%d want=800", got["bia"])
	}
	// push não chama o wallet
	if _, ok := bal.applied["settle:4:ana"]; ok {
		t.Fatal("push must not touch balance")
	}
}

func TestSettleRetryAfterFailure(t *testing.T) {
	store := newMemStore()
	bal := newMemBalance()
	l := newLedger(store, bal)
	l.Open(5)
	ctx := context.Background()

	if _, err := l.Place(ctx, "ana", game.SidePlayer, 100); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Place(ctx, "bia", game.SideBanker, 100); err != nil {
		t.Fatal(err)
	}
	l.Close()

	// primeira tentativa: store indisponível depois do wallet aplicado
	store.failMark = true
	if _, err := l.Settle(ctx, 5, game.OutcomeBanker); err == nil {
		t.Fatal("settle must fail while store is down")
	}

	// retry: wallet idempotente absorve a reaplicação, store marca agora
	store.failMark = false
	deltas, err := l.Settle(ctx, 5, game.OutcomeBanker)
	if err != nil {
		t.Fatal(err)
	}
	if len(deltas) != 2 {
		t.Fatalf("deltas=%v", deltas)
	}
	if bal.applied["settle:5:bia"] != 95 || bal.applied["settle:5:ana"] != -100 {
		t.Fatalf("applied=%v", bal.applied)
	}
	if store.markCalls != 2 {
		t.Fatalf("markCalls=%d", store.markCalls)
	}
}

// Recusa determinística do wallet (fundos insuficientes, carteira
// inexistente) não pode segurar a liquidação: o delta do jogador recusado é
// pulado e os demais são aplicados normalmente.
func TestSettleSkipsRejectedDelta(t *testing.T) {
	store := newMemStore()
	bal := newMemBalance()
	l := newLedger(store, bal)
	l.Open(6)
	ctx := context.Background()

	if _, err := l.Place(ctx, "ana", game.SidePlayer, 100); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Place(ctx, "bia", game.SideBanker, 100); err != nil {
		t.Fatal(err)
	}
	l.Close()

	// bia perde e a carteira dela recusa o débito em definitivo
	bal.rejectAt = "settle:6:bia"

	deltas, err := l.Settle(ctx, 6, game.OutcomePlayer)
	if err != nil {
		t.Fatalf("settle must succeed despite rejected delta: %v", err)
	}
	if len(deltas) != 1 || deltas[0].PlayerID != "ana" || deltas[0].AmountCents != 100 {
		t.Fatalf("deltas=%v want only ana +100", deltas)
	}
	if _, ok := bal.applied["settle:6:bia"]; ok {
		t.Fatal("rejected debit must not be applied")
	}

	// as apostas saíram do conjunto pendente: segunda chamada é no-op
	again, err := l.Settle(ctx, 6, game.OutcomePlayer)
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != 0 {
		t.Fatalf("second settle must be empty, got %v", again)
	}
	if store.markCalls != 1 {
		t.Fatalf("markCalls=%d want 1", store.markCalls)
	}
}

func TestSettleRejectsOpenRound(t *testing.T) {
	l := newLedger(newMemStore(), newMemBalance())
	l.Open(2)
	if _, err := l.Settle(context.Background(), 2, game.OutcomePlayer); err == nil {
		t.Fatal("settle on OPEN round must error")
	}
}

// Uma aposta correndo contra o Close ou entra inteira (durável e visível na
// liquidação) ou falha com ErrRoundClosed — nunca meio termo.
func TestPlaceRacingClose(t *testing.T) {
	store := newMemStore()
	l := newLedger(store, newMemBalance())
	l.Open(11)
	ctx := context.Background()

	const writers = 32
	var wg sync.WaitGroup
	results := make([]error, writers)
	start := make(chan struct{})
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, results[i] = l.Place(ctx, "p", game.SidePlayer, 10)
		}(i)
	}
	close(start)
	l.Close()
	wg.Wait()

	accepted := 0
	for _, err := range results {
		switch {
		case err == nil:
			accepted++
		case errors.Is(err, ErrRoundClosed):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	stored, err := store.UnsettledBets(ctx, 11)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != accepted {
		t.Fatalf("stored=%d accepted=%d", len(stored), accepted)
	}
	pools, _ := l.Pools()
	if pools[game.SidePlayer] != int64(accepted*10) {
		t.Fatalf("pool=%d accepted=%d", pools[game.SidePlayer], accepted)
	}
}
