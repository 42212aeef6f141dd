package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/radieske/baccarat-platform-poc/internal/wallet-service/dto"
	"github.com/radieske/baccarat-platform-poc/internal/wallet-service/repo"
)

// fakeRepo guarda saldos em memória e registra refs aplicados, espelhando a
// semântica de idempotência do repositório real.
type fakeRepo struct {
	balances map[string]int64
	applied  map[string]bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{balances: map[string]int64{}, applied: map[string]bool{}}
}

func (f *fakeRepo) GetOrCreateWallet(_ context.Context, playerID string) (string, int64, error) {
	return "w-" + playerID, f.balances[playerID], nil
}

func (f *fakeRepo) Deposit(_ context.Context, playerID string, amount int64, _ string) (string, int64, error) {
	f.balances[playerID] += amount
	return "w-" + playerID, f.balances[playerID], nil
}

func (f *fakeRepo) Credit(_ context.Context, playerID string, amount int64, ref string) (int64, bool, error) {
	return f.move(playerID, amount, ref)
}

func (f *fakeRepo) Debit(_ context.Context, playerID string, amount int64, ref string) (int64, bool, error) {
	if _, ok := f.balances[playerID]; !ok {
		return 0, false, repo.ErrNotFound
	}
	if !f.applied[playerID+ref] && f.balances[playerID] < amount {
		return 0, false, repo.ErrInsufficientFunds
	}
	return f.move(playerID, -amount, ref)
}

func (f *fakeRepo) move(playerID string, delta int64, ref string) (int64, bool, error) {
	key := playerID + ref
	if f.applied[key] {
		return f.balances[playerID], false, nil
	}
	f.applied[key] = true
	f.balances[playerID] += delta
	return f.balances[playerID], true, nil
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreditIsIdempotentPerRef(t *testing.T) {
	f := newFakeRepo()
	f.balances["ana"] = 0
	h := NewServer(zap.NewNop(), f).Router()

	req := dto.MoveRequest{PlayerID: "ana", AmountCents: 10000, ExternalRef: "settle:1:ana"}

	rec := postJSON(t, h, "/wallet/credit", req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first credit: status %d", rec.Code)
	}
	var res dto.MoveResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.Applied || res.BalanceCents != 10000 {
		t.Fatalf("first credit: applied=%v balance=%d", res.Applied, res.BalanceCents)
	}

	// mesmo ref: não aplica de novo, saldo não muda
	rec = postJSON(t, h, "/wallet/credit", req)
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode retry: %v", err)
	}
	if res.Applied || res.BalanceCents != 10000 {
		t.Fatalf("retry credit: applied=%v balance=%d", res.Applied, res.BalanceCents)
	}
}

func TestDebitInsufficientFundsConflict(t *testing.T) {
	f := newFakeRepo()
	f.balances["bia"] = 500
	h := NewServer(zap.NewNop(), f).Router()

	rec := postJSON(t, h, "/wallet/debit", dto.MoveRequest{
		PlayerID: "bia", AmountCents: 10000, ExternalRef: "settle:1:bia",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestDebitUnknownWalletNotFound(t *testing.T) {
	h := NewServer(zap.NewNop(), newFakeRepo()).Router()

	rec := postJSON(t, h, "/wallet/debit", dto.MoveRequest{
		PlayerID: "ghost", AmountCents: 100, ExternalRef: "settle:1:ghost",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestMoveRejectsInvalidPayload(t *testing.T) {
	h := NewServer(zap.NewNop(), newFakeRepo()).Router()

	cases := []dto.MoveRequest{
		{PlayerID: "", AmountCents: 100, ExternalRef: "r"},
		{PlayerID: "ana", AmountCents: 0, ExternalRef: "r"},
		{PlayerID: "ana", AmountCents: 100, ExternalRef: ""},
	}
	for i, c := range cases {
		if rec := postJSON(t, h, "/wallet/credit", c); rec.Code != http.StatusBadRequest {
			t.Fatalf("case %d: expected 400, got %d", i, rec.Code)
		}
	}
}
