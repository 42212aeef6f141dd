package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/radieske/baccarat-platform-poc/internal/wallet-service/dto"
	"github.com/radieske/baccarat-platform-poc/internal/wallet-service/repo"
)

// Repo define a interface de operações de carteira usadas pelo handler HTTP
type Repo interface {
	GetOrCreateWallet(ctx context.Context, playerID string) (walletID string, balance int64, err error)
	Deposit(ctx context.Context, playerID string, amount int64, externalRef string) (walletID string, newBalance int64, err error)
	Credit(ctx context.Context, playerID string, amount int64, externalRef string) (newBalance int64, applied bool, err error)
	Debit(ctx context.Context, playerID string, amount int64, externalRef string) (newBalance int64, applied bool, err error)
}

// Server expõe endpoints HTTP para operações de carteira (wallet)
type Server struct {
	log  *zap.Logger
	repo Repo
}

// NewServer instancia o servidor HTTP de wallet
func NewServer(log *zap.Logger, repo Repo) *Server { return &Server{log: log, repo: repo} }

// Router retorna o mux HTTP com as rotas da API de wallet
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/wallet", s.getWallet)       // GET ?playerId=...
	mux.HandleFunc("/wallet/deposit", s.deposit) // POST
	mux.HandleFunc("/wallet/credit", s.credit)   // POST (liquidação)
	mux.HandleFunc("/wallet/debit", s.debit)     // POST (liquidação)
	return mux
}

// getWallet retorna (ou cria) a carteira e saldo do jogador
func (s *Server) getWallet(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		http.Error(w, "playerId required", http.StatusBadRequest)
		return
	}
	walletID, bal, err := s.repo.GetOrCreateWallet(r.Context(), playerID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, dto.WalletResponse{PlayerID: playerID, WalletID: walletID, BalanceCents: bal})
}

// deposit adiciona saldo à carteira do jogador
func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	var req dto.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.PlayerID == "" || req.AmountCents <= 0 {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	walletID, bal, err := s.repo.Deposit(r.Context(), req.PlayerID, req.AmountCents, req.ExternalRef)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, dto.WalletResponse{PlayerID: req.PlayerID, WalletID: walletID, BalanceCents: bal})
}

// credit aplica um crédito idempotente (chamado pela liquidação do engine)
func (s *Server) credit(w http.ResponseWriter, r *http.Request) {
	s.move(w, r, s.repo.Credit)
}

// debit aplica um débito idempotente (chamado pela liquidação do engine)
func (s *Server) debit(w http.ResponseWriter, r *http.Request) {
	s.move(w, r, s.repo.Debit)
}

func (s *Server) move(w http.ResponseWriter, r *http.Request, op func(context.Context, string, int64, string) (int64, bool, error)) {
	var req dto.MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.PlayerID == "" || req.AmountCents <= 0 || req.ExternalRef == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	bal, applied, err := op(r.Context(), req.PlayerID, req.AmountCents, req.ExternalRef)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			http.Error(w, "wallet not found", http.StatusNotFound)
		case errors.Is(err, repo.ErrInsufficientFunds):
			http.Error(w, "insufficient funds", http.StatusConflict)
		default:
			s.log.Error("wallet move", zap.Error(err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, dto.MoveResponse{PlayerID: req.PlayerID, BalanceCents: bal, Applied: applied})
}

// writeJSON serializa e envia resposta JSON
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
