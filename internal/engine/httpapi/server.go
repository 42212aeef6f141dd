package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/radieske/baccarat-platform-poc/internal/engine/game"
	"github.com/radieske/baccarat-platform-poc/internal/engine/ledger"
	"github.com/radieske/baccarat-platform-poc/internal/engine/round"
	"github.com/radieske/baccarat-platform-poc/pkg/contracts/events"
)

// Server expõe a borda de transporte do engine: aposta e estado da mesa.
// Autenticação fica fora do core; o playerId chega resolvido no payload.
type Server struct {
	log     *zap.Logger
	ledger  *ledger.Ledger
	machine *round.Machine
	publ    interface {
		PublishBetPlaced(context.Context, events.BetPlaced) error
	}

	// callbacks de métrica (counter++), ligadas no main
	OnAccepted func()
	OnRejected func(reason string)
}

func NewServer(log *zap.Logger, l *ledger.Ledger, m *round.Machine, p interface {
	PublishBetPlaced(context.Context, events.BetPlaced) error
}) *Server {
	return &Server{log: log, ledger: l, machine: m, publ: p}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/bets", s.placeBet)  // POST
	mux.HandleFunc("/state", s.getState) // GET
	return mux
}

func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.reject(w, "bad_json", "bad json", http.StatusBadRequest)
		return
	}
	if req.PlayerID == "" {
		s.reject(w, "invalid_payload", "invalid payload", http.StatusBadRequest)
		return
	}
	side, err := game.ParseSide(req.Side)
	if err != nil {
		s.reject(w, "invalid_side", "invalid side", http.StatusBadRequest)
		return
	}

	bet, err := s.ledger.Place(r.Context(), req.PlayerID, side, req.AmountCents)
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount):
		s.reject(w, "invalid_amount", "invalid amount", http.StatusBadRequest)
		return
	case errors.Is(err, ledger.ErrRoundClosed):
		// fora da janela de apostas: o cliente espera a próxima rodada
		s.reject(w, "round_closed", "round closed", http.StatusConflict)
		return
	case err != nil:
		s.log.Error("place bet", zap.Error(err))
		s.reject(w, "internal", "internal error", http.StatusInternalServerError)
		return
	}

	if s.OnAccepted != nil {
		s.OnAccepted()
	}

	_ = s.publ.PublishBetPlaced(r.Context(), events.BetPlaced{
		BetID:       bet.ID,
		RoundID:     bet.RoundID,
		PlayerID:    bet.PlayerID,
		Side:        string(bet.Side),
		AmountCents: bet.AmountCents,
	})

	writeJSON(w, PlaceBetResponse{
		BetID:   bet.ID,
		RoundID: bet.RoundID,
		Status:  "ACCEPTED",
	})
}

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snap := s.machine.Snapshot()
	pools, bettors := s.ledger.Pools()

	resp := StateResponse{
		RoundID:     snap.RoundID,
		Phase:       string(snap.Phase),
		SecondsLeft: snap.SecondsLeft,
		Bettors:     bettors,
		Pools: Pools{
			Player: pools[game.SidePlayer],
			Banker: pools[game.SideBanker],
			Tie:    pools[game.SideTie],
		},
	}
	if snap.Result != nil {
		resp.Result = &Result{
			PlayerCards: cards(snap.Result.PlayerHand),
			BankerCards: cards(snap.Result.BankerHand),
			PlayerTotal: snap.Result.PlayerTotal,
			BankerTotal: snap.Result.BankerTotal,
			PlayerDraw3: snap.Result.PlayerDraw3,
			BankerDraw3: snap.Result.BankerDraw3,
			Outcome:     string(snap.Result.Outcome),
		}
	}
	writeJSON(w, resp)
}

func (s *Server) reject(w http.ResponseWriter, reason, msg string, status int) {
	if s.OnRejected != nil {
		s.OnRejected(reason)
	}
	http.Error(w, msg, status)
}

func cards(h game.Hand) []int {
	out := make([]int, len(h))
	for i, c := range h {
		out[i] = int(c)
	}
	return out
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
