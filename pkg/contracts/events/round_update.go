package events

import "time"

// Evento publicado no tópico "round_updates" a cada transição de fase da mesa.
type RoundUpdate struct {
	RoundID      int64     `json:"round_id"`
	Phase        string    `json:"phase"` // OPEN | LOCKED | REVEALING | SETTLING | CLOSED
	SecondsLeft  int       `json:"seconds_left"`
	Result       *Result   `json:"result,omitempty"`     // presente a partir de REVEALING
	Settlement   *Payouts  `json:"settlement,omitempty"` // presente em CLOSED
	TransitionAt time.Time `json:"transition_at"`
}

// Result carrega o desfecho de uma rodada revelada.
type Result struct {
	PlayerCards []int  `json:"player_cards"`
	BankerCards []int  `json:"banker_cards"`
	PlayerTotal int    `json:"player_total"`
	BankerTotal int    `json:"banker_total"`
	PlayerDraw3 bool   `json:"player_draw3"`
	BankerDraw3 bool   `json:"banker_draw3"`
	Outcome     string `json:"outcome"` // PLAYER | BANKER | TIE
}

// Payouts resume a liquidação de uma rodada.
type Payouts struct {
	BetCount    int   `json:"bet_count"`
	PlayerCount int   `json:"player_count"`
	TotalCents  int64 `json:"total_cents"` // soma líquida dos deltas aplicados
}
