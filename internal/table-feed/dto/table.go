package dto

import "time"

// TableState representa o estado atual da mesa exposto na API REST
// PhaseEndsAt é o deadline absoluto da fase corrente; SecondsLeft é derivado
// dele no momento da resposta, nunca congelado na escrita do cache
type TableState struct {
	RoundID     int64        `json:"roundId"`
	Phase       string       `json:"phase"`
	SecondsLeft int          `json:"secondsLeft"`
	PhaseEndsAt *time.Time   `json:"phaseEndsAt,omitempty"`
	Result      *RoundResult `json:"result,omitempty"`
}

// SecondsLeftFrom calcula os segundos restantes da fase em relação a now,
// arredondando pra cima e saturando em zero. Fases sem deadline (LOCKED,
// SETTLING) retornam zero.
func (s TableState) SecondsLeftFrom(now time.Time) int {
	if s.PhaseEndsAt == nil {
		return 0
	}
	d := s.PhaseEndsAt.Sub(now)
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

// RoundResult representa o resultado de uma rodada revelada
type RoundResult struct {
	PlayerCards []int  `json:"playerCards"`
	BankerCards []int  `json:"bankerCards"`
	PlayerTotal int    `json:"playerTotal"`
	BankerTotal int    `json:"bankerTotal"`
	Outcome     string `json:"outcome"`
}

// HistoryItem representa uma rodada liquidada no histórico da mesa
// (usado para montar o "roadmap" no cliente)
type HistoryItem struct {
	RoundID     int64  `json:"roundId"`
	Outcome     string `json:"outcome"`
	PlayerTotal int    `json:"playerTotal"`
	BankerTotal int    `json:"bankerTotal"`
	PlayerCards []int  `json:"playerCards"`
	BankerCards []int  `json:"bankerCards"`
	SettledAt   string `json:"settledAt"`
}
