package httpapi

type PlaceBetRequest struct {
	PlayerID    string `json:"player_id"`
	Side        string `json:"side"` // PLAYER | BANKER | TIE
	AmountCents int64  `json:"amount_cents"`
}

type PlaceBetResponse struct {
	BetID   string `json:"bet_id"`
	RoundID int64  `json:"round_id"`
	Status  string `json:"status"`
}

type Pools struct {
	Player int64 `json:"player"`
	Banker int64 `json:"banker"`
	Tie    int64 `json:"tie"`
}

type Result struct {
	PlayerCards []int  `json:"player_cards"`
	BankerCards []int  `json:"banker_cards"`
	PlayerTotal int    `json:"player_total"`
	BankerTotal int    `json:"banker_total"`
	PlayerDraw3 bool   `json:"player_draw3"`
	BankerDraw3 bool   `json:"banker_draw3"`
	Outcome     string `json:"outcome"`
}

type StateResponse struct {
	RoundID     int64   `json:"round_id"`
	Phase       string  `json:"phase"`
	SecondsLeft int     `json:"seconds_left"`
	Bettors     int     `json:"bettors"`
	Pools       Pools   `json:"pools"`
	Result      *Result `json:"result,omitempty"`
}
