package events

type BetPlaced struct {
	BetID       string `json:"bet_id"`
	RoundID     int64  `json:"round_id"`
	PlayerID    string `json:"player_id"`
	Side        string `json:"side"` // PLAYER | BANKER | TIE
	AmountCents int64  `json:"amount_cents"`
	TsUnixMs    int64  `json:"ts_unix_ms"`
}
