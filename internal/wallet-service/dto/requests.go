package dto

type DepositRequest struct {
	PlayerID    string `json:"playerId"`
	AmountCents int64  `json:"amount_cents"`
	ExternalRef string `json:"external_ref"`
}

type MoveRequest struct {
	PlayerID    string `json:"playerId"`
	AmountCents int64  `json:"amount_cents"`
	ExternalRef string `json:"external_ref"`
}
