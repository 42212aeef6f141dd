package dto

type WalletResponse struct {
	PlayerID     string `json:"playerId"`
	WalletID     string `json:"walletId"`
	BalanceCents int64  `json:"balance_cents"`
}

type MoveResponse struct {
	PlayerID     string `json:"playerId"`
	BalanceCents int64  `json:"balance_cents"`
	Applied      bool   `json:"applied"` // false quando o ref já tinha sido aplicado
}
