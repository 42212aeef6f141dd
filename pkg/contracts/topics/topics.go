package topics

const (
	// Rounds
	RoundUpdates = "round_updates"

	// Bets
	BetPlaced = "bet_placed"

	// DLQs
	RoundUpdatesDLQ = "round_updates_dlq"
)
