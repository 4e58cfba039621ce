package topics

const (
	// Estado das partidas
	GameStateUpdates = "game_state_updates"

	// Bets
	BetPlaced  = "bet_placed"
	BetSettled = "bet_settled"

	// DLQs
	GameStateUpdatesDLQ = "game_state_updates_dlq"
	SettlementJobsDLQ   = "settlement_jobs_dlq"
)
