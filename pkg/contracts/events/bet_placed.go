package events

type BetPlaced struct {
	BetID      string   `json:"bet_id"`
	UserID     string   `json:"user_id"`
	BetType    string   `json:"bet_type"`
	GameIDs    []string `json:"game_ids"`
	StakeCents int64    `json:"stake_cents"`
	Odds       int      `json:"odds,omitempty"` // americana; vazio em parlay
	TsUnixMs   int64    `json:"ts_unix_ms"`
}
