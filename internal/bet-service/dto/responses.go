package dto

type PlaceBetResponse struct {
	BetID      string `json:"betId"`
	Status     string `json:"status"` // pending
	NewBalance *int64 `json:"new_balance,omitempty"`
	Message    string `json:"message,omitempty"`
}

type BetStatusResponse struct {
	BetID       string `json:"betId"`
	Status      string `json:"status"`
	PayoutCents int64  `json:"payout_cents"`
	Reason      string `json:"reason,omitempty"`
}

// MarketClosedResponse acompanha o 409 de mercado fechado
type MarketClosedResponse struct {
	Error    string `json:"error"`
	GameID   string `json:"gameId"`
	Reason   string `json:"reason"`
	Category string `json:"category"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
