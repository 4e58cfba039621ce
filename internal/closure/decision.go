package closure

import "fmt"

// Category classifica o motivo do fechamento do mercado
type Category string

const (
	CategoryNone                Category = ""
	CategoryTimeThreshold       Category = "time_threshold"
	CategoryScoreMargin         Category = "score_margin"
	CategoryGameContext         Category = "game_context"
	CategoryCommercialCertainty Category = "commercial_certainty"
)

// Decision é o veredito efêmero (não persistido) sobre aceitar ou não novas apostas
type Decision struct {
	Closed   bool     `json:"closed"`
	Reason   string   `json:"reason"`
	Category Category `json:"category,omitempty"`
}

func open(reason string) Decision { return Decision{Reason: reason} }

func closed(c Category, format string, args ...any) Decision {
	return Decision{Closed: true, Category: c, Reason: fmt.Sprintf(format, args...)}
}

// MarketClosedError é devolvido ao fluxo de colocação quando o mercado não aceita apostas
type MarketClosedError struct {
	GameID   string
	Reason   string
	Category Category
}

func (e *MarketClosedError) Error() string {
	return e.Reason
}
