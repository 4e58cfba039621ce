package grading

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DecimalOdds converte odd americana em multiplicador decimal (stake incluso).
// +150 -> 2.5; -110 -> 1.9090...
func DecimalOdds(american int) (decimal.Decimal, error) {
	switch {
	case american >= 100:
		return decimal.NewFromInt(int64(american)).Div(hundred).Add(decimal.NewFromInt(1)), nil
	case american <= -100:
		return hundred.Div(decimal.NewFromInt(int64(-american))).Add(decimal.NewFromInt(1)), nil
	}
	return decimal.Zero, fmt.Errorf("%w: %d", ErrInvalidOdds, american)
}

// Multiplier é o fator aplicado ao stake pra um status já resolvido
func Multiplier(s Status, american int) (decimal.Decimal, error) {
	switch s {
	case StatusWon:
		return DecimalOdds(american)
	case StatusPush, StatusVoid:
		return decimal.NewFromInt(1), nil
	}
	return decimal.Zero, nil
}

// Payout em centavos; frações de centavo são truncadas a favor da casa
func Payout(stakeCents int64, s Status, multiplier decimal.Decimal) int64 {
	switch {
	case s == StatusWon:
		return decimal.NewFromInt(stakeCents).Mul(multiplier).Floor().IntPart()
	case s.Refund():
		return stakeCents
	}
	return 0
}
