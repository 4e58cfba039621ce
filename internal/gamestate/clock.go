package gamestate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrEmptyClock   = errors.New("clock not reported")
	ErrInvalidClock = errors.New("invalid clock")
)

// ParseClock converte o relógio do feed em segundos inteiros.
// Formatos aceitos: "MM:SS", "M:SS.s", segundos puros ("25", "9.8") e
// acréscimo do futebol ("90+3", minutos decorridos mais acréscimo).
// Frações de segundo são descartadas.
func ParseClock(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, ErrEmptyClock
	}
	s = strings.TrimSuffix(s, "'")

	if base, extra, ok := strings.Cut(s, "+"); ok {
		m, err := parseWhole(base)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
		}
		add, err := parseWhole(extra)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
		}
		return (m + add) * 60, nil
	}

	if mm, ss, ok := strings.Cut(s, ":"); ok {
		m, err := parseWhole(mm)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
		}
		sec, err := parseSeconds(ss)
		if err != nil || sec >= 60 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
		}
		return m*60 + sec, nil
	}

	sec, err := parseSeconds(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
	}
	return sec, nil
}

// IsStoppageClock indica relógio no formato de acréscimo ("90+2")
func IsStoppageClock(raw string) bool {
	return strings.Contains(raw, "+")
}

func parseWhole(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, ErrInvalidClock
	}
	return v, nil
}

func parseSeconds(s string) (int, error) {
	s = strings.TrimSpace(s)
	if whole, _, ok := strings.Cut(s, "."); ok {
		s = whole
	}
	return parseWhole(s)
}
