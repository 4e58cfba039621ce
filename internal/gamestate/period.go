package gamestate

import (
	"strconv"
	"strings"
	"unicode"
)

// Period é a leitura normalizada do rótulo de período do feed.
// Number é o número do período regular (1..n); Overtime cobre prorrogação,
// shootout e extra time.
type Period struct {
	Number   int
	Overtime bool
}

// ParsePeriod entende rótulos como "Q4", "4th", "2H", "H2", "P3", "Bottom 9th", "OT", "OT2", "ET", "SO"
func ParsePeriod(label string) Period {
	s := strings.ToUpper(strings.TrimSpace(label))
	if s == "" {
		return Period{}
	}
	for _, prefix := range []string{"OT", "SO", "ET", "OVERTIME", "EXTRA"} {
		if strings.HasPrefix(s, prefix) {
			return Period{Overtime: true}
		}
	}
	return Period{Number: firstNumber(s)}
}

// firstNumber extrai o primeiro inteiro do rótulo, 0 se não houver
func firstNumber(s string) int {
	start := -1
	for i, r := range s {
		if unicode.IsDigit(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			n, _ := strconv.Atoi(s[start:i])
			return n
		}
	}
	if start < 0 {
		return 0
	}
	n, _ := strconv.Atoi(s[start:])
	return n
}

// Canonical period keys usados em Result.Periods e nas apostas de período
const (
	PeriodQ1       = "Q1"
	PeriodQ2       = "Q2"
	PeriodQ3       = "Q3"
	PeriodQ4       = "Q4"
	PeriodH1       = "H1"
	PeriodH2       = "H2"
	PeriodOvertime = "OT"
	PeriodFullGame = "FG"
)

// InningKey gera a chave canônica de uma entrada do beisebol ("I1".."I9")
func InningKey(n int) string { return "I" + strconv.Itoa(n) }

// HockeyPeriodKey gera "P1".."P3"
func HockeyPeriodKey(n int) string { return "P" + strconv.Itoa(n) }

// SetKey gera "S1".."S5" do tênis
func SetKey(n int) string { return "S" + strconv.Itoa(n) }

// NormalizePeriodKey aceita variações ("1st half", "1h", "q1", "full") e retorna a chave canônica.
// Chaves desconhecidas voltam em maiúsculas, sem espaços.
func NormalizePeriodKey(key string) string {
	s := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(key), " ", ""))
	switch s {
	case "", "FG", "FULL", "FULLGAME", "GAME", "MATCH":
		return PeriodFullGame
	case "1H", "H1", "1STHALF", "FIRSTHALF":
		return PeriodH1
	case "2H", "H2", "2NDHALF", "SECONDHALF":
		return PeriodH2
	case "OT", "OVERTIME":
		return PeriodOvertime
	}
	return s
}
