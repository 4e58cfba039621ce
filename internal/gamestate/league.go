package gamestate

import (
	"strings"
	"time"
)

// League identifica a competição de uma partida
type League string

const (
	LeagueNBA   League = "NBA"
	LeagueWNBA  League = "WNBA"
	LeagueNCAAB League = "NCAAB"
	LeagueNFL   League = "NFL"
	LeagueNCAAF League = "NCAAF"
	LeagueMLB   League = "MLB"
	LeagueNHL   League = "NHL"
	LeagueEPL   League = "EPL"
	LeagueMLS   League = "MLS"
	LeagueUCL   League = "UCL"
	LeagueATP   League = "ATP"
	LeagueWTA   League = "WTA"
)

// Sport agrupa ligas que compartilham regras de fechamento e de duração
type Sport string

const (
	SportUnknown    Sport = ""
	SportBasketball Sport = "basketball"
	SportFootball   Sport = "football"
	SportBaseball   Sport = "baseball"
	SportHockey     Sport = "hockey"
	SportSoccer     Sport = "soccer"
	SportTennis     Sport = "tennis"
)

// ParseLeague normaliza o identificador que vem do feed ("nba", " Nba ")
func ParseLeague(s string) League {
	return League(strings.ToUpper(strings.TrimSpace(s)))
}

// Sport retorna o esporte da liga; ligas desconhecidas retornam SportUnknown
func (l League) Sport() Sport {
	switch l {
	case LeagueNBA, LeagueWNBA, LeagueNCAAB:
		return SportBasketball
	case LeagueNFL, LeagueNCAAF:
		return SportFootball
	case LeagueMLB:
		return SportBaseball
	case LeagueNHL:
		return SportHockey
	case LeagueEPL, LeagueMLS, LeagueUCL:
		return SportSoccer
	case LeagueATP, LeagueWTA:
		return SportTennis
	}
	return SportUnknown
}

// TieEligible indica se o resultado final pode terminar empatado
func (l League) TieEligible() bool {
	return l.Sport() == SportSoccer
}

// PlausibleDuration é o tempo máximo razoável entre o início agendado e o fim da partida.
// Usado pela varredura pra detectar partidas presas em "live".
func (l League) PlausibleDuration() time.Duration {
	switch l.Sport() {
	case SportBasketball:
		return 4 * time.Hour
	case SportFootball:
		return 5 * time.Hour
	case SportBaseball:
		return 6 * time.Hour
	case SportHockey:
		return 4 * time.Hour
	case SportSoccer:
		return 3 * time.Hour
	case SportTennis:
		return 6 * time.Hour
	}
	return 8 * time.Hour
}
