package gamestate

import "time"

// Status é o estágio do ciclo de vida de uma partida
type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusLive     Status = "live"
	StatusFinished Status = "finished"
)

func (s Status) rank() int {
	switch s {
	case StatusUpcoming:
		return 0
	case StatusLive:
		return 1
	case StatusFinished:
		return 2
	}
	return -1
}

// Valid indica se o status pertence ao conjunto conhecido
func (s Status) Valid() bool { return s.rank() >= 0 }

// CanTransition diz se a partida pode ir de s para next.
// O ciclo só anda pra frente (upcoming -> live -> finished); repetir o mesmo status é permitido.
func (s Status) CanTransition(next Status) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	return next.rank() >= s.rank()
}

// Side identifica mandante ou visitante
type Side string

const (
	SideNone Side = ""
	SideHome Side = "home"
	SideAway Side = "away"
)

// Opposite retorna o outro lado
func (s Side) Opposite() Side {
	switch s {
	case SideHome:
		return SideAway
	case SideAway:
		return SideHome
	}
	return SideNone
}

// HalfInning do beisebol
type HalfInning string

const (
	HalfTop    HalfInning = "top"
	HalfBottom HalfInning = "bottom"
)

// LiveExtras carrega detalhes específicos de cada esporte usados só pelas regras de fechamento.
// Campos zerados significam "não informado pelo feed".
type LiveExtras struct {
	Possession Side `json:"possession,omitempty"` // basquete/futebol americano/hóquei

	// beisebol
	Inning int        `json:"inning,omitempty"`
	Half   HalfInning `json:"half,omitempty"`
	Outs   int        `json:"outs,omitempty"`

	// futebol americano
	Down int `json:"down,omitempty"`

	// hóquei
	GoaliePulled Side `json:"goaliePulled,omitempty"`

	// futebol
	StoppageTime bool `json:"stoppageTime,omitempty"`

	// tênis
	BestOf       int  `json:"bestOf,omitempty"`
	SetsHome     int  `json:"setsHome,omitempty"`
	SetsAway     int  `json:"setsAway,omitempty"`
	GamesHome    int  `json:"gamesHome,omitempty"`
	GamesAway    int  `json:"gamesAway,omitempty"`
	Server       Side `json:"server,omitempty"`
	MatchPointOn Side `json:"matchPointOn,omitempty"` // lado que tem match point no momento
}

// Game é o snapshot de uma partida num instante.
// HomeScore/AwayScore são nil antes da partida começar.
type Game struct {
	ID             string     `json:"id"`
	League         League     `json:"league"`
	Status         Status     `json:"status"`
	ScheduledStart time.Time  `json:"scheduledStart"`
	HomeScore      *int       `json:"homeScore,omitempty"`
	AwayScore      *int       `json:"awayScore,omitempty"`
	Period         string     `json:"period,omitempty"`
	Clock          string     `json:"clock,omitempty"`
	Extras         LiveExtras `json:"extras"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// HasFinalScore indica se os dois placares estão presentes
func (g Game) HasFinalScore() bool {
	return g.HomeScore != nil && g.AwayScore != nil
}

// Scores retorna os placares, tratando nil como zero
func (g Game) Scores() (home, away int) {
	if g.HomeScore != nil {
		home = *g.HomeScore
	}
	if g.AwayScore != nil {
		away = *g.AwayScore
	}
	return home, away
}

// Margin é a diferença absoluta de placar
func (g Game) Margin() int {
	h, a := g.Scores()
	if h > a {
		return h - a
	}
	return a - h
}

// Leader retorna o lado que está na frente, ou SideNone se empatado
func (g Game) Leader() Side {
	h, a := g.Scores()
	switch {
	case h > a:
		return SideHome
	case a > h:
		return SideAway
	}
	return SideNone
}

// ClockSeconds interpreta o relógio atual
func (g Game) ClockSeconds() (int, error) { return ParseClock(g.Clock) }

// Score é útil pra montar fixtures e eventos
func Score(v int) *int { return &v }
