package closure

import (
	"fmt"

	"github.com/radieske/sports-bet-settlement/internal/gamestate"
)

// TennisThresholds: tênis não tem relógio nem placar de pontos corrido; as regras olham sets e games
type TennisThresholds struct {
	DefaultBestOf int
	// games mínimos no set atual pra considerar que alguém "saca pelo jogo"
	ServeForMatchGames int
	// vantagem de games no set decisivo que encerra o mercado
	GameLead int
}

func DefaultTennisThresholds() TennisThresholds {
	return TennisThresholds{DefaultBestOf: 3, ServeForMatchGames: 5, GameLead: 4}
}

type tennisRule struct {
	th TennisThresholds
}

func NewTennisRule(th TennisThresholds) Rule {
	return &tennisRule{th: th}
}

func (r *tennisRule) Evaluate(g gamestate.Game) (Decision, error) {
	x := g.Extras
	bestOf := x.BestOf
	if bestOf == 0 {
		bestOf = r.th.DefaultBestOf
	}
	if bestOf < 1 || bestOf%2 == 0 {
		return Decision{}, fmt.Errorf("tennis: invalid best of %d", bestOf)
	}
	setsToWin := bestOf/2 + 1

	// período de fechamento: alguém está a um set da vitória
	if x.SetsHome < setsToWin-1 && x.SetsAway < setsToWin-1 {
		return open(fmt.Sprintf("tennis: sets %d-%d", x.SetsHome, x.SetsAway)), nil
	}

	for _, side := range []gamestate.Side{gamestate.SideHome, gamestate.SideAway} {
		sets, games, opp := x.SetsHome, x.GamesHome, x.GamesAway
		if side == gamestate.SideAway {
			sets, games, opp = x.SetsAway, x.GamesAway, x.GamesHome
		}
		if sets < setsToWin-1 {
			continue
		}
		if x.Server == side && games >= r.th.ServeForMatchGames && games > opp {
			return closed(CategoryGameContext, "%s serving for the match at %d-%d", side, games, opp), nil
		}
		if games >= r.th.ServeForMatchGames && games-opp >= r.th.GameLead {
			return closed(CategoryScoreMargin, "%s leads the deciding set %d-%d", side, games, opp), nil
		}
	}

	if x.MatchPointOn != gamestate.SideNone {
		return closed(CategoryGameContext, "match point %s", x.MatchPointOn), nil
	}
	return open(fmt.Sprintf("tennis: sets %d-%d, games %d-%d", x.SetsHome, x.SetsAway, x.GamesHome, x.GamesAway)), nil
}
