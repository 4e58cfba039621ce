package markets

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/radieske/sports-bet-settlement/internal/closure"
	"github.com/radieske/sports-bet-settlement/internal/gamestate"
)

var ErrUnknownGame = errors.New("unknown game")

// Snapshots é a leitura rápida do estado (Redis)
type Snapshots interface {
	Get(ctx context.Context, gameID string) (gamestate.Game, bool, error)
}

// Games é a fonte autoritativa (Postgres); devolve ErrUnknownGame quando não existe
type Games interface {
	GetGame(ctx context.Context, gameID string) (gamestate.Game, error)
}

// Checker decide se ainda se aceita aposta numa partida
type Checker struct {
	Engine    *closure.Engine
	Snapshots Snapshots
	Games     Games
	Log       *zap.Logger
}

func NewChecker(e *closure.Engine, s Snapshots, g Games, log *zap.Logger) *Checker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Checker{Engine: e, Snapshots: s, Games: g, Log: log}
}

// Check retorna *closure.MarketClosedError quando o mercado está fechado
func (c *Checker) Check(ctx context.Context, gameID string) error {
	g, err := c.load(ctx, gameID)
	if err != nil {
		return err
	}
	return c.Engine.ValidateBetPlacement(g)
}

// load usa o cache e cai pro banco se não houver snapshot ou o Redis falhar
func (c *Checker) load(ctx context.Context, gameID string) (gamestate.Game, error) {
	if c.Snapshots != nil {
		g, ok, err := c.Snapshots.Get(ctx, gameID)
		if err != nil {
			c.Log.Warn("snapshot read failed, falling back to db", zap.String("gameId", gameID), zap.Error(err))
		} else if ok {
			return g, nil
		}
	}
	g, err := c.Games.GetGame(ctx, gameID)
	if err != nil {
		return gamestate.Game{}, fmt.Errorf("game %s: %w", gameID, err)
	}
	return g, nil
}
