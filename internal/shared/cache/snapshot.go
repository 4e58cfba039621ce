package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/sports-bet-settlement/internal/gamestate"
	"github.com/radieske/sports-bet-settlement/pkg/contracts/keys"
)

// Snapshots guarda o último estado conhecido de cada partida no Redis.
// Escrito pelo game-state-processor e lido pela bet-service na hora da aposta.
type Snapshots struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewSnapshots(c *redis.Client, ttl time.Duration) *Snapshots {
	return &Snapshots{Client: c, TTL: ttl}
}

// Set grava o snapshot com o TTL configurado
func (s *Snapshots) Set(ctx context.Context, g gamestate.Game) error {
	b, err := json.Marshal(g)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, keys.GameSnapshot(g.ID), b, s.TTL).Err()
}

// Get retorna o snapshot; ok=false se não estiver em cache
func (s *Snapshots) Get(ctx context.Context, gameID string) (gamestate.Game, bool, error) {
	b, err := s.Client.Get(ctx, keys.GameSnapshot(gameID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return gamestate.Game{}, false, nil
	}
	if err != nil {
		return gamestate.Game{}, false, err
	}
	var g gamestate.Game
	if err := json.Unmarshal(b, &g); err != nil {
		return gamestate.Game{}, false, err
	}
	return g, true, nil
}
