package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrLockHeld = errors.New("lock held")

// unlockLua só apaga a chave se o token ainda for o do dono
const unlockLua = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`

// Locker é um lock distribuído simples: SETNX com TTL e liberação condicional
type Locker struct {
	rdb      *redis.Client
	unlockSc *redis.Script
}

func NewLocker(rdb *redis.Client) *Locker {
	return &Locker{rdb: rdb, unlockSc: redis.NewScript(unlockLua)}
}

// Acquire tenta obter o lock; ErrLockHeld se outro processo já o tem.
// A função devolvida libera o lock e pode ser chamada mais de uma vez.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()

	ok, err := l.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true

		// contexto próprio: libera mesmo se o do chamador já foi cancelado
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = l.unlockSc.Run(ctx, l.rdb, []string{key}, token).Err()
	}, nil
}
