package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyReady     = "settlement:queue:ready"
	keyDelayed   = "settlement:queue:delayed"
	keyActive    = "settlement:queue:active"
	keyFailed    = "settlement:queue:failed"
	keyCompleted = "settlement:queue:completed"

	promoteBatch = 100
)

func jobKey(id string) string { return "settlement:job:" + id }

// moveLua move um membro entre sorted sets somente se ele ainda estiver na origem
const moveLua = `
if redis.call('ZREM', KEYS[1], ARGV[1]) == 1 then
    redis.call('ZADD', KEYS[2], ARGV[2], ARGV[1])
    return 1
end
return 0
`

// claimLua retira o próximo job pronto e o registra como ativo na mesma operação
const claimLua = `
local r = redis.call('ZPOPMIN', KEYS[1])
if #r == 0 then
    return false
end
redis.call('ZADD', KEYS[2], ARGV[1], r[1])
return r[1]
`

// completeLua só apaga o registro se o job ainda estava ativo.
// Um job devolvido pelo RequeueStale já pertence a outro worker.
const completeLua = `
if redis.call('ZREM', KEYS[1], ARGV[1]) == 1 then
    redis.call('DEL', KEYS[2])
    redis.call('INCR', KEYS[3])
    return 1
end
return 0
`

// finishLua tira o job de active e grava o registro seguinte no set de destino.
// KEYS: active, registro atual, registro novo, destino. ARGV: id atual, id novo, json, score
const finishLua = `
if redis.call('ZREM', KEYS[1], ARGV[1]) == 1 then
    if KEYS[2] ~= KEYS[3] then
        redis.call('DEL', KEYS[2])
    end
    redis.call('SET', KEYS[3], ARGV[3])
    redis.call('ZADD', KEYS[4], ARGV[4], ARGV[2])
    return 1
end
return 0
`

// Redis implementa Queue sobre sorted sets:
// ready (prioridade), delayed (runAt), active (claim) e failed (horário da falha).
type Redis struct {
	rdb        *redis.Client
	moveSc     *redis.Script
	claimSc    *redis.Script
	completeSc *redis.Script
	finishSc   *redis.Script
}

func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{
		rdb:        rdb,
		moveSc:     redis.NewScript(moveLua),
		claimSc:    redis.NewScript(claimLua),
		completeSc: redis.NewScript(completeLua),
		finishSc:   redis.NewScript(finishLua),
	}
}

func (q *Redis) save(ctx context.Context, p redis.Pipeliner, j Job) error {
	b, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("redis: encode job %s: %w", j.ID, err)
	}
	p.Set(ctx, jobKey(j.ID), b, 0)
	return nil
}

func (q *Redis) load(ctx context.Context, id string) (Job, error) {
	b, err := q.rdb.Get(ctx, jobKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if err != nil {
		return Job{}, fmt.Errorf("redis: get job %s: %w", id, err)
	}
	var j Job
	if err := json.Unmarshal(b, &j); err != nil {
		return Job{}, fmt.Errorf("redis: decode job %s: %w", id, err)
	}
	return j, nil
}

func (q *Redis) Enqueue(ctx context.Context, j Job) error {
	now := time.Now()
	delayed := j.RunAt.After(now)
	if delayed {
		j.State = StateDelayed
	} else {
		j.State = StateWaiting
	}

	_, err := q.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		if err := q.save(ctx, p, j); err != nil {
			return err
		}
		if delayed {
			p.ZAdd(ctx, keyDelayed, redis.Z{Score: float64(j.RunAt.UnixMilli()), Member: j.ID})
		} else {
			p.ZAdd(ctx, keyReady, redis.Z{Score: j.readyScore(), Member: j.ID})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: enqueue %s: %w", j.ID, err)
	}
	return nil
}

// promote move pra ready os jobs atrasados cujo horário já chegou
func (q *Redis) promote(ctx context.Context, now time.Time) error {
	ids, err := q.rdb.ZRangeByScore(ctx, keyDelayed, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.UnixMilli(), 10),
		Count: promoteBatch,
	}).Result()
	if err != nil {
		return fmt.Errorf("redis: scan delayed: %w", err)
	}
	for _, id := range ids {
		j, err := q.load(ctx, id)
		if errors.Is(err, ErrJobNotFound) {
			q.rdb.ZRem(ctx, keyDelayed, id)
			continue
		}
		if err != nil {
			return err
		}
		if err := q.moveSc.Run(ctx, q.rdb, []string{keyDelayed, keyReady}, id, j.readyScore()).Err(); err != nil {
			return fmt.Errorf("redis: promote %s: %w", id, err)
		}
	}
	return nil
}

func (q *Redis) Dequeue(ctx context.Context, now time.Time) (Job, bool, error) {
	if err := q.promote(ctx, now); err != nil {
		return Job{}, false, err
	}

	id, err := q.claimSc.Run(ctx, q.rdb, []string{keyReady, keyActive}, now.UnixMilli()).Text()
	if errors.Is(err, redis.Nil) {
		return Job{}, false, nil
	}
	if err != nil {
		return Job{}, false, fmt.Errorf("redis: claim: %w", err)
	}

	j, err := q.load(ctx, id)
	if err != nil {
		q.rdb.ZRem(ctx, keyActive, id)
		return Job{}, false, err
	}
	j = j.withState(StateActive, now.UTC())
	if _, err := q.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		return q.save(ctx, p, j)
	}); err != nil {
		return Job{}, false, fmt.Errorf("redis: mark active %s: %w", id, err)
	}
	return j, true, nil
}

func (q *Redis) Complete(ctx context.Context, j Job) error {
	done, err := q.completeSc.Run(ctx, q.rdb, []string{keyActive, jobKey(j.ID), keyCompleted}, j.ID).Int()
	if err != nil {
		return fmt.Errorf("redis: complete %s: %w", j.ID, err)
	}
	if done == 0 {
		return fmt.Errorf("%w: %s", ErrJobNotFound, j.ID)
	}
	return nil
}

// finish aplica finishLua; ErrJobNotFound quando o job não está mais ativo
func (q *Redis) finish(ctx context.Context, cur, next Job, dest string, score float64) error {
	b, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("redis: encode job %s: %w", next.ID, err)
	}
	keys := []string{keyActive, jobKey(cur.ID), jobKey(next.ID), dest}
	done, err := q.finishSc.Run(ctx, q.rdb, keys, cur.ID, next.ID, b, score).Int()
	if err != nil {
		return err
	}
	if done == 0 {
		return fmt.Errorf("%w: %s", ErrJobNotFound, cur.ID)
	}
	return nil
}

func (q *Redis) Retry(ctx context.Context, j Job, runAt time.Time, cause error) (Job, error) {
	next := j.retried(runAt, cause, time.Now().UTC())
	if err := q.finish(ctx, j, next, keyDelayed, float64(next.RunAt.UnixMilli())); err != nil {
		return Job{}, fmt.Errorf("redis: retry %s: %w", j.ID, err)
	}
	return next, nil
}

func (q *Redis) Fail(ctx context.Context, j Job, cause error) (Job, error) {
	out := j.failed(cause, time.Now().UTC())
	if err := q.finish(ctx, j, out, keyFailed, float64(out.UpdatedAt.UnixMilli())); err != nil {
		return Job{}, fmt.Errorf("redis: fail %s: %w", j.ID, err)
	}
	return out, nil
}

func (q *Redis) RequeueStale(ctx context.Context, olderThan time.Time) (int, error) {
	ids, err := q.rdb.ZRangeByScore(ctx, keyActive, &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(olderThan.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("redis: scan active: %w", err)
	}

	n := 0
	for _, id := range ids {
		j, err := q.load(ctx, id)
		if errors.Is(err, ErrJobNotFound) {
			q.rdb.ZRem(ctx, keyActive, id)
			continue
		}
		if err != nil {
			return n, err
		}
		moved, err := q.moveSc.Run(ctx, q.rdb, []string{keyActive, keyReady}, id, j.readyScore()).Int()
		if err != nil {
			return n, fmt.Errorf("redis: requeue %s: %w", id, err)
		}
		if moved == 0 {
			continue
		}
		j = j.withState(StateWaiting, time.Now().UTC())
		if _, err := q.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
			return q.save(ctx, p, j)
		}); err != nil {
			return n, fmt.Errorf("redis: mark waiting %s: %w", id, err)
		}
		n++
	}
	return n, nil
}

func (q *Redis) Stats(ctx context.Context) (Stats, error) {
	var (
		ready, delayed, active, failed *redis.IntCmd
		completed                      *redis.StringCmd
	)
	_, err := q.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		ready = p.ZCard(ctx, keyReady)
		delayed = p.ZCard(ctx, keyDelayed)
		active = p.ZCard(ctx, keyActive)
		failed = p.ZCard(ctx, keyFailed)
		completed = p.Get(ctx, keyCompleted)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return Stats{}, fmt.Errorf("redis: stats: %w", err)
	}
	s := Stats{
		Waiting: ready.Val(),
		Delayed: delayed.Val(),
		Active:  active.Val(),
		Failed:  failed.Val(),
	}
	if v, err := completed.Int64(); err == nil {
		s.Completed = v
	}
	return s, nil
}

func (q *Redis) Failed(ctx context.Context, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 50
	}
	ids, err := q.rdb.ZRevRange(ctx, keyFailed, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: list failed: %w", err)
	}
	out := make([]Job, 0, len(ids))
	for _, id := range ids {
		j, err := q.load(ctx, id)
		if errors.Is(err, ErrJobNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, nil
}

var _ Queue = (*Redis)(nil)
