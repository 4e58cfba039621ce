package queue

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Memory é a fila em memória usada em testes e execução local
type Memory struct {
	mu        sync.Mutex
	jobs      map[string]Job
	claimedAt map[string]time.Time
	completed int64
}

func NewMemory() *Memory {
	return &Memory{
		jobs:      map[string]Job{},
		claimedAt: map[string]time.Time{},
	}
}

func (m *Memory) Enqueue(_ context.Context, j Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// agendado pra depois da criação conta como atrasado até um Dequeue promover
	if j.State != StateDelayed {
		j.State = StateWaiting
		if j.RunAt.After(j.CreatedAt) {
			j.State = StateDelayed
		}
	}
	m.jobs[j.ID] = j
	return nil
}

func (m *Memory) Dequeue(_ context.Context, now time.Time) (Job, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var best *Job
	for id := range m.jobs {
		j := m.jobs[id]
		if j.State != StateWaiting && j.State != StateDelayed {
			continue
		}
		if j.RunAt.After(now) {
			continue
		}
		if j.State == StateDelayed {
			j.State = StateWaiting
			m.jobs[id] = j
		}
		if best == nil || j.readyScore() < best.readyScore() ||
			(j.readyScore() == best.readyScore() && j.CreatedAt.Before(best.CreatedAt)) {
			jj := j
			best = &jj
		}
	}
	if best == nil {
		return Job{}, false, nil
	}
	out := best.withState(StateActive, now)
	m.jobs[out.ID] = out
	m.claimedAt[out.ID] = now
	return out, true, nil
}

func (m *Memory) active(id string) (Job, error) {
	j, ok := m.jobs[id]
	if !ok || j.State != StateActive {
		return Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return j, nil
}

func (m *Memory) Complete(_ context.Context, j Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.active(j.ID); err != nil {
		return err
	}
	delete(m.jobs, j.ID)
	delete(m.claimedAt, j.ID)
	m.completed++
	return nil
}

func (m *Memory) Retry(_ context.Context, j Job, runAt time.Time, cause error) (Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, err := m.active(j.ID)
	if err != nil {
		return Job{}, err
	}
	next := cur.retried(runAt, cause, time.Now().UTC())
	delete(m.jobs, cur.ID)
	delete(m.claimedAt, cur.ID)
	m.jobs[next.ID] = next
	return next, nil
}

func (m *Memory) Fail(_ context.Context, j Job, cause error) (Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, err := m.active(j.ID)
	if err != nil {
		return Job{}, err
	}
	out := cur.failed(cause, time.Now().UTC())
	m.jobs[out.ID] = out
	delete(m.claimedAt, out.ID)
	return out, nil
}

func (m *Memory) RequeueStale(_ context.Context, olderThan time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, at := range m.claimedAt {
		if !at.Before(olderThan) {
			continue
		}
		j := m.jobs[id]
		m.jobs[id] = j.withState(StateWaiting, time.Now().UTC())
		delete(m.claimedAt, id)
		n++
	}
	return n, nil
}

func (m *Memory) Stats(_ context.Context) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := Stats{Completed: m.completed}
	for _, j := range m.jobs {
		switch j.State {
		case StateWaiting:
			s.Waiting++
		case StateDelayed:
			s.Delayed++
		case StateActive:
			s.Active++
		case StateFailed:
			s.Failed++
		}
	}
	return s, nil
}

func (m *Memory) Failed(_ context.Context, limit int) ([]Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Job
	for _, j := range m.jobs {
		if j.State == StateFailed {
			out = append(out, j)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].UpdatedAt.After(out[b].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ Queue = (*Memory)(nil)
