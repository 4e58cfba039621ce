package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/radieske/sports-bet-settlement/internal/settlement"
	"github.com/radieske/sports-bet-settlement/internal/settlement/queue"
)

// Jobs é o que a API usa do orquestrador
type Jobs interface {
	Stats(ctx context.Context) (queue.Stats, error)
	Failed(ctx context.Context, limit int) ([]queue.Job, error)
	Enqueue(ctx context.Context, kind queue.Kind, gameID string, priority int) (queue.Job, error)
}

// Recurring lista os jobs recorrentes registrados no cron
type Recurring interface {
	Definitions() []settlement.Definition
}

// API administrativa do settlement-worker: introspecção da fila e disparos manuais
type API struct {
	Jobs      Jobs
	Recurring Recurring
}

// Router retorna o roteador HTTP com os endpoints administrativos
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/jobs/stats", a.stats)              // contagem por estado
	r.Get("/v1/jobs/recurring", a.recurring)      // jobs do cron
	r.Get("/v1/jobs/failed", a.failed)            // jobs que esgotaram as tentativas
	r.Post("/v1/games/{id}/settle", a.settleGame) // força liquidação de uma partida
	r.Post("/v1/sweep", a.sweep)                  // varredura imediata
	return r
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *API) stats(w http.ResponseWriter, r *http.Request) {
	s, err := a.Jobs.Stats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (a *API) recurring(w http.ResponseWriter, _ *http.Request) {
	defs := a.Recurring.Definitions()
	if defs == nil {
		defs = []settlement.Definition{}
	}
	writeJSON(w, http.StatusOK, defs)
}

func (a *API) failed(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = n
	}
	jobs, err := a.Jobs.Failed(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if jobs == nil {
		jobs = []queue.Job{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (a *API) settleGame(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	j, err := a.Jobs.Enqueue(r.Context(), queue.KindSettleGame, id, queue.PriorityImmediate)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, j)
}

func (a *API) sweep(w http.ResponseWriter, r *http.Request) {
	j, err := a.Jobs.Enqueue(r.Context(), queue.KindSweep, "", queue.PriorityNormal)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, j)
}
