package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HealthFunc func(ctx context.Context) error

// Handler expõe /metrics e /healthz; cada healthFn tem 500ms pra responder
func Handler(healthFns ...HealthFunc) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()

		for _, fn := range healthFns {
			if err := fn(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(fmt.Sprintf("unhealthy: %v", err)))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// StartMetricsServer sobe um servidor HTTP leve só pra /metrics e /healthz.
// Roda numa goroutine; o main chama Shutdown no encerramento.
func StartMetricsServer(port string, healthFns ...HealthFunc) *http.Server {
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: Handler(healthFns...),
	}

	go func() {
		_ = srv.ListenAndServe()
	}()

	return srv
}
