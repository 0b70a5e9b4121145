// Package health serves liveness and readiness endpoints.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
)

// Checker is implemented by dependencies that can report their own health.
type Checker interface {
	HealthCheck(ctx context.Context) bool
}

func Liveness() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

type response struct {
	Status   string `json:"status"`
	Geocoder string `json:"geocoder"`
	Uptime   string `json:"uptime"`
}

// Health probes the geocoder and reports 503 when it is unreachable. Uptime
// is measured from the moment the handler is built.
func Health(geocoder Checker, clock clockwork.Clock, timeout time.Duration) http.HandlerFunc {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	startedAt := clock.Now()

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		out := response{Status: "healthy", Geocoder: "ok"}
		code := http.StatusOK
		if geocoder == nil || !geocoder.HealthCheck(ctx) {
			out.Status = "unhealthy"
			out.Geocoder = "unavailable"
			code = http.StatusServiceUnavailable
		}
		out.Uptime = clock.Since(startedAt).Round(time.Second).String()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(out)
	}
}
