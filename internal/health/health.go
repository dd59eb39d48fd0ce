// Package health serves liveness and readiness probes on the telemetry
// listener. /healthz always answers 200; /readyz answers 200 only while every
// registered probe passes, which for wisp means the synthesis API is
// reachable.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// probeTimeout bounds a single readiness probe.
const probeTimeout = 5 * time.Second

// Probe is one named readiness condition. Fn returns nil while the dependency
// is usable and must respect context cancellation.
type Probe struct {
	Name string
	Fn   func(ctx context.Context) error
}

// Handler answers /healthz and /readyz. The probe list is fixed at
// construction; the handler is safe for concurrent use.
type Handler struct {
	probes []Probe
}

// New builds a Handler evaluating the given probes in order on each /readyz
// request.
func New(probes ...Probe) *Handler {
	return &Handler{probes: append([]Probe(nil), probes...)}
}

// Register attaches the probe routes to mux. The signature matches the
// callback accepted by observe.ServeMetrics.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.healthz)
	mux.HandleFunc("GET /readyz", h.readyz)
}

// healthz reports liveness. A process that can serve HTTP is alive.
func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, http.StatusOK, "ok", nil)
}

// readyz runs every probe with a bounded context and reports 503 if any fail.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	probes := make(map[string]string, len(h.probes))
	status := http.StatusOK
	overall := "ok"

	for _, p := range h.probes {
		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		err := p.Fn(ctx)
		cancel()
		if err != nil {
			probes[p.Name] = "fail: " + err.Error()
			status = http.StatusServiceUnavailable
			overall = "fail"
		} else {
			probes[p.Name] = "ok"
		}
	}
	writeStatus(w, status, overall, probes)
}

func writeStatus(w http.ResponseWriter, status int, overall string, probes map[string]string) {
	body := struct {
		Status string            `json:"status"`
		Probes map[string]string `json:"probes,omitempty"`
	}{Status: overall, Probes: probes}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}
