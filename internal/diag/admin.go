package diag

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chatrelay/chat-relay/internal/concurrent/pool"
)

// InFlightReporter is satisfied by internal/rpc.Dispatcher; kept as a
// narrow interface here so diag does not import rpc.
type InFlightReporter interface {
	InFlight() int
}

// NewAdminRouter builds the tiny chi-backed admin surface SPEC_FULL.md §4
// assigns to go-chi/chi/v5: a liveness probe and a pool/dispatcher
// introspection endpoint.
func NewAdminRouter(pools map[string]pool.Pool, dispatcher InFlightReporter) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/debug/pools", func(w http.ResponseWriter, r *http.Request) {
		out := make(map[string]pool.Stats, len(pools))
		for name, p := range pools {
			if ip, ok := p.(pool.Introspectable); ok {
				out[name] = ip.Stats()
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(out)
	})

	r.Get("/debug/calls", func(w http.ResponseWriter, r *http.Request) {
		inFlight := 0
		if dispatcher != nil {
			inFlight = dispatcher.InFlight()
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{"in_flight": inFlight})
	})

	return r
}
