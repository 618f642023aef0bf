// Package healthz serves liveness and readiness probes.
package healthz

import (
	"fmt"
	"net/http"
)

type Handler struct {
	checks []func() error
}

// New returns a handler that reports healthy when every check passes.  With
// no checks it always reports healthy.
func New(checks ...func() error) *Handler {
	return &Handler{checks: checks}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	for _, check := range h.checks {
		if err := check(); err != nil {
			http.Error(w, fmt.Sprintf("unhealthy: %v", err), http.StatusServiceUnavailable)
			return
		}
	}

	w.Write([]byte("200 OK"))
}
