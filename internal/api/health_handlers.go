package api

import (
	"net/http"
)

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Health serves GET /healthz. The storage check gates readiness; the asset
// gateway is reported but never fails the probe because uploads degrade to
// placeholders when it is absent.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	checks := map[string]string{}
	status := http.StatusOK
	overall := "ok"
	if err := h.Store.Ping(r.Context()); err != nil {
		checks["storage"] = "unavailable"
		status = http.StatusServiceUnavailable
		overall = "degraded"
	} else {
		checks["storage"] = "ok"
	}
	if h.assetClient().Enabled() {
		checks["assets"] = "ok"
	} else {
		checks["assets"] = "disabled"
	}
	writeData(w, status, overall, healthResponse{Status: overall, Checks: checks})
}
