package handlers

import "net/http"

// Status handles GET /api/status. It is intentionally unauthenticated so
// load balancers and container probes can hit it.
func Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}
