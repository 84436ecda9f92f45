package handler

import "net/http"

// HandleHealth reports liveness for load balancers and the client's
// connectivity check.
//
// Response: 200 {"status": "healthy"}
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
