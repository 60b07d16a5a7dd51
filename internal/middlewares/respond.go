package middlewares

import (
	"fmt"
	"net/http"
)

// writeError writes the {"error": "..."} body used across the API
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":%q}`, message)
}
