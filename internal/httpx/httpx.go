package httpx

import (
	"encoding/json"
	"net/http"
)

// WriteJSON renders v with the given status. Shared by every domain
// handler; error responses go through apperr.Write instead.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
