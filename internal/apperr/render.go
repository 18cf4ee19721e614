package apperr

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type body struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Write renders err as the {code, message} envelope every error response
// carries. Unexpected errors are logged with their cause and surfaced with a
// generic message only.
func Write(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	e := From(err)

	if e.Kind == KindUnknown {
		log.Error("unhandled error",
			"err", e.Unwrap(),
			"method", r.Method,
			"path", r.URL.Path,
		)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Kind.HTTPStatus())
	_ = json.NewEncoder(w).Encode(body{Code: e.Code, Message: e.Message})
}
