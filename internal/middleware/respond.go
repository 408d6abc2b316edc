package middleware

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/xelth-com/eckbiz/internal/apperr"
	"github.com/xelth-com/eckbiz/internal/logger"
)

// WriteJSON writes payload as a JSON response.
func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// WriteError maps err onto its HTTP status and writes {"error", "code", "details"}.
// Errors outside the taxonomy are logged and answered with a generic 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	e, ok := apperr.As(err)
	if !ok {
		e = apperr.Internal("internal server error", err)
	}
	if e.Kind == apperr.KindInternal {
		logger.FromContext(r.Context()).Error("internal error", zap.Error(err))
	}
	WriteJSON(w, e.HTTPStatus(), e)
}
