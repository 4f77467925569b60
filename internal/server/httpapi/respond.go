package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/savelyev/securesms/internal/common"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain sentinels to HTTP statuses. Anything unmapped is a
// plain 500 with no detail leaked to the client.
func writeError(w http.ResponseWriter, err error) {
	var status int

	switch {
	case errors.Is(err, common.ErrInvalidCredentials),
		errors.Is(err, common.ErrOTPMismatchOrExpired),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrorUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, common.ErrorForbidden):
		status = http.StatusForbidden
	case errors.Is(err, common.ErrInvalidStage):
		status = http.StatusConflict
	case errors.Is(err, common.ErrorNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrInvalidCiphertext):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrKeyUnavailable):
		status = http.StatusServiceUnavailable
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
