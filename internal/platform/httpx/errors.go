package httpx

import (
	"errors"
	"net/http"

	"github.com/pilotdeck/pilotdeck/internal/shared"
)

// Sentinel errors for JSON endpoints.
var (
	ErrValidation = errors.New("validation failed")
	ErrForbidden  = errors.New("forbidden")
)

// RespondError maps domain errors onto problem details responses.
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		RespondProblem(w, r, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrUnauthorized):
		RespondProblem(w, r, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, ErrValidation):
		RespondProblem(w, r, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrForbidden):
		RespondProblem(w, r, http.StatusForbidden, "Forbidden", err.Error())
	default:
		RespondProblem(w, r, http.StatusInternalServerError, "Internal Error", "")
	}
}
