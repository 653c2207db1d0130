package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/edvin/fedreg/internal/api/response"
	"github.com/edvin/fedreg/internal/core"
)

// writeServiceError maps a core error to its status code. Unexpected errors
// are logged and reported without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		response.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrInvalid),
		errors.Is(err, core.ErrConflict),
		errors.Is(err, core.ErrInvalidTransition):
		response.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrDeleteBlocked):
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("delete blocked")
		response.WriteError(w, http.StatusInternalServerError, "Failed to delete item")
	case errors.Is(err, core.ErrCorrupted):
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("corrupted database")
		response.WriteError(w, http.StatusInternalServerError, err.Error())
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		response.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}
