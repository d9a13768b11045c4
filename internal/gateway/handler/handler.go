// Package handler exposes the slide services as JSON over HTTP plus a
// websocket stream of run updates.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"infographify/internal/batch"
	"infographify/internal/export"
	"infographify/internal/gateway/service/run"
	llmclient "infographify/internal/llm/client"
	"infographify/internal/logging"
)

// maxBodyBytes bounds request bodies; scripts and pasted sources are text.
const maxBodyBytes = 4 << 20

var errInvalidArgument = errors.New("invalid argument")

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: invalid json body: %v", errInvalidArgument, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		l := logging.FromContext(r.Context(), log)
		l.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, status, body)
}

// errorResponse maps service errors onto HTTP statuses and stable codes.
func errorResponse(err error) (int, errorBody) {
	switch {
	case errors.Is(err, llmclient.ErrReauthRequired):
		return http.StatusUnauthorized, errorBody{"reauth_required", batch.FailureMessage(err)}
	case errors.Is(err, run.ErrNoSlides):
		return http.StatusUnprocessableEntity, errorBody{"no_slides", run.NoSlidesMessage}
	case errors.Is(err, llmclient.ErrSafetyBlocked):
		return http.StatusUnprocessableEntity, errorBody{"safety_blocked", batch.FailureMessage(err)}
	case errors.Is(err, llmclient.ErrScriptTimeout):
		return http.StatusGatewayTimeout, errorBody{"timeout", "Script generation timed out. Please try again."}
	case errors.Is(err, llmclient.ErrEmptySource):
		return http.StatusBadRequest, errorBody{"invalid_argument", "Source content is required."}
	case errors.Is(err, errInvalidArgument),
		errors.Is(err, batch.ErrUnknownPolicy),
		errors.Is(err, batch.ErrPositionRange):
		return http.StatusBadRequest, errorBody{"invalid_argument", err.Error()}
	case errors.Is(err, export.ErrNothingToExport):
		return http.StatusConflict, errorBody{"nothing_to_export", "No generated slides to export yet."}
	case errors.Is(err, run.ErrRunNotFound):
		return http.StatusNotFound, errorBody{"not_found", err.Error()}
	case errors.Is(err, run.ErrRunInProgress), errors.Is(err, batch.ErrAlreadyGenerating):
		return http.StatusConflict, errorBody{"conflict", err.Error()}
	default:
		return http.StatusInternalServerError, errorBody{"internal", "internal error"}
	}
}
