package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"infographify/internal/export"
	"infographify/internal/gateway/service/run"
	llmclient "infographify/internal/llm/client"
)

type RunHandler struct {
	svc *run.Service
	log zerolog.Logger
}

func NewRunHandler(svc *run.Service, log zerolog.Logger) *RunHandler {
	return &RunHandler{svc: svc, log: log}
}

func (h *RunHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	var in run.StartRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	snap, err := h.svc.Start(r.Context(), in)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusAccepted, snap)
}

func (h *RunHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *RunHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Cancel(r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleRegenerate re-renders one slide and waits for it to settle. A slide
// that fails is reported through its record; only a credential failure
// turns into an error response.
func (h *RunHandler) HandleRegenerate(w http.ResponseWriter, r *http.Request) {
	pos, err := strconv.Atoi(strings.TrimSpace(r.PathValue("pos")))
	if err != nil {
		writeError(w, r, h.log, fmt.Errorf("%w: position must be an integer", errInvalidArgument))
		return
	}
	snap, err := h.svc.Regenerate(r.Context(), r.PathValue("id"), pos)
	if err != nil && (isRequestError(err) || errors.Is(err, llmclient.ErrReauthRequired)) {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleExport streams the run's completed slides as a ZIP archive.
func (h *RunHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	entries, err := h.svc.Export(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="slides-%s.zip"`, shortID(id)))
	w.WriteHeader(http.StatusOK)
	if err := export.WriteZip(w, entries); err != nil {
		h.log.Warn().Err(err).Str("run_id", id).Msg("write export")
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// isRequestError reports errors raised before any generation started.
func isRequestError(err error) bool {
	status, _ := errorResponse(err)
	return status == http.StatusBadRequest || status == http.StatusNotFound || status == http.StatusConflict
}
