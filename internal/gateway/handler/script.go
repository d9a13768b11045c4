package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"infographify/internal/gateway/service/script"
	"infographify/internal/types"
)

type ScriptHandler struct {
	svc *script.Service
	log zerolog.Logger
}

func NewScriptHandler(svc *script.Service, log zerolog.Logger) *ScriptHandler {
	return &ScriptHandler{svc: svc, log: log}
}

type generateScriptRequest struct {
	Source string                 `json:"source"`
	Config types.GenerationConfig `json:"config"`
}

func (h *ScriptHandler) HandleGenerateScript(w http.ResponseWriter, r *http.Request) {
	var in generateScriptRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	draft, err := h.svc.Draft(r.Context(), in.Source, in.Config)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}
