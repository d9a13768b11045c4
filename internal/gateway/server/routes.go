package server

import (
	"net/http"

	"github.com/rs/zerolog"

	"infographify/internal/gateway/handler"
	"infographify/internal/gateway/middleware"
)

func NewMux(runHandler *handler.RunHandler, scriptHandler *handler.ScriptHandler, log zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/parse", handler.HandleParse)
	mux.HandleFunc("POST /api/generate-script", scriptHandler.HandleGenerateScript)

	mux.HandleFunc("POST /api/runs", runHandler.HandleStart)
	mux.HandleFunc("GET /api/runs/{id}", runHandler.HandleGet)
	mux.HandleFunc("POST /api/runs/{id}/cancel", runHandler.HandleCancel)
	mux.HandleFunc("POST /api/runs/{id}/slides/{pos}/regenerate", runHandler.HandleRegenerate)
	mux.HandleFunc("GET /api/runs/{id}/export.zip", runHandler.HandleExport)
	mux.HandleFunc("GET /api/runs/{id}/ws", runHandler.HandleStream)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	return middleware.RequestLog(log)(middleware.CORS(mux))
}
