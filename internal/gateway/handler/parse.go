package handler

import (
	"net/http"

	"infographify/internal/slide"
)

type parseRequest struct {
	Script string `json:"script"`
}

type parseResponse struct {
	Slides   []slide.Record `json:"slides"`
	Progress slide.Progress `json:"progress"`
}

// HandleParse previews how a script splits into slides. A script without
// headers yields an empty list, not an error.
func HandleParse(w http.ResponseWriter, r *http.Request) {
	var in parseRequest
	if err := decodeJSON(w, r, &in); err != nil {
		status, body := errorResponse(err)
		writeJSON(w, status, body)
		return
	}
	slides := slide.Parse(in.Script)
	writeJSON(w, http.StatusOK, parseResponse{Slides: slides, Progress: slide.Tally(slides)})
}
