package llmclient

import (
	"context"
	"encoding/base64"
	"errors"

	"infographify/internal/types"
)

var (
	// ErrReauthRequired means the caller's credentials are no longer valid.
	// Retrying with the same credentials cannot succeed.
	ErrReauthRequired = errors.New("llm: reauthentication required")
	ErrSafetyBlocked  = errors.New("llm: generation blocked by safety filters")
	ErrNoImageData    = errors.New("llm: no image data returned")
	ErrScriptTimeout  = errors.New("llm: script generation timed out")
	ErrEmptySource    = errors.New("llm: source content is empty")
)

// Source is a web page the script writer grounded its answer on.
type Source struct {
	Title string `json:"title,omitempty"`
	URI   string `json:"uri"`
}

type ScriptRequest struct {
	Source string
	Config types.GenerationConfig
}

type ScriptResult struct {
	Text    string   `json:"text"`
	Sources []Source `json:"sources,omitempty"`
}

type ImageRequest struct {
	Prompt      string
	Model       string
	AspectRatio string
}

type Image struct {
	Data     []byte
	MIMEType string
}

// DataURI renders the image inline, for backends that cannot hand out URLs.
func (i Image) DataURI() string {
	mime := i.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// ScriptClient turns source material into a slide script.
type ScriptClient interface {
	Name() string
	GenerateScript(ctx context.Context, req ScriptRequest) (ScriptResult, error)
}

// ImageClient renders one slide prompt into an image.
type ImageClient interface {
	Name() string
	GenerateImage(ctx context.Context, req ImageRequest) (Image, error)
}
