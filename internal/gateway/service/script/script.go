// Package script drafts slide scripts from user supplied source material.
package script

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	llmclient "infographify/internal/llm/client"
	"infographify/internal/slide"
	"infographify/internal/types"
	"infographify/internal/utils"
)

type Draft struct {
	Text    string             `json:"text"`
	Sources []llmclient.Source `json:"sources,omitempty"`
	// SlideCount is how many slides the parser finds in Text, which may
	// differ from the count that was asked for.
	SlideCount int `json:"slideCount"`
}

type Service struct {
	client llmclient.ScriptClient
	log    zerolog.Logger
}

func New(client llmclient.ScriptClient, log zerolog.Logger) *Service {
	return &Service{client: client, log: log}
}

// Draft asks the script client for a script covering source. Source may be
// prose, extracted document text or a list of URLs. Images and comments are
// stripped before the request; a source with nothing else left is empty.
func (s *Service) Draft(ctx context.Context, source string, cfg types.GenerationConfig) (Draft, error) {
	source = utils.CleanSource(source)
	if source == "" {
		return Draft{}, llmclient.ErrEmptySource
	}
	res, err := s.client.GenerateScript(ctx, llmclient.ScriptRequest{Source: source, Config: cfg.WithDefaults()})
	if err != nil {
		return Draft{}, err
	}
	d := Draft{
		Text:       strings.TrimSpace(res.Text),
		Sources:    res.Sources,
		SlideCount: len(slide.Parse(res.Text)),
	}
	s.log.Info().Int("slides", d.SlideCount).Int("sources", len(d.Sources)).Msg("script drafted")
	return d, nil
}
