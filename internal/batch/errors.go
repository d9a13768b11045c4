package batch

import (
	"context"
	"errors"

	llmclient "infographify/internal/llm/client"
)

var (
	ErrUnknownPolicy     = errors.New("batch: unknown policy")
	ErrPositionRange     = errors.New("batch: slide position out of range")
	ErrAlreadyGenerating = errors.New("batch: slide is already generating")
	ErrGeneratorPanic    = errors.New("batch: generator panicked")
)

// FailureMessage is the text stored on a failed record.
func FailureMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, llmclient.ErrSafetyBlocked):
		return "Content blocked by safety filters. Try rephrasing the prompt."
	case errors.Is(err, llmclient.ErrNoImageData):
		return "No image generated. Please try again."
	case errors.Is(err, llmclient.ErrReauthRequired):
		return "Session expired. Please re-authenticate."
	case errors.Is(err, context.Canceled):
		return "Generation cancelled."
	case errors.Is(err, context.DeadlineExceeded):
		return "Generation timed out."
	}
	return err.Error()
}
