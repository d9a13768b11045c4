// Package artifact stores rendered slide images per run.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Store persists run artifacts addressed by run ID and relative path.
type Store interface {
	Put(ctx context.Context, runID, path string, obj Object) error
	Get(ctx context.Context, runID, path string) (Object, error)
	// GetURL returns a URL a browser can fetch the object from, or
	// ErrNoURL when the backend cannot hand one out.
	GetURL(ctx context.Context, runID, path string) (string, error)
	List(ctx context.Context, runID string) ([]string, error)
}

type Object struct {
	ContentType string
	Data        []byte
}

var (
	ErrNotFound = errors.New("artifact not found")
	ErrNoURL    = errors.New("artifact backend has no URL support")
)

// objectKey validates the address and joins it as "runID/path".
func objectKey(runID, path string) (string, error) {
	runID = strings.TrimSpace(runID)
	path = strings.TrimLeft(strings.TrimSpace(path), "/")
	if runID == "" {
		return "", fmt.Errorf("run_id is required")
	}
	if path == "" {
		return "", fmt.Errorf("path is required")
	}
	if strings.Contains(runID, "/") || strings.Contains(path, "..") {
		return "", fmt.Errorf("invalid artifact address %q/%q", runID, path)
	}
	return runID + "/" + path, nil
}

func contentTypeOr(ct string) string {
	if strings.TrimSpace(ct) == "" {
		return "application/octet-stream"
	}
	return ct
}
