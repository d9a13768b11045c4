package artifact

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
)

// ImageURL stores an image and returns the URL a client should display it
// from. Backends without URL support get an inline data URI instead.
func ImageURL(ctx context.Context, store Store, runID, path string, obj Object) (string, error) {
	if store == nil {
		return dataURI(obj), nil
	}
	if err := store.Put(ctx, runID, path, obj); err != nil {
		return "", fmt.Errorf("store %s: %w", path, err)
	}
	u, err := store.GetURL(ctx, runID, path)
	if errors.Is(err, ErrNoURL) || (err == nil && u == "") {
		return dataURI(obj), nil
	}
	if err != nil {
		return "", fmt.Errorf("url for %s: %w", path, err)
	}
	return u, nil
}

func dataURI(obj Object) string {
	ct := obj.ContentType
	if ct == "" {
		ct = "image/png"
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(obj.Data)
}
