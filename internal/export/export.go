// Package export bundles the rendered slides of a run into a ZIP archive.
package export

import (
	"archive/zip"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"infographify/internal/slide"
)

var (
	// ErrNothingToExport means no slide of the list has an image yet.
	ErrNothingToExport = errors.New("export: no completed slides")
	ErrUnsupportedURL  = errors.New("export: unsupported image url")
)

// maxImageBytes bounds a single fetched image.
const maxImageBytes = 32 << 20

// Fetcher loads the bytes behind a slide's image URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (data []byte, mimeType string, err error)
}

type FetcherFunc func(ctx context.Context, url string) ([]byte, string, error)

func (f FetcherFunc) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	return f(ctx, url)
}

// Entry is one file of the archive.
type Entry struct {
	Name string
	Data []byte
}

// ManifestSlide describes one slide inside manifest.json.
type ManifestSlide struct {
	Position int          `json:"position"`
	Index    int          `json:"index"`
	Total    int          `json:"total"`
	Title    string       `json:"title"`
	Status   slide.Status `json:"status"`
	File     string       `json:"file,omitempty"`
	Error    string       `json:"error,omitempty"`
}

// Slides fetches the image of every completed slide in list order and
// appends a manifest.json describing all slides. Slides without an image
// are listed in the manifest only.
func Slides(ctx context.Context, list []slide.Record, fetch Fetcher) ([]Entry, error) {
	entries := make([]Entry, 0, len(list)+1)
	manifest := make([]ManifestSlide, 0, len(list))
	for pos, rec := range list {
		m := ManifestSlide{
			Position: pos,
			Index:    rec.Index,
			Total:    rec.Total,
			Title:    rec.Title,
			Status:   rec.Status,
			Error:    rec.Error,
		}
		if rec.Status == slide.StatusCompleted && rec.ImageURL != "" {
			data, mime, err := fetch.Fetch(ctx, rec.ImageURL)
			if err != nil {
				return nil, fmt.Errorf("slide %d: %w", pos+1, err)
			}
			m.File = fmt.Sprintf("slide-%03d.%s", pos+1, extensionFor(mime))
			entries = append(entries, Entry{Name: m.File, Data: data})
		}
		manifest = append(manifest, m)
	}
	if len(entries) == 0 {
		return nil, ErrNothingToExport
	}
	raw, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(entries, Entry{Name: "manifest.json", Data: raw}), nil
}

// WriteZip writes entries as a ZIP archive. Images are stored without
// recompression.
func WriteZip(w io.Writer, entries []Entry) error {
	zw := zip.NewWriter(w)
	now := time.Now()
	for _, e := range entries {
		method := zip.Store
		if strings.HasSuffix(e.Name, ".json") {
			method = zip.Deflate
		}
		f, err := zw.CreateHeader(&zip.FileHeader{Name: e.Name, Method: method, Modified: now})
		if err != nil {
			return err
		}
		if _, err := f.Write(e.Data); err != nil {
			return err
		}
	}
	return zw.Close()
}

// DecodeDataURI returns the payload of a base64 data URI.
func DecodeDataURI(url string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(url, "data:")
	if !ok {
		return nil, "", fmt.Errorf("%w: not a data uri", ErrUnsupportedURL)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("%w: malformed data uri", ErrUnsupportedURL)
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return nil, "", fmt.Errorf("%w: data uri is not base64", ErrUnsupportedURL)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnsupportedURL, err)
	}
	return data, mime, nil
}

// HTTPFetcher resolves data URIs inline and downloads http(s) URLs, such
// as presigned object store links. Other schemes are refused.
type HTTPFetcher struct {
	Client *http.Client
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{Client: &http.Client{Timeout: timeout}}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	switch {
	case strings.HasPrefix(url, "data:"):
		return DecodeDataURI(url)
	case strings.HasPrefix(url, "http://"), strings.HasPrefix(url, "https://"):
	default:
		return nil, "", fmt.Errorf("%w: %.32q", ErrUnsupportedURL, url)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("export: fetch image: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, "", err
	}
	if len(data) > maxImageBytes {
		return nil, "", fmt.Errorf("export: image larger than %d bytes", maxImageBytes)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func extensionFor(mime string) string {
	mime, _, _ = strings.Cut(mime, ";")
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/webp":
		return "webp"
	default:
		return "png"
	}
}
