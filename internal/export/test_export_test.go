package export

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infographify/internal/slide"
)

func dataURI(b []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(b)
}

func readZip(t *testing.T, raw []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	require.NoError(t, err)
	out := map[string][]byte{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		out[f.Name] = b
	}
	return out
}

func TestSlidesZipHoldsCompletedImagesAndManifest(t *testing.T) {
	list := slide.Parse("# 1/3 A\na\n# 2/3 B\nb\n# 3/3 C\nc")
	list = slide.ApplyPatch(list, 0, slide.Completed(dataURI([]byte("one"))))
	list = slide.ApplyPatch(list, 1, slide.Failed("blocked"))
	list = slide.ApplyPatch(list, 2, slide.Completed(dataURI([]byte("three"))))

	entries, err := Slides(context.Background(), list, NewHTTPFetcher(time.Second))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteZip(&buf, entries))
	files := readZip(t, buf.Bytes())
	assert.Equal(t, []byte("one"), files["slide-001.png"])
	assert.Equal(t, []byte("three"), files["slide-003.png"])
	assert.NotContains(t, files, "slide-002.png")

	var manifest []ManifestSlide
	require.NoError(t, json.Unmarshal(files["manifest.json"], &manifest))
	require.Len(t, manifest, 3)
	assert.Equal(t, "blocked", manifest[1].Error)
	assert.Equal(t, "", manifest[1].File)
	assert.Equal(t, "slide-003.png", manifest[2].File)
}

func TestSlidesWithoutImages(t *testing.T) {
	_, err := Slides(context.Background(), slide.Parse("# 1 A\na"), NewHTTPFetcher(time.Second))
	assert.ErrorIs(t, err, ErrNothingToExport)
}

func TestHTTPFetcherDownloadsPresignedURLs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpeg-bytes"))
	}))
	t.Cleanup(srv.Close)
	f := NewHTTPFetcher(time.Second)

	data, mime, err := f.Fetch(context.Background(), srv.URL+"/bucket/run/slides/001.jpg?sig=x")
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))
	assert.Equal(t, "jpg", extensionFor(mime))

	_, _, err = f.Fetch(context.Background(), srv.URL+"/missing")
	assert.Error(t, err)
	_, _, err = f.Fetch(context.Background(), "file:///etc/passwd")
	assert.ErrorIs(t, err, ErrUnsupportedURL)
}

func TestDecodeDataURI(t *testing.T) {
	data, mime, err := DecodeDataURI(dataURI([]byte{1, 2, 3}))
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)
	assert.Equal(t, "image/png", mime)

	for _, bad := range []string{"data:image/png,raw", "data:nocomma", "https://x", "data:image/png;base64,%%%"} {
		_, _, err := DecodeDataURI(bad)
		assert.ErrorIs(t, err, ErrUnsupportedURL, bad)
	}
}
