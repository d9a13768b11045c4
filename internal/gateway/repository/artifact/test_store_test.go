package artifact

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// urlStore wraps MemoryStore with fake URL support.
type urlStore struct {
	*MemoryStore
	err error
}

func (u urlStore) GetURL(_ context.Context, runID, path string) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	return "https://cdn.test/" + runID + "/" + path, nil
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	runID := "run-" + strings.ReplaceAll(t.Name(), "/", "-")

	require.NoError(t, s.Put(ctx, runID, "slides/002.png", Object{ContentType: "image/png", Data: []byte("two")}))
	require.NoError(t, s.Put(ctx, runID, "/slides/001.png", Object{ContentType: "image/png", Data: []byte("one")}))
	require.NoError(t, s.Put(ctx, runID, "slides/001.png", Object{ContentType: "image/png", Data: []byte("uno")}))

	got, err := s.Get(ctx, runID, "slides/001.png")
	require.NoError(t, err)
	assert.Equal(t, "uno", string(got.Data))
	assert.Equal(t, "image/png", got.ContentType)

	paths, err := s.List(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, []string{"slides/001.png", "slides/002.png"}, paths)

	_, err = s.Get(ctx, runID, "slides/404.png")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Error(t, s.Put(ctx, "", "x.png", Object{}))
	assert.Error(t, s.Put(ctx, runID, "  ", Object{}))
	assert.Error(t, s.Put(ctx, runID, "../escape.png", Object{}))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStoreCopiesData(t *testing.T) {
	s := NewMemoryStore()
	buf := []byte("abc")
	require.NoError(t, s.Put(context.Background(), "r", "a.png", Object{Data: buf}))
	buf[0] = 'x'
	got, err := s.Get(context.Background(), "r", "a.png")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got.Data))
	assert.Equal(t, "application/octet-stream", got.ContentType)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("ARTIFACT_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("ARTIFACT_TEST_PG_DSN not set")
	}
	db, err := OpenPostgres(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	s := NewPostgresStore(db)
	exerciseStore(t, s)

	_, err = s.GetURL(context.Background(), "r", "a.png")
	assert.ErrorIs(t, err, ErrNoURL)
}

func TestImageURLPrefersBackendURL(t *testing.T) {
	store := urlStore{MemoryStore: NewMemoryStore()}
	u, err := ImageURL(context.Background(), store, "r1", "slides/001.png", Object{ContentType: "image/png", Data: []byte{1}})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/r1/slides/001.png", u)

	saved, err := store.Get(context.Background(), "r1", "slides/001.png")
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, saved.Data)
}

func TestImageURLFallsBackToDataURI(t *testing.T) {
	u, err := ImageURL(context.Background(), NewMemoryStore(), "r1", "slides/001.png", Object{Data: []byte("hi")})
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,aGk=", u)

	u, err = ImageURL(context.Background(), nil, "r1", "x.png", Object{ContentType: "image/jpeg", Data: []byte("hi")})
	require.NoError(t, err)
	assert.Equal(t, "data:image/jpeg;base64,aGk=", u)
}

func TestImageURLSurfacesSigningErrors(t *testing.T) {
	store := urlStore{MemoryStore: NewMemoryStore(), err: errors.New("clock skew")}
	_, err := ImageURL(context.Background(), store, "r1", "a.png", Object{Data: []byte{1}})
	assert.ErrorContains(t, err, "clock skew")
}
