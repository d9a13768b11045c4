package server

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infographify/internal/gateway/handler"
	"infographify/internal/gateway/repository/artifact"
	"infographify/internal/gateway/repository/runstore"
	"infographify/internal/gateway/service/run"
	"infographify/internal/gateway/service/script"
	"infographify/internal/llm"
	"infographify/internal/slide"
)

const testScript = "# Slide 1/2: Intro\nhello\n# Slide 2/2: End\nbye"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	fake := llm.NewFakeClient()
	runs := run.New(fake, artifact.NewMemoryStore(), runstore.NewMemoryStore(), zerolog.Nop())
	t.Cleanup(func() { _ = runs.Shutdown(context.Background()) })
	mux := NewMux(
		handler.NewRunHandler(runs, zerolog.Nop()),
		handler.NewScriptHandler(script.New(fake, zerolog.Nop()), zerolog.Nop()),
		zerolog.Nop(),
	)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func getSnapshot(t *testing.T, url string) runstore.Snapshot {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap runstore.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	return snap
}

func TestHealthzAndCORS(t *testing.T) {
	srv := newTestServer(t)
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestParseEndpoint(t *testing.T) {
	srv := newTestServer(t)
	resp, out := postJSON(t, srv.URL+"/api/parse", map[string]string{"script": testScript})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	slides := out["slides"].([]any)
	require.Len(t, slides, 2)
	first := slides[0].(map[string]any)
	assert.Equal(t, "Intro", first["title"])
	assert.Equal(t, "pending", first["status"])
	assert.Equal(t, "hello", first["rawContent"])

	resp, out = postJSON(t, srv.URL+"/api/parse", map[string]string{"script": "plain prose"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, out["slides"])
}

func TestGenerateScriptEndpoint(t *testing.T) {
	srv := newTestServer(t)
	resp, out := postJSON(t, srv.URL+"/api/generate-script", map[string]any{
		"source": "Remote work trends",
		"config": map[string]any{"slideCount": 2, "detailLevel": "detailed"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), out["slideCount"])
	assert.Contains(t, out["text"], "#### Infographic 1/2")

	resp, out = postJSON(t, srv.URL+"/api/generate-script", map[string]any{"source": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_argument", out["code"])
}

func TestRunLifecycle(t *testing.T) {
	srv := newTestServer(t)
	resp, out := postJSON(t, srv.URL+"/api/runs", map[string]any{"script": testScript, "policy": "parallel"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	runID := out["runId"].(string)
	require.NotEmpty(t, runID)

	var snap runstore.Snapshot
	require.Eventually(t, func() bool {
		snap = getSnapshot(t, srv.URL+"/api/runs/"+runID)
		return snap.State == runstore.StateFinished
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, snap.Progress.Completed)
	assert.True(t, strings.HasPrefix(snap.Slides[0].ImageURL, "data:image/png;base64,"))

	resp, out = postJSON(t, srv.URL+"/api/runs/"+runID+"/slides/1/regenerate", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "completed", out["slides"].([]any)[1].(map[string]any)["status"])

	resp, out = postJSON(t, srv.URL+"/api/runs/"+runID+"/slides/7/regenerate", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = postJSON(t, srv.URL+"/api/runs/"+runID+"/slides/x/regenerate", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, out = postJSON(t, srv.URL+"/api/runs/"+runID+"/cancel", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "finished", out["state"])
}

func TestRunExportZip(t *testing.T) {
	srv := newTestServer(t)
	script := testScript + "\n# Slide 3/3: [[blocked]]\nnope"
	resp, out := postJSON(t, srv.URL+"/api/runs", map[string]any{"script": script})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	runID := out["runId"].(string)
	require.Eventually(t, func() bool {
		return getSnapshot(t, srv.URL+"/api/runs/"+runID).State == runstore.StateFinished
	}, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get(srv.URL + "/api/runs/" + runID + "/export.zip")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/zip", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"slide-001.png", "slide-002.png", "manifest.json"}, names)

	resp, err = http.Get(srv.URL + "/api/runs/missing/export.zip")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRunErrors(t *testing.T) {
	srv := newTestServer(t)
	resp, out := postJSON(t, srv.URL+"/api/runs", map[string]any{"script": "no headers"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "no_slides", out["code"])
	assert.Equal(t, run.NoSlidesMessage, out["message"])

	resp, out = postJSON(t, srv.URL+"/api/runs", map[string]any{"script": testScript, "policy": "sideways"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_argument", out["code"])

	resp, err := http.Get(srv.URL + "/api/runs/does-not-exist")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/runs", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

type wsMessage struct {
	Type     string             `json:"type"`
	Snapshot *runstore.Snapshot `json:"snapshot"`
	Position *int               `json:"position"`
	Record   *slide.Record      `json:"record"`
	Progress *slide.Progress    `json:"progress"`
	Code     string             `json:"code"`
}

func TestRunStreamRegenerate(t *testing.T) {
	srv := newTestServer(t)
	resp, out := postJSON(t, srv.URL+"/api/runs", map[string]any{"script": testScript})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	runID := out["runId"].(string)
	require.Eventually(t, func() bool {
		return getSnapshot(t, srv.URL+"/api/runs/"+runID).State == runstore.StateFinished
	}, 2*time.Second, 10*time.Millisecond)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/runs/" + runID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))

	var first wsMessage
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "snapshot", first.Type)
	require.NotNil(t, first.Snapshot)
	assert.Len(t, first.Snapshot.Slides, 2)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "ping"}))
	var pong wsMessage
	require.NoError(t, conn.ReadJSON(&pong))
	assert.Equal(t, "pong", pong.Type)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "regenerate", "position": 0}))
	var statuses []slide.Status
	for len(statuses) < 2 {
		var msg wsMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type != "update" {
			continue
		}
		require.NotNil(t, msg.Position)
		assert.Equal(t, 0, *msg.Position)
		statuses = append(statuses, msg.Record.Status)
	}
	assert.Equal(t, []slide.Status{slide.StatusGenerating, slide.StatusCompleted}, statuses)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "bogus"}))
	var bad wsMessage
	require.NoError(t, conn.ReadJSON(&bad))
	assert.Equal(t, "error", bad.Type)
	assert.Equal(t, "invalid_argument", bad.Code)
}

func TestRunStreamUnknownRun(t *testing.T) {
	srv := newTestServer(t)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/runs/nope/ws"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
