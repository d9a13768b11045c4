package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"

	"infographify/internal/tester"
)

func TestNewJSONCarriesServiceAndRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Format: "json", Output: &buf, ServiceName: "gateway"})

	log.Info().Msg("hidden")
	tester.Eq(t, buf.Len(), 0)

	log.Warn().Str("k", "v").Msg("shown")
	var ev map[string]any
	tester.NoErr(t, json.Unmarshal(buf.Bytes(), &ev))
	tester.Eq(t, ev["service"], any("gateway"))
	tester.Eq(t, ev["message"], any("shown"))
	tester.Eq(t, ev["level"], any("warn"))
	_, hasTime := ev["time"]
	tester.True(t, hasTime, "timestamp field")
}

func TestParseLevel(t *testing.T) {
	tester.Eq(t, ParseLevel(" DEBUG "), zerolog.DebugLevel)
	tester.Eq(t, ParseLevel("warning"), zerolog.WarnLevel)
	tester.Eq(t, ParseLevel("off"), zerolog.Disabled)
	tester.Eq(t, ParseLevel("nonsense"), zerolog.InfoLevel)
}

func TestFromContextAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Output: &buf})
	ctx := WithRequestID(context.Background(), "req-1")
	tester.Eq(t, RequestIDFrom(ctx), "req-1")

	l := FromContext(ctx, base)
	l.Info().Msg("x")
	var ev map[string]any
	tester.NoErr(t, json.Unmarshal(buf.Bytes(), &ev))
	tester.Eq(t, ev["request_id"], any("req-1"))
	tester.Eq(t, RequestIDFrom(context.Background()), "")
}
