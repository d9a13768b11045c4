package config

import (
	"testing"
	"time"

	"infographify/internal/tester"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "APP_ENV", "LOG_FORMAT", "GEMINI_API_KEY", "GOOGLE_API_KEY", "LLM_RETRIES", "LLM_FAKE", "SCRIPT_TIMEOUT",
		"ARTIFACT_BACKEND", "ARTIFACT_MINIO_ENDPOINT", "ARTIFACT_PG_DSN"} {
		t.Setenv(k, "")
	}
	cfg := FromEnv()
	tester.Eq(t, cfg.Port, ":8081")
	tester.Eq(t, cfg.Env, "local")
	tester.Eq(t, cfg.Log.Format, "console")
	tester.Eq(t, cfg.LLM.Retries, 3)
	tester.Eq(t, cfg.LLM.ScriptTimeout, 3*time.Minute)
	tester.Eq(t, cfg.Artifact.Backend, "memory")
	tester.Eq(t, cfg.LLM.Fake, false)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "g-key")
	t.Setenv("LLM_FAKE", "true")
	t.Setenv("LLM_RPS", "2.5")
	t.Setenv("SCRIPT_TIMEOUT", "45")
	t.Setenv("IMAGE_CACHE_TTL", "10m")
	t.Setenv("ARTIFACT_BACKEND", "")
	t.Setenv("ARTIFACT_S3_ENDPOINT", "s3.example.com")
	t.Setenv("ARTIFACT_S3_USE_SSL", "")

	cfg := FromEnv()
	tester.Eq(t, cfg.Port, ":9090")
	tester.Eq(t, cfg.Log.Format, "json")
	tester.Eq(t, cfg.LLM.APIKey, "g-key")
	tester.True(t, cfg.LLM.Fake, "LLM_FAKE")
	tester.Eq(t, cfg.LLM.RPS, 2.5)
	tester.Eq(t, cfg.LLM.ScriptTimeout, 45*time.Second)
	tester.Eq(t, cfg.LLM.CacheTTL, 10*time.Minute)
	tester.Eq(t, cfg.Artifact.Backend, "s3")
	tester.True(t, cfg.Artifact.UseSSL, "SSL defaults on outside local")
}
