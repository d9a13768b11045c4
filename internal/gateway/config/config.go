package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	Env      string
	Log      LogConfig
	LLM      LLMConfig
	RunStore RunStoreConfig
	Artifact ArtifactConfig
}

type LogConfig struct {
	Level  string
	Format string
}

type LLMConfig struct {
	APIKey     string
	TextModel  string
	ImageModel string
	// Fake swaps the Gemini client for the offline fake.
	Fake          bool
	RPS           float64
	Burst         int
	Retries       int
	ScriptTimeout time.Duration
	CacheSize     int
	CacheTTL      time.Duration
}

type RunStoreConfig struct {
	PostgresDSN string
}

type ArtifactConfig struct {
	// Backend is one of memory, s3 or postgres.
	Backend     string
	Endpoint    string
	Region      string
	AccessKey   string
	SecretKey   string
	Bucket      string
	UseSSL      bool
	PostgresDSN string
}

// Load reads .env, the -port flag and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":8081", "server port")
	flag.Parse()

	cfg := FromEnv()
	if os.Getenv("PORT") == "" {
		cfg.Port = normalizePort(*port)
	}
	return cfg, nil
}

// FromEnv builds the configuration from environment variables only.
func FromEnv() *Config {
	env := firstNonEmpty(strings.TrimSpace(os.Getenv("APP_ENV")), "local")
	return &Config{
		Port: normalizePort(firstNonEmpty(strings.TrimSpace(os.Getenv("PORT")), ":8081")),
		Env:  env,
		Log: LogConfig{
			Level:  firstNonEmpty(strings.TrimSpace(os.Getenv("LOG_LEVEL")), "info"),
			Format: firstNonEmpty(strings.TrimSpace(os.Getenv("LOG_FORMAT")), defaultLogFormat(env)),
		},
		LLM: LLMConfig{
			APIKey:        firstNonEmpty(strings.TrimSpace(os.Getenv("GEMINI_API_KEY")), strings.TrimSpace(os.Getenv("GOOGLE_API_KEY"))),
			TextModel:     strings.TrimSpace(os.Getenv("TEXT_MODEL")),
			ImageModel:    strings.TrimSpace(os.Getenv("IMAGE_MODEL")),
			Fake:          envBool("LLM_FAKE", false),
			RPS:           envFloat("LLM_RPS", 0),
			Burst:         envInt("LLM_BURST", 1),
			Retries:       envInt("LLM_RETRIES", 3),
			ScriptTimeout: envDuration("SCRIPT_TIMEOUT", 3*time.Minute),
			CacheSize:     envInt("IMAGE_CACHE_SIZE", 128),
			CacheTTL:      envDuration("IMAGE_CACHE_TTL", time.Hour),
		},
		RunStore: RunStoreConfig{
			PostgresDSN: strings.TrimSpace(os.Getenv("RUN_STORE_PG_DSN")),
		},
		Artifact: loadArtifactConfig(env),
	}
}

func loadArtifactConfig(env string) ArtifactConfig {
	endpoint := resolveArtifactEndpoint(env)
	pgDSN := strings.TrimSpace(os.Getenv("ARTIFACT_PG_DSN"))
	backend := strings.ToLower(strings.TrimSpace(os.Getenv("ARTIFACT_BACKEND")))
	if backend == "" {
		switch {
		case endpoint != "":
			backend = "s3"
		case pgDSN != "":
			backend = "postgres"
		default:
			backend = "memory"
		}
	}
	return ArtifactConfig{
		Backend:     backend,
		Endpoint:    endpoint,
		Region:      firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_REGION")), "us-east-1"),
		AccessKey:   firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey:   firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:      firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_BUCKET")), "infographify-slides"),
		UseSSL:      resolveArtifactUseSSL(env),
		PostgresDSN: pgDSN,
	}
}

// In the local compose setup MinIO is only used when its endpoint is set.
func resolveArtifactEndpoint(env string) string {
	if isLocal(env) {
		return strings.TrimSpace(os.Getenv("ARTIFACT_MINIO_ENDPOINT"))
	}
	return strings.TrimSpace(os.Getenv("ARTIFACT_S3_ENDPOINT"))
}

func resolveArtifactUseSSL(env string) bool {
	if isLocal(env) {
		return false
	}
	return envBool("ARTIFACT_S3_USE_SSL", true)
}

func isLocal(env string) bool {
	return strings.EqualFold(strings.TrimSpace(env), "local")
}

func defaultLogFormat(env string) string {
	if isLocal(env) {
		return "console"
	}
	return "json"
}

func normalizePort(p string) string {
	if strings.HasPrefix(p, ":") {
		return p
	}
	return ":" + p
}

func envBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func envInt(key string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64)
	if err != nil {
		return def
	}
	return f
}

// envDuration accepts Go durations ("90s") or bare seconds ("90").
func envDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
