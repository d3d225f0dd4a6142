package config

import (
	"os"
	"strings"
	"time"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode
	HTTPAddr string

	DBDriver string
	DBDSN    string

	SnapshotDriver string // sql|fs|memory
	SnapshotPath   string // for fs

	// Session generation: a YAML template, or a remote generator when set.
	TemplatePath string
	GeneratorURL string

	// Scoring: remote when ScoringURL is set, otherwise a local summary.
	ScoringURL          string
	ScoringTokenURL     string
	ScoringClientID     string
	ScoringClientSecret string
	ScoringTimeout      time.Duration

	AuthHMACSecret  string
	EnableLocalAuth bool
	CORSOrigins     []string

	PageIdleTTL time.Duration

	LogLevel  string
	LogFormat string // text|json
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	defOrigins := "http://localhost:3000"
	if mode == ModeOnline {
		defOrigins = "https://interview.mindengage.ai"
	}
	defFormat := "text"
	if mode == ModeOnline {
		defFormat = "json"
	}
	return Config{
		Mode:     mode,
		HTTPAddr: envOr("HTTP_ADDR", ":8080"),

		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", ""),

		SnapshotDriver: envOr("SNAPSHOT_DRIVER", "sql"),
		SnapshotPath:   envOr("SNAPSHOT_PATH", "./data/snapshots"),

		TemplatePath: envOr("TEMPLATE_PATH", "./config/interview.yaml"),
		GeneratorURL: os.Getenv("GENERATOR_URL"),

		ScoringURL:          os.Getenv("SCORING_URL"),
		ScoringTokenURL:     os.Getenv("SCORING_TOKEN_URL"),
		ScoringClientID:     os.Getenv("SCORING_CLIENT_ID"),
		ScoringClientSecret: os.Getenv("SCORING_CLIENT_SECRET"),
		ScoringTimeout:      envDuration("SCORING_TIMEOUT", 60*time.Second),

		AuthHMACSecret:  envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		EnableLocalAuth: envBool("ENABLE_LOCAL_AUTH", true),
		CORSOrigins:     csvOr("CORS_ORIGINS", defOrigins),

		PageIdleTTL: envDuration("PAGE_IDLE_TTL", 2*time.Hour),

		LogLevel:  envOr("LOG_LEVEL", "info"),
		LogFormat: envOr("LOG_FORMAT", defFormat),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}
func envDuration(k string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(k))
	if err != nil || d < 0 {
		return def
	}
	return d
}
func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
