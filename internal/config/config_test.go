package config_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/mind-engage/mindengage-interview/internal/config"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("MODE", "")
	t.Setenv("SNAPSHOT_DRIVER", "")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("CORS_ORIGINS", "")
	cfg := config.FromEnv()
	if cfg.Mode != config.ModeOffline || cfg.HTTPAddr == "" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.SnapshotDriver != "sql" || cfg.LogFormat != "text" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.CORSOrigins, []string{"http://localhost:3000"}) {
		t.Fatalf("cors: %v", cfg.CORSOrigins)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("MODE", "online")
	t.Setenv("SNAPSHOT_DRIVER", "fs")
	t.Setenv("CORS_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("SCORING_TIMEOUT", "5s")
	t.Setenv("ENABLE_LOCAL_AUTH", "no")
	t.Setenv("PAGE_IDLE_TTL", "bogus")
	t.Setenv("LOG_FORMAT", "")
	cfg := config.FromEnv()
	if cfg.Mode != config.ModeOnline || cfg.LogFormat != "json" || cfg.SnapshotDriver != "fs" {
		t.Fatalf("unexpected %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.CORSOrigins, []string{"https://a.example", "https://b.example"}) {
		t.Fatalf("cors: %v", cfg.CORSOrigins)
	}
	if cfg.ScoringTimeout != 5*time.Second || cfg.EnableLocalAuth {
		t.Fatalf("unexpected %+v", cfg)
	}
	if cfg.PageIdleTTL != 2*time.Hour {
		t.Fatalf("bad duration should fall back, got %v", cfg.PageIdleTTL)
	}
}
