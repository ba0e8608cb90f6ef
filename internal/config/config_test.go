package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"SERVER_PORT", "API_BASE_URL", "EXAM_DURATION_SECONDS", "MAX_WARNINGS", "REDIS_URL"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.ServerPort != "8090" {
		t.Errorf("ServerPort = %q, want 8090", cfg.ServerPort)
	}
	if cfg.ExamDuration != time.Hour {
		t.Errorf("ExamDuration = %v, want 1h", cfg.ExamDuration)
	}
	if cfg.MaxWarnings != 4 || cfg.ViolationsPerWarning != 10 {
		t.Errorf("ladder = %d/%d, want 10/4", cfg.ViolationsPerWarning, cfg.MaxWarnings)
	}
	if cfg.RedisURL != "" {
		t.Errorf("RedisURL = %q, want empty", cfg.RedisURL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://api.test/api/")
	t.Setenv("EXAM_DURATION_SECONDS", "90")
	t.Setenv("CANDIDATES_PAGE_SIZE", "nope")
	t.Setenv("ALLOWED_ORIGINS", " http://a.test , ,http://b.test")

	cfg := Load()
	if cfg.APIBaseURL != "http://api.test/api" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.ExamDuration != 90*time.Second {
		t.Errorf("ExamDuration = %v", cfg.ExamDuration)
	}
	if cfg.PageSize != 10 {
		t.Errorf("PageSize = %d, want fallback 10", cfg.PageSize)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}

func TestStoreKeyTokenKey(t *testing.T) {
	if got := string(StoreKey.TokenKey("durable")); got != "durable:token" {
		t.Errorf("TokenKey = %q", got)
	}
}
