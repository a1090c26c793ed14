package config

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := NewConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if cfg.GetRenderConcurrency() != 3 {
		t.Errorf("expected render concurrency 3, got %d", cfg.GetRenderConcurrency())
	}
	if cfg.GetThumbnailConcurrency() != 3 {
		t.Errorf("expected thumbnail concurrency 3, got %d", cfg.GetThumbnailConcurrency())
	}
	if cfg.GetDebounceInterval() != 100*time.Millisecond {
		t.Errorf("expected 100ms debounce, got %v", cfg.GetDebounceInterval())
	}
	if cfg.GetBufferPages() != 1 {
		t.Errorf("expected 1 buffer page, got %d", cfg.GetBufferPages())
	}
	if cfg.GetMaxLoadRetries() != 2 {
		t.Errorf("expected 2 load retries, got %d", cfg.GetMaxLoadRetries())
	}
	if cfg.GetRetryBackoffBase() != time.Second {
		t.Errorf("expected 1s backoff base, got %v", cfg.GetRetryBackoffBase())
	}
	if cfg.GetThumbnailScale() != 0.3 {
		t.Errorf("expected 0.3 thumbnail scale, got %v", cfg.GetThumbnailScale())
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("RENDER_CONCURRENCY", "5")
	t.Setenv("RENDER_DEBOUNCE_MS", "250")
	t.Setenv("THUMBNAIL_SCALE", "0.5")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := NewConfig()

	if cfg.GetRenderConcurrency() != 5 {
		t.Errorf("expected 5 from env, got %d", cfg.GetRenderConcurrency())
	}
	if cfg.GetDebounceInterval() != 250*time.Millisecond {
		t.Errorf("expected 250ms from env, got %v", cfg.GetDebounceInterval())
	}
	if cfg.GetThumbnailScale() != 0.5 {
		t.Errorf("expected 0.5 from env, got %v", cfg.GetThumbnailScale())
	}
	if cfg.GetLogLevel() != "debug" {
		t.Errorf("expected debug level, got %s", cfg.GetLogLevel())
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := NewConfig()
	cfg.RenderConcurrency = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation failure for zero concurrency")
	}

	cfg = NewConfig()
	cfg.ThumbnailScale = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation failure for thumbnail scale > 1")
	}

	cfg = NewConfig()
	cfg.LogLevel = "loud"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation failure for unknown log level")
	}
}

func TestIgnoresMalformedEnv(t *testing.T) {
	t.Setenv("RENDER_CONCURRENCY", "lots")
	t.Setenv("RENDER_DEBOUNCE_MS", "-5")

	cfg := NewConfig()

	if cfg.GetRenderConcurrency() != 3 {
		t.Errorf("malformed int must fall back to default, got %d", cfg.GetRenderConcurrency())
	}
	if cfg.GetDebounceInterval() != 100*time.Millisecond {
		t.Errorf("negative duration must fall back to default, got %v", cfg.GetDebounceInterval())
	}
}
