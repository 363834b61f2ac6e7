package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t, "STORE_DRIVER", "ANTHROPIC_API_KEY", "REDIS_ADDR", "CLASSIFIER_TIMEOUT_SECONDS", "APP_PORT", "REDIS_DB")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Store.Driver != StoreDriverPostgres {
		t.Fatalf("expected default driver postgres, got %q", cfg.Store.Driver)
	}
	if cfg.Classifier.APIKey != "" {
		t.Fatalf("expected empty API key, got %q", cfg.Classifier.APIKey)
	}
	if cfg.Classifier.Timeout() != 10*time.Second {
		t.Fatalf("expected 10s classifier timeout, got %s", cfg.Classifier.Timeout())
	}
	if cfg.Redis.Enabled() {
		t.Fatalf("expected redis disabled without REDIS_ADDR")
	}
	if cfg.App.Addr() != "0.0.0.0:8080" {
		t.Fatalf("unexpected addr %q", cfg.App.Addr())
	}
}

func TestLoadFromEnvFile(t *testing.T) {
	clearEnv(t, "STORE_DRIVER", "ANTHROPIC_API_KEY", "CLASSIFIER_CACHE_TTL_SECONDS", "REDIS_DB")
	os.Unsetenv("STORE_DRIVER")
	os.Unsetenv("ANTHROPIC_API_KEY")
	os.Unsetenv("CLASSIFIER_CACHE_TTL_SECONDS")

	path := filepath.Join(t.TempDir(), "test.env")
	content := "STORE_DRIVER=SQLite\nANTHROPIC_API_KEY=  sk-test  \nCLASSIFIER_CACHE_TTL_SECONDS=0\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Store.Driver != StoreDriverSQLite {
		t.Fatalf("expected sqlite driver, got %q", cfg.Store.Driver)
	}
	if cfg.Classifier.APIKey != "sk-test" {
		t.Fatalf("expected trimmed API key, got %q", cfg.Classifier.APIKey)
	}
	if cfg.Classifier.CacheTTL() != 0 {
		t.Fatalf("expected cache disabled, got %s", cfg.Classifier.CacheTTL())
	}
}

func TestLoadMissingEnvFileIsNotAnError(t *testing.T) {
	clearEnv(t, "STORE_DRIVER", "REDIS_DB")
	if _, err := Load(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("expected missing env file to be ignored, got %v", err)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	clearEnv(t, "REDIS_DB")
	t.Setenv("STORE_DRIVER", "mongo")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestLoadRejectsInvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid REDIS_DB")
	}
}
