package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LLMProvider != "openai" {
		t.Errorf("expected default provider openai, got %s", cfg.LLMProvider)
	}
	if !cfg.CacheEnabled {
		t.Error("expected caching enabled by default")
	}
	if cfg.DatabasePath == "" {
		t.Error("expected a default database path")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "deepseek")
	t.Setenv("LLM_MODEL", "deepseek-chat")
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("DATABASE_PATH", "/tmp/board.db")

	cfg := DefaultConfig()

	if cfg.LLMProvider != "deepseek" {
		t.Errorf("expected provider override, got %s", cfg.LLMProvider)
	}
	if cfg.LLMModel != "deepseek-chat" {
		t.Errorf("expected model override, got %s", cfg.LLMModel)
	}
	if cfg.CacheEnabled {
		t.Error("expected CACHE_ENABLED=false to disable caching")
	}
	if cfg.DatabasePath != "/tmp/board.db" {
		t.Errorf("expected database path override, got %s", cfg.DatabasePath)
	}
}

func TestEnsureDirectories(t *testing.T) {
	root := t.TempDir()
	cfg := &Config{
		ProjectDir:   root,
		DataDir:      filepath.Join(root, "data"),
		DataCacheDir: filepath.Join(root, "data", "cache"),
		DatabasePath: filepath.Join(root, "data", "db", "boardroom.db"),
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	for _, dir := range []string{cfg.DataDir, cfg.DataCacheDir, filepath.Dir(cfg.DatabasePath)} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("expected directory %s to exist", dir)
		}
	}
}
