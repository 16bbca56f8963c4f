package config

import (
	"os"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestMergeConfig(t *testing.T) {
	global := &Config{
		DefaultFormat: "table",
		ProfileFile:   "global.yaml",
		RedisAddr:     "localhost:6379",
	}
	local := &Config{
		ProfileFile: "local.yaml",
	}

	got := mergeConfig(global, local)
	if got.ProfileFile != "local.yaml" {
		t.Errorf("local profile_file should win, got %q", got.ProfileFile)
	}
	if got.RedisAddr != "localhost:6379" {
		t.Errorf("unset local value should preserve global, got %q", got.RedisAddr)
	}
	if got.DefaultFormat != "table" {
		t.Errorf("unexpected default_format %q", got.DefaultFormat)
	}
}

func TestKeywordMatchingEnabled(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	cfg := &Config{}
	if cfg.KeywordMatchingEnabled() {
		t.Error("no key and no setting should disable keyword matching")
	}

	t.Setenv("ANTHROPIC_API_KEY", "key")
	if !cfg.KeywordMatchingEnabled() {
		t.Error("key presence should enable keyword matching")
	}

	off := false
	cfg.KeywordMatching = &off
	if cfg.KeywordMatchingEnabled() {
		t.Error("explicit false should win over key presence")
	}
}

func TestRosterCacheTTL(t *testing.T) {
	cfg := &Config{}
	if cfg.RosterCacheTTL() != defaultRosterTTL {
		t.Errorf("expected default TTL, got %s", cfg.RosterCacheTTL())
	}
	cfg.RosterCacheTTLMinutes = 3
	if cfg.RosterCacheTTL() != 3*time.Minute {
		t.Errorf("expected 3m, got %s", cfg.RosterCacheTTL())
	}
}

func TestMinimalConfigIsValidYAML(t *testing.T) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(MinimalConfig()), &cfg); err != nil {
		t.Fatalf("minimal config template does not parse: %v", err)
	}
	if cfg.DefaultFormat != "table" {
		t.Errorf("unexpected default_format %q", cfg.DefaultFormat)
	}
}

func TestLoadWithoutFiles(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	t.Chdir(t.TempDir())
	defer func() { _ = os.Chdir(wd) }()

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DefaultFormat != "table" {
		t.Errorf("expected table default, got %q", cfg.DefaultFormat)
	}
}
