package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if cfg.Compression != "auto" {
		t.Errorf("expected default compression auto, got %s", cfg.Compression)
	}
	if cfg.Checkpoint.Interval != 100 {
		t.Errorf("expected default checkpoint interval 100, got %d", cfg.Checkpoint.Interval)
	}
	if cfg.Retry.InitialDelay != time.Second {
		t.Errorf("expected default initial delay 1s, got %v", cfg.Retry.InitialDelay)
	}
	if cfg.Retry.MaxDelay != 30*time.Second {
		t.Errorf("expected default max delay 30s, got %v", cfg.Retry.MaxDelay)
	}
	if cfg.Retry.MaxRetryTime != time.Hour {
		t.Errorf("expected default max retry time 1h, got %v", cfg.Retry.MaxRetryTime)
	}
}

func TestLoadFromYAML(t *testing.T) {
	yamlContent := `
url: https://example.com/data.jsonl.gz
output: /tmp/out.jsonl
compression: gzip
progress: true
checkpoint:
  bucket: s3://my-bucket
  key: checkpoints/data.json
  interval: 50
retry:
  initial_delay: 2s
  max_delay: 60s
  max_retry_time: 30m
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.URL != "https://example.com/data.jsonl.gz" {
		t.Errorf("expected URL, got %s", cfg.URL)
	}
	if cfg.Output != "/tmp/out.jsonl" {
		t.Errorf("expected output /tmp/out.jsonl, got %s", cfg.Output)
	}
	if cfg.Compression != "gzip" {
		t.Errorf("expected compression gzip, got %s", cfg.Compression)
	}
	if !cfg.Progress {
		t.Error("expected progress true")
	}
	if cfg.Checkpoint.Bucket != "s3://my-bucket" {
		t.Errorf("expected checkpoint bucket, got %s", cfg.Checkpoint.Bucket)
	}
	if cfg.Checkpoint.Key != "checkpoints/data.json" {
		t.Errorf("expected checkpoint key, got %s", cfg.Checkpoint.Key)
	}
	if cfg.Checkpoint.Interval != 50 {
		t.Errorf("expected checkpoint interval 50, got %d", cfg.Checkpoint.Interval)
	}
	if cfg.Retry.InitialDelay != 2*time.Second {
		t.Errorf("expected initial delay 2s, got %v", cfg.Retry.InitialDelay)
	}
	if cfg.Retry.MaxDelay != 60*time.Second {
		t.Errorf("expected max delay 60s, got %v", cfg.Retry.MaxDelay)
	}
	if cfg.Retry.MaxRetryTime != 30*time.Minute {
		t.Errorf("expected max retry time 30m, got %v", cfg.Retry.MaxRetryTime)
	}
}

func TestLoadFromYAMLPartial(t *testing.T) {
	yamlContent := `
url: https://example.com/data.jsonl
retry:
  initial_delay: 5s
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.Retry.InitialDelay != 5*time.Second {
		t.Errorf("expected initial delay 5s, got %v", cfg.Retry.InitialDelay)
	}
	// Unset fields fall back to defaults.
	if cfg.Retry.MaxDelay != 30*time.Second {
		t.Errorf("expected default max delay 30s, got %v", cfg.Retry.MaxDelay)
	}
	if cfg.Compression != "auto" {
		t.Errorf("expected default compression auto, got %s", cfg.Compression)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STREAMJSONL_URL", "https://example.com/env.jsonl")
	t.Setenv("STREAMJSONL_COMPRESSION", "none")
	t.Setenv("STREAMJSONL_PROGRESS", "true")
	t.Setenv("STREAMJSONL_CHECKPOINT_BUCKET", "mem://")
	t.Setenv("STREAMJSONL_CHECKPOINT_KEY", "cp.json")
	t.Setenv("STREAMJSONL_CHECKPOINT_INTERVAL", "25")
	t.Setenv("STREAMJSONL_RETRY_INITIAL_DELAY", "500ms")
	t.Setenv("STREAMJSONL_RETRY_MAX_DELAY", "10s")
	t.Setenv("STREAMJSONL_RETRY_MAX_RETRY_TIME", "5m")

	cfg := Default()
	if err := cfg.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}

	if cfg.URL != "https://example.com/env.jsonl" {
		t.Errorf("expected URL from env, got %s", cfg.URL)
	}
	if cfg.Compression != "none" {
		t.Errorf("expected compression none, got %s", cfg.Compression)
	}
	if !cfg.Progress {
		t.Error("expected progress true")
	}
	if cfg.Checkpoint.Bucket != "mem://" {
		t.Errorf("expected checkpoint bucket mem://, got %s", cfg.Checkpoint.Bucket)
	}
	if cfg.Checkpoint.Interval != 25 {
		t.Errorf("expected checkpoint interval 25, got %d", cfg.Checkpoint.Interval)
	}
	if cfg.Retry.InitialDelay != 500*time.Millisecond {
		t.Errorf("expected initial delay 500ms, got %v", cfg.Retry.InitialDelay)
	}
	if cfg.Retry.MaxDelay != 10*time.Second {
		t.Errorf("expected max delay 10s, got %v", cfg.Retry.MaxDelay)
	}
	if cfg.Retry.MaxRetryTime != 5*time.Minute {
		t.Errorf("expected max retry time 5m, got %v", cfg.Retry.MaxRetryTime)
	}
}

func TestLoadFromEnvInvalidDuration(t *testing.T) {
	t.Setenv("STREAMJSONL_RETRY_INITIAL_DELAY", "not-a-duration")

	cfg := Default()
	if err := cfg.LoadFromEnv(); err == nil {
		t.Error("expected error for invalid duration")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: Config{
				URL:         "https://example.com/data.jsonl",
				Compression: "auto",
				Checkpoint:  CheckpointConfig{Interval: 100},
			},
			wantErr: false,
		},
		{
			name: "missing URL",
			cfg: Config{
				Compression: "auto",
				Checkpoint:  CheckpointConfig{Interval: 100},
			},
			wantErr: true,
		},
		{
			name: "invalid compression",
			cfg: Config{
				URL:         "https://example.com/data.jsonl",
				Compression: "brotli",
				Checkpoint:  CheckpointConfig{Interval: 100},
			},
			wantErr: true,
		},
		{
			name: "checkpoint bucket without key",
			cfg: Config{
				URL:         "https://example.com/data.jsonl",
				Compression: "auto",
				Checkpoint:  CheckpointConfig{Bucket: "s3://bucket", Interval: 100},
			},
			wantErr: true,
		},
		{
			name: "non-positive checkpoint interval",
			cfg: Config{
				URL:         "https://example.com/data.jsonl",
				Compression: "auto",
				Checkpoint:  CheckpointConfig{Interval: 0},
			},
			wantErr: true,
		},
		{
			name: "negative retry delay",
			cfg: Config{
				URL:         "https://example.com/data.jsonl",
				Compression: "auto",
				Checkpoint:  CheckpointConfig{Interval: 100},
				Retry:       RetryConfig{InitialDelay: -time.Second},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := Default()
	base.URL = "https://example.com/base.jsonl"
	base.Checkpoint.Bucket = "s3://bucket"
	base.Checkpoint.Key = "cp.json"

	override := Config{
		Compression: "gzip",
		Retry:       RetryConfig{InitialDelay: 2 * time.Second},
	}

	merged := base.Merge(override)

	if merged.URL != "https://example.com/base.jsonl" {
		t.Errorf("expected URL preserved, got %s", merged.URL)
	}
	if merged.Checkpoint.Bucket != "s3://bucket" {
		t.Errorf("expected checkpoint bucket preserved, got %s", merged.Checkpoint.Bucket)
	}
	if merged.Checkpoint.Interval != 100 {
		t.Errorf("expected checkpoint interval preserved, got %d", merged.Checkpoint.Interval)
	}
	if merged.Retry.MaxDelay != 30*time.Second {
		t.Errorf("expected max delay preserved, got %v", merged.Retry.MaxDelay)
	}

	if merged.Compression != "gzip" {
		t.Errorf("expected compression overridden to gzip, got %s", merged.Compression)
	}
	if merged.Retry.InitialDelay != 2*time.Second {
		t.Errorf("expected initial delay overridden to 2s, got %v", merged.Retry.InitialDelay)
	}
}

func TestLoadYAMLFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadYAMLInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	_, err := LoadFromFile(configPath)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}
