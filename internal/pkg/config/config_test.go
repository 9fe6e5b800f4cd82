package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load with missing file should fall back to defaults: %v", err)
	}
	if cfg.App.RemoteCallTimeout.Std() != 3*time.Second {
		t.Errorf("default remote timeout = %v, want 3s", cfg.App.RemoteCallTimeout.Std())
	}
	if cfg.App.Topics.OrderEvents == "" || cfg.App.Topics.LowStock == "" {
		t.Error("default topics must be populated")
	}
}

func TestLoad_ParsesDurationsAndOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
app:
  remoteCallTimeout: 500ms
  deductMaxRetries: 7
  placementPolicy: "total_quantity <= 10"
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.RemoteCallTimeout.Std() != 500*time.Millisecond {
		t.Errorf("remote timeout = %v, want 500ms", cfg.App.RemoteCallTimeout.Std())
	}
	if cfg.App.DeductMaxRetries != 7 {
		t.Errorf("deduct retries = %d, want 7", cfg.App.DeductMaxRetries)
	}
	// 未覆盖的字段保留默认值
	if cfg.Infra.Redis.Addr != "localhost:6379" {
		t.Errorf("redis addr should keep its default, got %q", cfg.Infra.Redis.Addr)
	}
	if cfg.App.PlacementPolicy != "total_quantity <= 10" {
		t.Errorf("placement policy = %q", cfg.App.PlacementPolicy)
	}
}
