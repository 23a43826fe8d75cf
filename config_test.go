package inputbridge

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.ToggleKey != "Dead" {
		t.Errorf("ToggleKey = %q", cfg.ToggleKey)
	}
	if cfg.CoalesceMoves || cfg.CoalesceResize {
		t.Error("coalescing must be off by default")
	}
	if cfg.UploadDir != "/upload" || cfg.EmulatorScript != "touch-emulator.js" {
		t.Errorf("paths = %q, %q", cfg.UploadDir, cfg.EmulatorScript)
	}
	if cfg.Host.UploadRoot == "" || cfg.Host.UploadRoot == cfg.Host.ShellDir {
		t.Errorf("upload root %q must be set apart from shell dir %q", cfg.Host.UploadRoot, cfg.Host.ShellDir)
	}
}

func TestConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.toml")
	cfg := DefaultConfig()
	cfg.CoalesceMoves = true
	cfg.Host.Listen = ":9000"
	cfg.Host.OriginPatterns = []string{"localhost:*"}
	if err := WriteConfig(path, cfg); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !reflect.DeepEqual(got, cfg) {
		t.Errorf("round trip = %+v, want %+v", got, cfg)
	}
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.toml")
	data := "toggle_key = \"F12\"\n\n[host]\nlisten = \":7000\"\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ToggleKey != "F12" || cfg.Host.Listen != ":7000" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.UploadDir != "/upload" || cfg.Host.MemoryLimitMB != 128 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadConfig(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}
	path := filepath.Join(dir, "typo.toml")
	_ = os.WriteFile(path, []byte("toogle_key = \"x\"\n"), 0o644)
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "toogle_key") {
		t.Errorf("err = %v, want unknown key error", err)
	}
}
