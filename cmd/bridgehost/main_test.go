//go:build !js

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	inputbridge "github.com/webigeo/inputbridge"
	"github.com/webigeo/inputbridge/internal/core"
	"github.com/webigeo/inputbridge/internal/journal"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Host.Listen != inputbridge.DefaultConfig().Host.Listen {
		t.Errorf("listen = %q", cfg.Host.Listen)
	}
}

func TestLoadConfig_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("toggle_key = \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(path); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestRun_ListSessionsNeedsJournal(t *testing.T) {
	err := run(context.Background(), inputbridge.DefaultConfig(), cliOpts{sessions: true})
	if err == nil {
		t.Fatal("expected an error without journal_path")
	}
}

func TestRun_ReplayWithoutScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calls.db")
	jr, err := journal.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	rec := jr.Recorder("s1", nil)
	if err := rec.Call(context.Background(), core.CallResize, 800, 600); err != nil {
		t.Fatalf("record: %v", err)
	}
	jr.Close()

	cfg := inputbridge.DefaultConfig()
	cfg.Host.JournalPath = path
	if err := run(context.Background(), cfg, cliOpts{replay: "s1"}); err != nil {
		t.Fatalf("replay: %v", err)
	}
}
