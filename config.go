package inputbridge

import (
	"bytes"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/webigeo/inputbridge/internal/console"
	"github.com/webigeo/inputbridge/internal/emulator"
	"github.com/webigeo/inputbridge/internal/upload"
)

// Config holds the bridge settings. The zero value is usable; DefaultConfig
// fills in the documented defaults explicitly.
type Config struct {
	// ToggleKey is the key value that shows or hides the log panel.
	ToggleKey string `toml:"toggle_key"`
	// CoalesceMoves lets a queued pointer or touch move be replaced by a
	// newer one when nothing else was queued after it. Replaced touch moves
	// are merged: every contact changed in either batch is reported as
	// changed, at its latest position.
	CoalesceMoves bool `toml:"coalesce_moves"`
	// CoalesceResize does the same for resize notifications.
	CoalesceResize bool `toml:"coalesce_resize"`
	// EmulatorScript is the URL of the touch emulator.
	EmulatorScript string `toml:"emulator_script"`
	// UploadDir is where uploaded files land in the module file system.
	UploadDir string `toml:"upload_dir"`
	// EchoLog also writes every panel line to the process log.
	EchoLog bool `toml:"echo_log"`

	Host HostConfig `toml:"host"`
}

// HostConfig configures the development host (cmd/bridgehost). Uploaded
// files land under UploadRoot, which should lie outside ShellDir so they
// are never served back as page assets.
type HostConfig struct {
	Listen              string   `toml:"listen"`
	ShellDir            string   `toml:"shell_dir"`
	UploadRoot          string   `toml:"upload_root"`
	Scripts             []string `toml:"scripts"`
	NativeScript        string   `toml:"native_script"`
	JournalPath         string   `toml:"journal_path"`
	MemoryLimitMB       int      `toml:"memory_limit_mb"`
	ExecutionTimeoutMS  int      `toml:"execution_timeout_ms"`
	BrotliLevel         int      `toml:"brotli_level"`
	CrossOriginIsolated bool     `toml:"cross_origin_isolated"`
	OriginPatterns      []string `toml:"origin_patterns"`
}

// DefaultConfig returns the default settings.
func DefaultConfig() Config {
	return Config{
		ToggleKey:      console.DefaultToggleKey,
		EmulatorScript: emulator.DefaultScript,
		UploadDir:      upload.DefaultDir,
		Host: HostConfig{
			Listen:             "127.0.0.1:8080",
			ShellDir:           "shell",
			UploadRoot:         "uploads",
			Scripts:            []string{"wasm_exec.js"},
			MemoryLimitMB:      128,
			ExecutionTimeoutMS: 5000,
			BrotliLevel:        6,
		},
	}
}

// LoadConfig reads a TOML file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, nil
}

// WriteConfig writes cfg as TOML to path.
func WriteConfig(path string, cfg Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}
