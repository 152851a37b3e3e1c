// Package config handles application configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const (
	appName        = "vtype"
	configFileName = "config.json"
)

// Config represents the application configuration.
type Config struct {
	// Hotkey is the global toggle chord, gohook key names.
	Hotkey []string `json:"hotkey"`

	// Engine selects the transcription engine: "worker" or "whisper-api".
	Engine string `json:"engine"`

	// WorkerScript is the transcription worker script path (worker engine).
	WorkerScript string `json:"worker_script,omitempty"`

	// APIKey and Model configure the whisper-api engine.
	APIKey string `json:"api_key,omitempty"`
	Model  string `json:"model,omitempty"`

	// CacheDisabled turns off the transcript cache.
	CacheDisabled bool `json:"cache_disabled,omitempty"`

	// TrimSilence cuts leading and trailing silence before transcription.
	TrimSilence bool `json:"trim_silence,omitempty"`

	// DiagLogPath overrides the diagnostic log location.
	DiagLogPath string `json:"diag_log_path,omitempty"`

	// Timing overrides, milliseconds. Zero means the built-in default.
	DebounceMs    int `json:"debounce_ms,omitempty"`
	MinDurationMs int `json:"min_duration_ms,omitempty"`
	StopGraceMs   int `json:"stop_grace_ms,omitempty"`
}

// Load loads configuration from the config file.
// Returns default config if the file doesn't exist.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, fmt.Errorf("get config path: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Save persists the configuration to disk.
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return fmt.Errorf("get config path: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

func (c *Config) applyDefaults() {
	if len(c.Hotkey) == 0 {
		c.Hotkey = defaultHotkey()
	}
	if c.Engine == "" {
		c.Engine = "worker"
	}
	if c.WorkerScript == "" {
		c.WorkerScript = "transcribe_wav.py"
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// defaultHotkey mirrors the platform conventions: Command-Option-R on macOS,
// Ctrl-Alt-R elsewhere.
func defaultHotkey() []string {
	if runtime.GOOS == "darwin" {
		return []string{"cmd", "alt", "r"}
	}
	return []string{"ctrl", "alt", "r"}
}

func configPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName, configFileName), nil
}
