// Package config handles application configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

const (
	appName        = "voxkey"
	configFileName = "config.json"
)

// Config represents the application configuration.
type Config struct {
	// TriggerKey is the push-to-talk key name, e.g. "f8".
	TriggerKey string `json:"trigger_key"`

	// Provider selects the transcription backend:
	// "whisper-native" or "whisper-api".
	Provider string `json:"provider"`

	// ModelPath is the whisper.cpp model file for the native provider.
	ModelPath string `json:"model_path,omitempty"`

	// API provider settings.
	APIKey  string `json:"api_key,omitempty"`
	BaseURL string `json:"base_url,omitempty"`
	Model   string `json:"model,omitempty"`

	// Language is the source language code, or "auto" to detect.
	Language string `json:"language"`

	// RealTime enables incremental commits while the key is held.
	RealTime bool `json:"real_time"`

	// Timing knobs for the session, in milliseconds.
	TickIntervalMs int `json:"tick_interval_ms,omitempty"`
	MinTickAudioMs int `json:"min_tick_audio_ms,omitempty"`
	MinDurationMs  int `json:"min_duration_ms,omitempty"`

	// SilenceRMS discards recordings quieter than this RMS level.
	// 0 disables the check.
	SilenceRMS float64 `json:"silence_rms,omitempty"`

	// InjectionMode is "paste" or "keystroke".
	InjectionMode string `json:"injection_mode"`

	// ClipboardOnly disables injection entirely; transcripts only land
	// on the clipboard.
	ClipboardOnly bool `json:"clipboard_only,omitempty"`

	// Injection timing, in milliseconds. Zero takes the built-in default.
	CharDelayMs        int `json:"char_delay_ms,omitempty"`
	PasteSettleMs      int `json:"paste_settle_ms,omitempty"`
	ClipboardRestoreMs int `json:"clipboard_restore_ms,omitempty"`

	// MaxTokens caps tokens per decoded segment. 0 means no cap.
	MaxTokens int `json:"max_tokens,omitempty"`

	// History settings.
	HistoryEnabled bool   `json:"history_enabled"`
	HistoryDir     string `json:"history_dir,omitempty"`

	// Notifications toggles desktop notifications.
	Notifications bool `json:"notifications"`

	// DumpDir, when set, receives a WAV file of every recording.
	DumpDir string `json:"dump_dir,omitempty"`
}

var validProviders = []string{"whisper-native", "whisper-api"}

// Load loads configuration from the user config directory.
// Returns default config if the file doesn't exist.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, fmt.Errorf("get config path: %w", err)
	}
	return LoadFile(path)
}

// LoadFile loads configuration from an explicit path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save persists the configuration to the user config directory.
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return fmt.Errorf("get config path: %w", err)
	}
	return c.SaveFile(path)
}

// SaveFile persists the configuration to an explicit path.
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
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

// Validate checks the fields that would otherwise fail deep inside a
// session, so misconfiguration surfaces at startup.
func (c *Config) Validate() error {
	if c.TriggerKey == "" {
		return fmt.Errorf("trigger key required")
	}
	if !slices.Contains(validProviders, c.Provider) {
		return fmt.Errorf("unknown provider: %s", c.Provider)
	}
	if c.Provider == "whisper-native" && c.ModelPath == "" {
		return fmt.Errorf("model path required for whisper-native")
	}
	if c.Provider == "whisper-api" && c.APIKey == "" {
		return fmt.Errorf("api key required for whisper-api")
	}
	if c.InjectionMode != "paste" && c.InjectionMode != "keystroke" {
		return fmt.Errorf("injection mode must be paste or keystroke, got %q", c.InjectionMode)
	}
	return nil
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		TriggerKey:     "f8",
		Provider:       "whisper-native",
		Language:       "auto",
		RealTime:       true,
		TickIntervalMs: 2000,
		MinTickAudioMs: 1000,
		MinDurationMs:  500,
		InjectionMode:  "paste",
		HistoryEnabled: true,
		Notifications:  true,
	}
}

// HistoryPath returns the directory for the transcript history store.
func (c *Config) HistoryPath() (string, error) {
	if c.HistoryDir != "" {
		return c.HistoryDir, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get user config dir: %w", err)
	}
	return filepath.Join(dir, appName, "history"), nil
}

func configPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get user config dir: %w", err)
	}
	return filepath.Join(dir, appName, configFileName), nil
}
