package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	defaultSampleRate    = 16000
	defaultWindowSamples = 4000
	defaultSilenceMS     = 500
	defaultStateDirLinux = ".local/state/turnscribe"
	defaultConfigDir     = ".config/turnscribe"
	DefaultModel         = "ggml-medium-q5_1.bin"
)

// Config holds user configuration loaded from TOML.
type Config struct {
	Audio struct {
		SampleRate    int    `toml:"sample_rate"`
		WindowSamples int    `toml:"window_samples"`
		DeviceName    string `toml:"device_name"`
	} `toml:"audio"`

	VAD struct {
		FrameMS        int `toml:"frame_ms"`
		Aggressiveness int `toml:"aggressiveness"`
		SilenceMS      int `toml:"silence_ms"`
		MaxSegmentMS   int `toml:"max_segment_ms"`
	} `toml:"vad"`

	ASR struct {
		ModelPath string `toml:"model_path"`
		Language  string `toml:"language"`
		Threads   int    `toml:"threads"` // 0 = all cores
	} `toml:"asr"`

	Diarize struct {
		Command     string  `toml:"command"` // split with shell quoting rules; audio path appended
		NumSpeakers int     `toml:"num_speakers"`
		TimeoutSec  float64 `toml:"timeout_sec"`
	} `toml:"diarize"`

	Naming struct {
		NamesFile string `toml:"names_file"` // YAML speaker id -> name; empty = prompt
	} `toml:"naming"`

	Output struct {
		Suffix string `toml:"suffix"`
	} `toml:"output"`

	Hook struct {
		Command    string            `toml:"command"`
		Args       []string          `toml:"args"`
		TimeoutSec float64           `toml:"timeout_sec"`
		Env        map[string]string `toml:"env"`
		RedactPII  bool              `toml:"redact_pii"`
	} `toml:"hook"`

	Logging struct {
		Level  string `toml:"level"`  // debug, info, warn, error
		Format string `toml:"format"` // text, json
		Stdout bool   `toml:"stdout"`
	} `toml:"logging"`

	Paths struct {
		StateDir   string `toml:"state_dir"`
		LogPath    string `toml:"log_path"`
		DBPath     string `toml:"db_path"`
		TmpDir     string `toml:"tmp_dir"`
		ModelDir   string `toml:"model_dir"`
		ConfigPath string `toml:"-"`
	} `toml:"paths"`

	History struct {
		Enabled bool `toml:"enabled"`
	} `toml:"history"`
}

// Default returns Config populated with defaults.
func Default() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	stateDir := filepath.Join(home, defaultStateDirLinux)
	// macOS prefers ~/Library/Application Support/turnscribe for state/logs
	if isMac() {
		stateDir = filepath.Join(home, "Library", "Application Support", "turnscribe")
	}
	modelDir := filepath.Join(stateDir, "models")

	cfg := &Config{}

	cfg.Audio.SampleRate = defaultSampleRate
	cfg.Audio.WindowSamples = defaultWindowSamples

	cfg.VAD.FrameMS = 10
	cfg.VAD.Aggressiveness = 2
	cfg.VAD.SilenceMS = defaultSilenceMS
	cfg.VAD.MaxSegmentMS = 15000

	cfg.ASR.ModelPath = filepath.Join(modelDir, DefaultModel)
	cfg.ASR.Language = "en"

	cfg.Diarize.Command = "python3 -m turnscribe_diarize"
	cfg.Diarize.TimeoutSec = 3600

	cfg.Output.Suffix = ".transcription"

	cfg.Hook.TimeoutSec = 30
	cfg.Hook.Env = map[string]string{}

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"

	cfg.Paths.StateDir = stateDir
	cfg.Paths.LogPath = filepath.Join(stateDir, "turnscribe.log")
	cfg.Paths.DBPath = filepath.Join(stateDir, "history.db")
	cfg.Paths.TmpDir = filepath.Join(stateDir, "tmp")
	cfg.Paths.ModelDir = modelDir

	cfg.History.Enabled = true

	return cfg, nil
}

// Load loads config from file, applying defaults.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if path == "" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, defaultConfigDir, "config.toml")
	}

	// Read if exists; otherwise write template.
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err := Save(cfg, path); err != nil {
				return nil, err
			}
			cfg.Paths.ConfigPath = path
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Paths.ConfigPath = path
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Save writes cfg to path.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o600)
}

func isMac() bool {
	return runtime.GOOS == "darwin"
}

// MustStatePaths ensures state dirs exist.
func MustStatePaths(cfg *Config) error {
	for _, p := range []string{
		cfg.Paths.StateDir,
		cfg.Paths.TmpDir,
		filepath.Dir(cfg.Paths.LogPath),
		filepath.Dir(cfg.Paths.DBPath),
	} {
		if p == "" || p == "." {
			continue
		}
		if err := os.MkdirAll(p, 0o755); err != nil {
			return err
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TURNSCRIBE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TURNSCRIBE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("TURNSCRIBE_MODEL"); v != "" {
		cfg.ASR.ModelPath = v
	}
	if v := os.Getenv("TURNSCRIBE_DIARIZE_COMMAND"); v != "" {
		cfg.Diarize.Command = v
	}
	if v := os.Getenv("TURNSCRIBE_NAMES_FILE"); v != "" {
		cfg.Naming.NamesFile = v
	}
	if v := os.Getenv("TURNSCRIBE_HISTORY_ENABLED"); v != "" {
		cfg.History.Enabled = v != "0" && strings.ToLower(v) != "false"
	}
}
