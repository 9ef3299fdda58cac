package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ncestudy/nce/internal/fsutil"
	"github.com/ncestudy/nce/internal/player"
)

const DefaultPath = "nce.yaml"

type Config struct {
	// root of the lesson library, one directory per book
	ContentDir   string `yaml:"content_dir"`
	ProgressFile string `yaml:"progress_file"`

	Playback struct {
		// continuous or single
		ReadMode string `yaml:"read_mode"`
		// none, one or all
		LoopMode          string        `yaml:"loop_mode"`
		Rate              float64       `yaml:"rate"`
		AutoNext          bool          `yaml:"auto_next"`
		TerminalThreshold time.Duration `yaml:"terminal_threshold"`
	} `yaml:"playback"`

	Translate struct {
		Provider       string `yaml:"provider"`
		Model          string `yaml:"model"`
		TargetLanguage string `yaml:"target_language"`
		BatchSize      int    `yaml:"batch_size"`
		Concurrency    int    `yaml:"concurrency"`
	} `yaml:"translate"`

	Transcribe struct {
		Provider string `yaml:"provider"`
		Model    string `yaml:"model"`
		Language string `yaml:"language"`
	} `yaml:"transcribe"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	path string
}

func Default() *Config {
	c := &Config{}

	c.ContentDir = "content"
	c.ProgressFile = "progress.yaml"

	c.Playback.ReadMode = "continuous"
	c.Playback.LoopMode = "none"
	c.Playback.Rate = 1
	c.Playback.AutoNext = false
	c.Playback.TerminalThreshold = time.Second

	c.Translate.Provider = "gemini"
	c.Translate.TargetLanguage = "Chinese"
	c.Translate.BatchSize = 50
	c.Translate.Concurrency = 4

	c.Transcribe.Provider = "gemini"
	c.Transcribe.Language = "English"

	c.Server.Addr = ":8080"

	return c
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg.normalize()
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	// fields absent from the file keep their defaults
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config back to the path it was loaded from.
func (c *Config) Save() error {
	path := c.path
	if path == "" {
		path = DefaultPath
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}

func (c *Config) Path() string {
	return c.path
}

func (c *Config) normalize() {
	c.ContentDir = filepath.Clean(strings.TrimSpace(c.ContentDir))
	c.ProgressFile = filepath.Clean(strings.TrimSpace(c.ProgressFile))

	c.Playback.ReadMode = strings.ToLower(strings.TrimSpace(c.Playback.ReadMode))
	c.Playback.LoopMode = strings.ToLower(strings.TrimSpace(c.Playback.LoopMode))
	if c.Playback.Rate <= 0 {
		c.Playback.Rate = 1
	}
	if c.Playback.TerminalThreshold <= 0 {
		c.Playback.TerminalThreshold = time.Second
	}

	c.Translate.Provider = strings.ToLower(strings.TrimSpace(c.Translate.Provider))
	if c.Translate.BatchSize <= 0 {
		c.Translate.BatchSize = 50
	}
	if c.Translate.Concurrency <= 0 {
		c.Translate.Concurrency = 1
	}

	c.Transcribe.Provider = strings.ToLower(strings.TrimSpace(c.Transcribe.Provider))
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
}

func (c *Config) Validate() error {
	if _, err := player.ParseReadMode(c.Playback.ReadMode); err != nil {
		return err
	}
	if _, err := player.ParseLoopMode(c.Playback.LoopMode); err != nil {
		return err
	}
	if c.Playback.Rate > 4 {
		return fmt.Errorf("playback rate %.2f out of range (0, 4]", c.Playback.Rate)
	}

	switch c.Translate.Provider {
	case "gemini", "openai", "anthropic":
	default:
		return fmt.Errorf("unsupported translation provider: %s", c.Translate.Provider)
	}
	switch c.Transcribe.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("unsupported transcription provider: %s", c.Transcribe.Provider)
	}
	return nil
}

// PlayerSettings converts the playback section into the player's settings.
// Load has validated the modes, so unknown values fall back to defaults.
func (c *Config) PlayerSettings() player.Settings {
	s := player.DefaultSettings()
	if single, err := player.ParseReadMode(c.Playback.ReadMode); err == nil {
		s.SingleSentence = single
	}
	if loop, err := player.ParseLoopMode(c.Playback.LoopMode); err == nil {
		s.Loop = loop
	}
	if c.Playback.Rate > 0 {
		s.Rate = c.Playback.Rate
	}
	return s
}

// SetPlayerSettings stores s in the playback section.
func (c *Config) SetPlayerSettings(s player.Settings) {
	c.Playback.ReadMode = "continuous"
	if s.SingleSentence {
		c.Playback.ReadMode = "single"
	}
	c.Playback.LoopMode = s.Loop.String()
	c.Playback.Rate = s.Rate
}
