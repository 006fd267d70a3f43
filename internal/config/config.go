// Package config loads optional TOML configuration and supplies the
// defaults used when no file is present. CLI flags override anything
// loaded here.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

const (
	defaultMode         = "smart"
	defaultFormat       = "mp3"
	defaultThresholdDB  = -37.0
	defaultMinSilenceMS = 60
	defaultModel        = "medium"
	defaultLanguage     = "vi"
)

// Processing configures silence detection and the output container.
type Processing struct {
	Mode         string  `toml:"mode"`
	Format       string  `toml:"format"`
	ThresholdDB  float64 `toml:"threshold_db"`
	MinSilenceMS int     `toml:"min_silence_ms"`
}

// Recognizer configures the speech recognition backend used in smart mode.
type Recognizer struct {
	Model    string `toml:"model"`
	Language string `toml:"language"`
}

// Config encapsulates all configuration values for pausetune.
type Config struct {
	Processing Processing `toml:"processing"`
	Recognizer Recognizer `toml:"recognizer"`
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Processing: Processing{
			Mode:         defaultMode,
			Format:       defaultFormat,
			ThresholdDB:  defaultThresholdDB,
			MinSilenceMS: defaultMinSilenceMS,
		},
		Recognizer: Recognizer{
			Model:    defaultModel,
			Language: defaultLanguage,
		},
	}
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "pausetune", "config.toml"), nil
}

// Load parses and validates a configuration file. An empty path falls
// back to DefaultConfigPath; a missing file there is not an error and
// yields the defaults. The bool reports whether a file was read.
func Load(path string) (*Config, bool, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return nil, false, err
		}
		path = defaultPath
	}

	file, err := os.Open(path)
	switch {
	case err == nil:
		defer file.Close()
		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, false, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// Defaults only.
	default:
		return nil, false, fmt.Errorf("open config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, false, err
	}
	return &cfg, err == nil, nil
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	switch c.Processing.Mode {
	case "smart", "fast":
	default:
		return fmt.Errorf("processing.mode must be smart or fast, got %q", c.Processing.Mode)
	}
	switch c.Processing.Format {
	case "mp3", "wav":
	default:
		return fmt.Errorf("processing.format must be mp3 or wav, got %q", c.Processing.Format)
	}
	if c.Processing.ThresholdDB >= 0 {
		return errors.New("processing.threshold_db must be negative dBFS")
	}
	if c.Processing.MinSilenceMS <= 0 {
		return errors.New("processing.min_silence_ms must be positive")
	}
	if c.Recognizer.Model == "" {
		return errors.New("recognizer.model must be set")
	}
	return nil
}
