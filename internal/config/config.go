package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/shlex"
	"github.com/mitchellh/go-homedir"
	toml "github.com/pelletier/go-toml/v2"
)

type Config struct {
	Converter ConverterConfig `toml:"converter"`
	Filters   FiltersConfig   `toml:"filters"`
	Server    ServerConfig    `toml:"server"`
	Tracking  TrackingConfig  `toml:"tracking"`
	Display   DisplayConfig   `toml:"display"`
	Tee       TeeConfig       `toml:"tee"`
}

// ConverterConfig names the external converter bridge command. Command may
// be a full command line when Args is empty: command = "ruby bridge.rb --json".
type ConverterConfig struct {
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
}

// CommandLine returns the program and its arguments.
func (c ConverterConfig) CommandLine() (string, []string, error) {
	if len(c.Args) > 0 {
		return c.Command, c.Args, nil
	}
	parts, err := shlex.Split(c.Command)
	if err != nil {
		return "", nil, fmt.Errorf("converter command: %w", err)
	}
	if len(parts) == 0 {
		return "", nil, fmt.Errorf("converter command: empty")
	}
	return parts[0], parts[1:], nil
}

type FiltersConfig struct {
	Dir string `toml:"dir"`
}

type ServerConfig struct {
	Port int `toml:"port"` // used by a bare --port
}

type TrackingConfig struct {
	Enabled bool   `toml:"enabled"`
	DBPath  string `toml:"db_path"`
}

type DisplayConfig struct {
	Color bool `toml:"color"`
}

type TeeConfig struct {
	Enabled     bool   `toml:"enabled"`
	Mode        string `toml:"mode"` // "failures", "always", "never"
	MaxFiles    int    `toml:"max_files"`
	MaxFileSize int64  `toml:"max_file_size"`
	Dir         string `toml:"dir"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		Converter: ConverterConfig{
			Command: "ruby2js-bridge",
		},
		Server: ServerConfig{
			Port: 8080,
		},
		Filters: FiltersConfig{
			Dir: filepath.Join(home, ".config", "ruby2js-demo", "filters"),
		},
		Tracking: TrackingConfig{
			Enabled: true,
			DBPath:  filepath.Join(home, ".local", "share", "ruby2js-demo", "conversions.db"),
		},
		Display: DisplayConfig{
			Color: true,
		},
		Tee: TeeConfig{
			Enabled:     true,
			Mode:        "failures",
			MaxFiles:    20,
			MaxFileSize: 1 << 20, // 1MB
			Dir:         filepath.Join(home, ".local", "share", "ruby2js-demo", "failed"),
		},
	}
}

// Load reads config from file, merging with defaults. Returns defaults if file missing.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	path := Path()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	for _, p := range []*string{&cfg.Filters.Dir, &cfg.Tracking.DBPath, &cfg.Tee.Dir} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", *p, err)
		}
		*p = expanded
	}

	return cfg, nil
}

// Path returns the config file location.
func Path() string {
	if p := os.Getenv("RUBY2JS_DEMO_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".config", "ruby2js-demo", "config.toml")
}
