package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the optional ddupe configuration file.
type Config struct {
	Defaults DefaultsConfig `toml:"defaults"`
	Theme    ThemeConfig    `toml:"theme"`
}

// DefaultsConfig holds persistent flag defaults. Sizes are strings in the
// same syntax the flags accept ("4K", "1.5G").
type DefaultsConfig struct {
	Workers     *int     `toml:"workers"`
	ScanWorkers *int     `toml:"scan_workers"`
	MinSize     *string  `toml:"min_size"`
	MaxSize     *string  `toml:"max_size"`
	PrefixBytes *string  `toml:"prefix_bytes"`
	IOLimit     *string  `toml:"io_limit"`
	SkipHidden  *bool    `toml:"skip_hidden"`
	Report      *string  `toml:"report"`
	Exclude     []string `toml:"exclude"`
}

// ThemeConfig holds optional color overrides.
type ThemeConfig struct {
	Keep   *string `toml:"keep"`
	Dupe   *string `toml:"dupe"`
	Warn   *string `toml:"warn"`
	Accent *string `toml:"accent"`
	Muted  *string `toml:"muted"`
	Bright *string `toml:"bright"`
}

// Path returns the resolved path to the config file.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "ddupe", "config.toml")
}

// Load reads the config file from the XDG path. Returns a zero Config
// (no error) if the file does not exist. Config is always optional.
func Load() (Config, error) {
	path := Path()
	if path == "" {
		return Config{}, nil
	}
	return LoadFile(path)
}

// LoadFile reads the config at path. A missing file yields a zero Config.
func LoadFile(path string) (Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, nil
}

// Save writes cfg to path, creating the parent directory. It refuses to
// overwrite an existing file.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return fmt.Errorf("write config: %w", err)
	}
	return f.Close()
}
