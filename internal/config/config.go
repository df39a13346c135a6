package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	appName        = "commitquery"
	configFileName = "config.yml"

	EnvServer   = "CQ_SERVER"
	EnvTimeout  = "CQ_TIMEOUT"
	EnvPageSize = "CQ_PAGE_SIZE"
)

// Config holds the client settings.
type Config struct {
	// Base URL of the commit query server.
	Server string
	// Per-attempt HTTP timeout.
	Timeout time.Duration
	// Page size preset in the query form.
	PageSize int
	// Extra attempts for list and export requests after a transport failure.
	Retries int

	// Directory holding the config file and the stored token.
	Dir string
}

// File is the content of config.yml. Keys missing from the file stay nil,
// so an explicit zero such as `retries: 0` still takes effect.
type File struct {
	Server   *string        `yaml:"server,omitempty"`
	Timeout  *time.Duration `yaml:"timeout,omitempty"`
	PageSize *int           `yaml:"page_size,omitempty"`
	Retries  *int           `yaml:"retries,omitempty"`
}

// Keys lists the settings config.yml accepts.
var Keys = []string{"server", "timeout", "page_size", "retries"}

// Overrides carries values set through command-line flags. Zero values are ignored.
type Overrides struct {
	ConfigDir string
	Server    string
	Timeout   time.Duration
	PageSize  int
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Server:   "http://127.0.0.1:8080",
		Timeout:  30 * time.Second,
		PageSize: 10,
		Retries:  1,
	}
}

// Dir returns the platform-appropriate config directory.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", appName), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, appName), nil
		}
		return filepath.Join(home, "AppData", "Roaming", appName), nil
	default:
		return filepath.Join(home, ".config", appName), nil
	}
}

// Path returns the config file location inside dir.
func Path(dir string) string {
	return filepath.Join(dir, configFileName)
}

// LoadFile reads the config file in dir. A missing file yields an empty File.
func LoadFile(dir string) (File, error) {
	data, err := os.ReadFile(Path(dir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return File{}, nil
		}
		return File{}, fmt.Errorf("reading config file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("parsing config file: %w", err)
	}
	return f, nil
}

// Save writes f to config.yml in dir, creating the directory if needed.
func Save(dir string, f File) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(Path(dir), data, 0o644)
}

// Set parses value for key and stores it in f. The result is checked
// against the defaults so a bad value never reaches the file.
func (f *File) Set(key, value string) error {
	next := *f
	value = strings.TrimSpace(value)
	switch key {
	case "server":
		v := strings.TrimRight(value, "/")
		next.Server = &v
	case "timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid timeout: %w", err)
		}
		next.Timeout = &d
	case "page_size", "retries":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		if key == "page_size" {
			next.PageSize = &n
		} else {
			next.Retries = &n
		}
	default:
		return fmt.Errorf("unknown key %q (known: %s)", key, strings.Join(Keys, ", "))
	}

	cfg := Default()
	next.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	*f = next
	return nil
}

func (f File) apply(cfg *Config) {
	if f.Server != nil {
		cfg.Server = *f.Server
	}
	if f.Timeout != nil {
		cfg.Timeout = *f.Timeout
	}
	if f.PageSize != nil {
		cfg.PageSize = *f.PageSize
	}
	if f.Retries != nil {
		cfg.Retries = *f.Retries
	}
}

// Load builds the effective config: defaults <- file <- env <- overrides.
func Load(o Overrides) (Config, error) {
	dir := o.ConfigDir
	if dir == "" {
		d, err := Dir()
		if err != nil {
			return Config{}, err
		}
		dir = d
	}

	cfg := Default()
	f, err := LoadFile(dir)
	if err != nil {
		return Config{}, err
	}
	f.apply(&cfg)

	if err := mergeEnv(&cfg); err != nil {
		return Config{}, err
	}

	o.apply(&cfg)
	cfg.Dir = dir
	cfg.Server = strings.TrimRight(cfg.Server, "/")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the client cannot run with.
func (c Config) Validate() error {
	if c.Server == "" {
		return errors.New("server must be set")
	}
	if !strings.HasPrefix(c.Server, "http://") && !strings.HasPrefix(c.Server, "https://") {
		return fmt.Errorf("server %q must start with http:// or https://", c.Server)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.PageSize < 1 || c.PageSize > 100 {
		return fmt.Errorf("page_size must be between 1 and 100, got %d", c.PageSize)
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries must not be negative, got %d", c.Retries)
	}
	return nil
}

func (o Overrides) apply(cfg *Config) {
	if o.Server != "" {
		cfg.Server = o.Server
	}
	if o.Timeout != 0 {
		cfg.Timeout = o.Timeout
	}
	if o.PageSize != 0 {
		cfg.PageSize = o.PageSize
	}
}

func mergeEnv(cfg *Config) error {
	if v := os.Getenv(EnvServer); v != "" {
		cfg.Server = v
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvTimeout, err)
		}
		cfg.Timeout = d
	}
	if v := os.Getenv(EnvPageSize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvPageSize, err)
		}
		cfg.PageSize = n
	}
	return nil
}
