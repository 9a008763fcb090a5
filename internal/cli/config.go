package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/orizon-lang/wasmast/internal/linker"
	"github.com/orizon-lang/wasmast/internal/term"
)

// DefaultConfigFile is read from the working directory when --config is
// not given.
const DefaultConfigFile = "wasmast.json"

// Color modes
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// ServeConfig configures the parse service
type ServeConfig struct {
	Addr     string `json:"addr"`
	CertFile string `json:"cert_file,omitempty"`
	KeyFile  string `json:"key_file,omitempty"`
	HTTP3    bool   `json:"http3,omitempty"`
}

// Config represents the wasmast configuration file
type Config struct {
	Verbose bool   `json:"verbose"`
	Debug   bool   `json:"debug"`
	Index   bool   `json:"index"`
	Color   string `json:"color"`

	Serve ServeConfig `json:"serve"`

	// Host modules and version requirements used by `check`.
	Modules  []linker.HostModule `json:"modules,omitempty"`
	Requires map[string]string   `json:"requires,omitempty"`
}

// DefaultConfig returns the configuration used when no file exists
func DefaultConfig() *Config {
	return &Config{
		Color: ColorAuto,
		Serve: ServeConfig{Addr: "127.0.0.1:8437"},
	}
}

// LoadConfig loads configuration from file. A missing file yields the
// defaults.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if configPath == "" {
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return config, nil
}

// Validate reports settings that cannot be used
func (c *Config) Validate() error {
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("color must be %s, %s or %s, got %q", ColorAuto, ColorAlways, ColorNever, c.Color)
	}
	if c.Serve.HTTP3 && (c.Serve.CertFile == "" || c.Serve.KeyFile == "") {
		return fmt.Errorf("serve.http3 requires cert_file and key_file")
	}
	return nil
}

// SaveConfig saves configuration to file
func (c *Config) SaveConfig(configPath string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Manifest returns the host module manifest embedded in the config
func (c *Config) Manifest() *linker.Manifest {
	return &linker.Manifest{Modules: c.Modules, Requires: c.Requires}
}

// UseColor resolves the color mode for output written to fd
func (c *Config) UseColor(fd uintptr) bool {
	switch c.Color {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	return os.Getenv("NO_COLOR") == "" && term.IsTerminal(fd)
}
