package shared

import (
	_ "embed"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
//
// Environment variables prefixed with DTX_ take precedence over file values.
type Config struct {
	Log     LogConfig     `toml:"log" envPrefix:"DTX_LOG_"`
	Scanner ScannerConfig `toml:"scanner" envPrefix:"DTX_SCANNER_"`
	JWT     JWTConfig     `toml:"jwt" envPrefix:"DTX_JWT_"`
	QR      QRConfig      `toml:"qr" envPrefix:"DTX_QR_"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level" env:"LEVEL"`
}

// ScannerConfig contains settings for the browser-based QR scanner.
type ScannerConfig struct {
	Host        string        `toml:"host" env:"HOST"`
	OpenBrowser bool          `toml:"open_browser" env:"OPEN_BROWSER"`
	Timeout     time.Duration `toml:"timeout" env:"TIMEOUT"`
	RateLimit   float64       `toml:"rate_limit" env:"RATE_LIMIT"`
	Burst       int           `toml:"burst" env:"BURST"`
}

// JWTConfig contains defaults for the jwt commands.
type JWTConfig struct {
	Algorithm string `toml:"algorithm" env:"ALGORITHM"`
	Secret    string `toml:"secret" env:"SECRET"`
}

// QRConfig contains defaults for QR code rendering.
type QRConfig struct {
	Size  int    `toml:"size" env:"SIZE"`
	Level string `toml:"level" env:"LEVEL"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values, and DTX_* environment variables are applied last.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := ApplyEnv(config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// ResolveConfig loads the config file at path when it exists, falling back to defaults otherwise.
//
// Environment overrides and validation apply in both cases.
func ResolveConfig(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return LoadConfig(path)
		}
	}

	config := DefaultConfig()
	if err := ApplyEnv(config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// ApplyEnv overrides config fields with any DTX_* environment variables that are set.
func ApplyEnv(config *Config) error {
	if err := env.Parse(config); err != nil {
		return fmt.Errorf("%w: parse env: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return err
	}
	if !IsLoopbackHost(c.Scanner.Host) {
		return fmt.Errorf("%w: scanner host %q is not a loopback address", ErrInvalidConfig, c.Scanner.Host)
	}
	if c.Scanner.Timeout < 0 {
		return fmt.Errorf("%w: scanner timeout must not be negative", ErrInvalidConfig)
	}
	if c.Scanner.RateLimit < 0 || c.Scanner.Burst < 0 {
		return fmt.Errorf("%w: scanner rate limit and burst must not be negative", ErrInvalidConfig)
	}
	if c.QR.Size <= 0 {
		return fmt.Errorf("%w: qr size must be positive", ErrInvalidConfig)
	}
	if _, ok := CanonicalQRLevel(c.QR.Level); !ok {
		return fmt.Errorf("%w: qr level %q, use low, medium, high, or highest", ErrInvalidConfig, c.QR.Level)
	}
	if _, ok := CanonicalAlgorithm(c.JWT.Algorithm); !ok {
		return fmt.Errorf("%w: jwt algorithm %q, use HS256, HS384, or HS512", ErrInvalidConfig, c.JWT.Algorithm)
	}
	return nil
}

// CanonicalQRLevel maps an error-correction level name or its letter to low, medium, high or highest.
// An empty name means medium.
func CanonicalQRLevel(name string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "low", "l":
		return "low", true
	case "", "medium", "m":
		return "medium", true
	case "high", "q":
		return "high", true
	case "highest", "h":
		return "highest", true
	default:
		return "", false
	}
}

// CanonicalAlgorithm upper-cases an HMAC algorithm name and reports whether it is HS256, HS384 or HS512.
func CanonicalAlgorithm(name string) (string, bool) {
	alg := strings.ToUpper(strings.TrimSpace(name))
	switch alg {
	case "HS256", "HS384", "HS512":
		return alg, true
	default:
		return "", false
	}
}

// IsLoopbackHost reports whether host is "localhost" or a loopback IP literal.
func IsLoopbackHost(host string) bool {
	host = strings.Trim(host, "[]")
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// ExampleConfig returns a copy of the embedded example configuration.
func ExampleConfig() []byte {
	return append([]byte(nil), exampleConf...)
}

// CreateConfigFile creates a config file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
