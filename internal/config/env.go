package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/term"
)

// Config contains all configuration parameters for the application.
type Config struct {
	Port      string `envconfig:"PORT" default:"8080"`
	QRSize    int    `envconfig:"QR_SIZE" default:"256"`
	QRLevel   string `envconfig:"QR_LEVEL" default:"medium"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`

	// SessionTTL is how long an idle session is kept before it is dropped
	SessionTTL  time.Duration `envconfig:"SESSION_TTL" default:"15m"`
	MaxSessions int           `envconfig:"MAX_SESSIONS" default:"1000"`
}

// cfg is the global configuration instance
var cfg *Config

// Init loads configuration from environment variables.
func Init() error {
	c := &Config{}
	if err := envconfig.Process("", c); err != nil {
		return fmt.Errorf("failed to process config: %w", err)
	}
	if c.QRSize <= 0 {
		return fmt.Errorf("QR_SIZE must be positive, got %d", c.QRSize)
	}
	if c.SessionTTL < 0 || c.MaxSessions < 0 {
		return fmt.Errorf("SESSION_TTL and MAX_SESSIONS must not be negative")
	}
	cfg = c
	return nil
}

// Get returns the global configuration instance.
// Panics if Init() was not called.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized, call Init() first")
	}
	return cfg
}

// GetPort returns port from configuration
func GetPort() string {
	return Get().Port
}

// GetQRSize returns rendered QR image size in pixels
func GetQRSize() int {
	return Get().QRSize
}

// GetQRLevel returns QR error correction level name
func GetQRLevel() string {
	return Get().QRLevel
}

// GetLogLevel returns log level name
func GetLogLevel() string {
	return Get().LogLevel
}

// GetLogFormat returns log format (console or json)
func GetLogFormat() string {
	return Get().LogFormat
}

// GetSessionTTL returns how long idle sessions are kept
func GetSessionTTL() time.Duration {
	return Get().SessionTTL
}

// GetMaxSessions returns the session store capacity
func GetMaxSessions() int {
	return Get().MaxSessions
}

// IsInteractive reports whether stdout is a terminal, i.e. whether a QR code
// drawn with block characters can be scanned off the screen.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
