package logging

import (
	"io"
	"os"
	"strings"
)

// Config controls how the service logger is built.
type Config struct {
	// Level is the minimum severity to emit: debug, info, warn, error or
	// fatal. Unknown values fall back to info.
	Level string `yaml:"level"`
	// Format is accepted for configuration compatibility; entries are
	// always emitted as JSON.
	Format string `yaml:"format"`
	// Output is stdout, stderr, or a file path opened for append.
	Output string `yaml:"output"`
}

// DefaultConfig is the configuration used when none is supplied.
func DefaultConfig() *Config {
	return &Config{Level: "info", Format: "json", Output: "stderr"}
}

// NewLogger builds a Logger from the configuration. A nil configuration
// gets the defaults.
func NewLogger(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	output, err := openOutput(cfg.Output)
	if err != nil {
		return nil, err
	}
	return New(parseLevel(cfg.Level), output), nil
}

func parseLevel(name string) LogLevel {
	level := LogLevel(strings.ToUpper(name))
	if _, ok := levelRank[level]; ok {
		return level
	}
	return InfoLevel
}

func openOutput(destination string) (io.Writer, error) {
	switch destination {
	case "stdout":
		return os.Stdout, nil
	case "stderr", "":
		return os.Stderr, nil
	default:
		return os.OpenFile(destination, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	}
}
