package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

const (
	DefaultPort      = 8080
	DefaultLogLevel  = "info"
	DefaultBootDelay = 500 * time.Millisecond
)

type Config struct {
	Port int
	// Token gates /ws when set. Empty leaves the terminal public.
	Token     string
	DBPath    string
	CVPath    string
	LogLevel  string
	BootDelay time.Duration

	ConfigPath string
}

// DefaultPath is ~/.config/enesterm/config.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "enesterm", "config"), nil
}

// Load applies defaults and then the key=value file at path. An empty path
// uses DefaultPath; a missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	cfg := &Config{
		Port:       DefaultPort,
		DBPath:     filepath.Join(filepath.Dir(path), "enesterm.db"),
		LogLevel:   DefaultLogLevel,
		BootDelay:  DefaultBootDelay,
		ConfigPath: path,
	}

	if err := cfg.loadFromFile(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFromFile() error {
	data, err := os.ReadFile(c.ConfigPath)
	if err != nil {
		return err
	}
	lines := strings.Split(string(data), "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		switch key {
		case "Port":
			var port int
			if _, err := fmt.Sscanf(value, "%d", &port); err != nil {
				return fmt.Errorf("invalid Port value %q: %w", value, err)
			}
			c.Port = port
		case "Token":
			c.Token = value
		case "DBPath":
			c.DBPath = expandHome(value)
		case "CVPath":
			c.CVPath = expandHome(value)
		case "LogLevel":
			c.LogLevel = value
		case "BootDelay":
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid BootDelay value %q: %w", value, err)
			}
			c.BootDelay = d
		}
	}
	return nil
}

// RegisterFlags adds the overridable settings to fs with c's values as
// defaults.
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.IntVar(&c.Port, "port", c.Port, "server port (1-65535)")
	fs.StringVar(&c.Token, "token", c.Token, "require this token on websocket connections")
	fs.StringVar(&c.DBPath, "db", c.DBPath, "sqlite database path")
	fs.StringVar(&c.CVPath, "cv", c.CVPath, "CV PDF served at /api/cv")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level (debug, info, warn, error)")
	fs.DurationVar(&c.BootDelay, "boot-delay", c.BootDelay, "delay before the first-visit tip")
}

// ApplyFlags copies the flags that were set explicitly on fs into c,
// leaving file values in place for the rest.
func (c *Config) ApplyFlags(fs *pflag.FlagSet) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "port":
			c.Port, err = fs.GetInt("port")
		case "token":
			c.Token, err = fs.GetString("token")
		case "db":
			c.DBPath, err = fs.GetString("db")
		case "cv":
			c.CVPath, err = fs.GetString("cv")
		case "log-level":
			c.LogLevel, err = fs.GetString("log-level")
		case "boot-delay":
			c.BootDelay, err = fs.GetDuration("boot-delay")
		}
	})
	return err
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", c.Port)
	}
	if c.BootDelay < 0 {
		return fmt.Errorf("invalid boot delay %s: must not be negative", c.BootDelay)
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

func (c *Config) Save() error {
	dir := filepath.Dir(c.ConfigPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data := fmt.Sprintf("Port=%d\nToken=%s\nDBPath=%s\nCVPath=%s\nLogLevel=%s\nBootDelay=%s\n",
		c.Port, c.Token, c.DBPath, c.CVPath, c.LogLevel, c.BootDelay)
	return os.WriteFile(c.ConfigPath, []byte(data), 0600)
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(homeDir, strings.TrimPrefix(p, "~"))
}
