package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers understood by persistence.Open.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config is the full process configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Storage StorageConfig `mapstructure:"storage"`
	Board   BoardConfig   `mapstructure:"board"`
}

// ServerConfig holds transport settings.
type ServerConfig struct {
	WebSocket WebSocketConfig `mapstructure:"websocket"`
}

// WebSocketConfig configures the websocket endpoint.
type WebSocketConfig struct {
	Address         string        `mapstructure:"address"`
	ReadBufferSize  int           `mapstructure:"read_buffer_size"`
	WriteBufferSize int           `mapstructure:"write_buffer_size"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	MaxMessageBytes int64         `mapstructure:"max_message_bytes"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	PingInterval    time.Duration `mapstructure:"ping_interval"`
}

// LoggingConfig selects the zap level and encoder.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StorageConfig selects where board snapshots are persisted.
type StorageConfig struct {
	Driver      string        `mapstructure:"driver"`
	Directory   string        `mapstructure:"directory"`
	DSN         string        `mapstructure:"dsn"`
	SQLitePath  string        `mapstructure:"sqlite_path"`
	MaxConns    int32         `mapstructure:"max_conns"`
	SaveTimeout time.Duration `mapstructure:"save_timeout"`
}

// BoardConfig tunes the board sessions.
type BoardConfig struct {
	// HistoryLimit caps the undo stack; zero or less keeps every step.
	HistoryLimit int `mapstructure:"history_limit"`
	// ReplayDir receives a replay of each board when it is closed. Empty
	// disables recording.
	ReplayDir string `mapstructure:"replay_dir"`
}

// Load reads configuration from path (if it exists), then applies
// BOARD_* environment overrides, e.g. BOARD_STORAGE_DRIVER=sqlite.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("BOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.websocket.address", ":8080")
	v.SetDefault("server.websocket.read_buffer_size", 4096)
	v.SetDefault("server.websocket.write_buffer_size", 4096)
	v.SetDefault("server.websocket.allowed_origins", []string{})
	v.SetDefault("server.websocket.max_message_bytes", 1<<20)
	v.SetDefault("server.websocket.write_timeout", 10*time.Second)
	v.SetDefault("server.websocket.ping_interval", 30*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("storage.driver", DriverFile)
	v.SetDefault("storage.directory", "data/boards")
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.sqlite_path", "data/boards.db")
	v.SetDefault("storage.max_conns", 4)
	v.SetDefault("storage.save_timeout", 5*time.Second)

	v.SetDefault("board.history_limit", 200)
	v.SetDefault("board.replay_dir", "")
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverFile:
		if c.Storage.Directory == "" {
			return errors.New("storage.directory is required for the file driver")
		}
	case DriverPostgres:
		if c.Storage.DSN == "" {
			return errors.New("storage.dsn is required for the postgres driver")
		}
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("storage.sqlite_path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown logging format %q", c.Logging.Format)
	}

	if c.Server.WebSocket.Address == "" {
		return errors.New("server.websocket.address is required")
	}
	if c.Storage.SaveTimeout <= 0 {
		return errors.New("storage.save_timeout must be positive")
	}
	return nil
}
