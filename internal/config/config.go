package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/google/logger"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "RAFFLE"

type Config struct {
	Mode            string        `mapstructure:"mode"`
	Port            int           `mapstructure:"port"`
	DBPath          string        `mapstructure:"db_path"`
	SessionSecret   string        `mapstructure:"session_secret"`
	SessionIdle     time.Duration `mapstructure:"session_idle"`
	JanitorInterval time.Duration `mapstructure:"janitor_interval"`
	PostLength      int           `mapstructure:"post_length"`
	ReadLimit       int64         `mapstructure:"read_limit"`
	PingPeriod      time.Duration `mapstructure:"ping_period"`
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Load reads .env, then config/config.<RAFFLE_ENV>.yaml (or the file named by
// RAFFLE_CONFIG), then RAFFLE_* environment variables, over built-in defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("db_path", "raffle.db")
	v.SetDefault("session_secret", "")
	v.SetDefault("session_idle", "2h")
	v.SetDefault("janitor_interval", "10m")
	v.SetDefault("post_length", 250)
	v.SetDefault("read_limit", 4096)
	v.SetDefault("ping_period", "54s")

	fileName := os.Getenv(envPrefix + "_CONFIG")
	if fileName == "" {
		env := os.Getenv(envPrefix + "_ENV")
		if env == "" {
			env = "dev"
		}
		fileName = fmt.Sprintf("config/config.%s.yaml", env)
	}

	if _, err := os.Stat(fileName); err != nil {
		logger.Infof("Config file not found (%s), using defaults", fileName)
	} else {
		v.SetConfigFile(fileName)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", fileName, err)
		}
		logger.Infof("Loaded config: %s", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = uuid.NewString()
		logger.Warningf("No session secret configured; sessions will not survive a restart")
	}

	logger.Infof("Mode: %s | Port: %d | DB: %s", cfg.Mode, cfg.Port, cfg.DBPath)
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("invalid mode %q", c.Mode)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.DBPath == "" {
		return errors.New("db_path is required")
	}
	if c.SessionIdle <= 0 || c.JanitorInterval <= 0 || c.PingPeriod <= 0 {
		return errors.New("session_idle, janitor_interval and ping_period must be positive")
	}
	if c.PostLength < 50 {
		return fmt.Errorf("post_length %d is too short", c.PostLength)
	}
	if c.ReadLimit <= 0 {
		return fmt.Errorf("invalid read_limit %d", c.ReadLimit)
	}
	return nil
}
