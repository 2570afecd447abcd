package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type ICEServer struct {
	URLs       []string `mapstructure:"urls"`
	Username   string   `mapstructure:"username"`
	Credential string   `mapstructure:"credential"`
}

type Mongo struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type Reaper struct {
	Interval time.Duration `mapstructure:"interval"`
	Grace    time.Duration `mapstructure:"grace"`
}

type RateLimit struct {
	Joins    int           `mapstructure:"joins"`
	Interval time.Duration `mapstructure:"interval"`
}

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	LogLevel   string        `mapstructure:"log_level"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	SendBuffer int           `mapstructure:"send_buffer"`
	Secret     string        `mapstructure:"secret"`
	JWTSecret  string        `mapstructure:"jwt_secret"`
	Store      string        `mapstructure:"store"`
	Mongo      Mongo         `mapstructure:"mongo"`
	Reaper     Reaper        `mapstructure:"reaper"`
	RateLimit  RateLimit     `mapstructure:"rate_limit"`
	ICEServers []ICEServer   `mapstructure:"ice_servers"`
}

const (
	StoreMemory = "memory"
	StoreMongo  = "mongo"
)

var ErrJWTSecretRequired = errors.New("jwt_secret is required in release mode")

// Load reads config/config.<CONFIG_ENV>.yaml, then ROOMCOORD_* environment
// overrides (dots become underscores, e.g. ROOMCOORD_MONGO_URI).
func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)
	v.SetEnvPrefix("roomcoord")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("secret", "")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("store", StoreMemory)
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "learning")
	v.SetDefault("reaper.interval", "1m")
	v.SetDefault("reaper.grace", "10m")
	v.SetDefault("rate_limit.joins", 20)
	v.SetDefault("rate_limit.interval", "10s")
	v.SetDefault("ice_servers", []map[string]any{
		{"urls": []string{"stun:stun.l.google.com:19302"}},
	})

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("store", cfg.Store).Msg("config ready")
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Mode == "release" && c.JWTSecret == "" {
		return ErrJWTSecretRequired
	}
	switch c.Store {
	case StoreMemory, StoreMongo:
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	if c.Reaper.Interval <= 0 {
		return fmt.Errorf("reaper.interval must be positive, got %s", c.Reaper.Interval)
	}
	if c.SendBuffer <= 0 || c.ReadLimit <= 0 {
		return fmt.Errorf("send_buffer and read_limit must be positive")
	}
	if c.PingPeriod <= 0 {
		return fmt.Errorf("ping_period must be positive, got %s", c.PingPeriod)
	}
	return nil
}
