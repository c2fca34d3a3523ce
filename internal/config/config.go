package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
	Encoding    string `mapstructure:"encoding"`
}

// WebSocketConfig controls the gateway listener.
type WebSocketConfig struct {
	Address        string   `mapstructure:"address"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ServerConfig groups the transport-facing settings.
type ServerConfig struct {
	WebSocket          WebSocketConfig `mapstructure:"websocket"`
	MaxSessions        int             `mapstructure:"max_sessions"`
	LeasePeriod        time.Duration   `mapstructure:"lease_period"`
	AccessPasswordHash string          `mapstructure:"access_password_hash"`
}

// DatabaseConfig controls the optional snapshot store. An empty URL
// disables persistence.
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// GameConfig carries the rule and protocol constants.
type GameConfig struct {
	StartMoney   int `mapstructure:"start_money"`
	Salary       int `mapstructure:"salary"`
	JailFine     int `mapstructure:"jail_fine"`
	MaxJailTurns int `mapstructure:"max_jail_turns"`

	AuctionDuration  int `mapstructure:"auction_duration"`  // seconds
	AuctionExtension int `mapstructure:"auction_extension"` // seconds

	TradeWindow        time.Duration `mapstructure:"trade_window"`
	TradeSweepInterval time.Duration `mapstructure:"trade_sweep_interval"`

	WeatherPeriod  int `mapstructure:"weather_period"`
	EconomicPeriod int `mapstructure:"economic_period"`
	CulturalPeriod int `mapstructure:"cultural_period"`
}

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Game     GameConfig     `mapstructure:"game"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.websocket.address", ":8080")
	v.SetDefault("server.max_sessions", 1000)
	v.SetDefault("server.lease_period", 5*time.Minute)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.encoding", "json")

	v.SetDefault("database.max_conns", 10)

	v.SetDefault("game.start_money", 1500)
	v.SetDefault("game.salary", 200)
	v.SetDefault("game.jail_fine", 50)
	v.SetDefault("game.max_jail_turns", 3)
	v.SetDefault("game.auction_duration", 30)
	v.SetDefault("game.auction_extension", 10)
	v.SetDefault("game.trade_window", 5*time.Minute)
	v.SetDefault("game.trade_sweep_interval", 10*time.Second)
	v.SetDefault("game.weather_period", 4)
	v.SetDefault("game.economic_period", 6)
	v.SetDefault("game.cultural_period", 8)
}

// Load reads configuration from the given file, falling back to
// defaults and MAGNATE_* environment variables when the file is absent.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("MAGNATE")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
