package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Engine   EngineConfig
	Lexicon  LexiconConfig
	Auth     AuthConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	// Pool sizing. Recompute runs upsert cycles in batches over a
	// handful of connections; the defaults leave headroom for the API.
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	// Enabled gates both the recompute lock and the shared synonym
	// cache. With redis disabled the engine falls back to an in-process
	// lock and cache, which is only safe with a single instance.
	Enabled      bool
	PoolSize     int
	MinIdleConns int
}

// EngineConfig carries the tunables of the cycle-discovery engine.
type EngineConfig struct {
	MaxCycleLength        int
	MinViabilityScore     int
	PriceTolerancePct     float64
	FullRecomputeFraction float64
	MaxCyclesPerRun       int
	BatchSize             int
	StaleRetention        time.Duration
	Interval              time.Duration
	UseAdvancedScore      bool
}

type LexiconConfig struct {
	Path      string
	Language  string
	CacheSize int
	Enabled   bool
}

type AuthConfig struct {
	// ServiceSecret signs the bearer tokens accepted by the admin
	// recompute endpoints.
	ServiceSecret string
}

type LoggingConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables or .env file
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_PORT", 8080)
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 100)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 10)
	viper.SetDefault("DB_CONN_MAX_LIFETIME", "1h")
	viper.SetDefault("REDIS_ENABLED", true)
	viper.SetDefault("REDIS_POOL_SIZE", 10)
	viper.SetDefault("REDIS_MIN_IDLE_CONNS", 5)
	viper.SetDefault("ENGINE_MAX_CYCLE_LENGTH", 6)
	viper.SetDefault("ENGINE_MIN_VIABILITY_SCORE", 20)
	viper.SetDefault("ENGINE_PRICE_TOLERANCE_PCT", 25)
	viper.SetDefault("ENGINE_FULL_RECOMPUTE_FRACTION", 0.30)
	viper.SetDefault("ENGINE_MAX_CYCLES_PER_RUN", 5000)
	viper.SetDefault("ENGINE_BATCH_SIZE", 100)
	viper.SetDefault("ENGINE_STALE_RETENTION", "168h")
	viper.SetDefault("ENGINE_INTERVAL", "15m")
	viper.SetDefault("ENGINE_USE_ADVANCED_SCORE", false)
	viper.SetDefault("LEXICON_LANGUAGE", "en")
	viper.SetDefault("LEXICON_CACHE_SIZE", 4096)
	viper.SetDefault("LEXICON_ENABLED", true)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")

	// Try to read from .env file, but don't fail if it doesn't exist
	_ = viper.ReadInConfig()

	config := &Config{
		Server: ServerConfig{
			Host:         viper.GetString("SERVER_HOST"),
			Port:         viper.GetInt("SERVER_PORT"),
			Env:          viper.GetString("ENV"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetInt("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			DBName:   viper.GetString("DB_NAME"),
			SSLMode:  viper.GetString("DB_SSL_MODE"),

			MaxOpenConns:    viper.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: viper.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetInt("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
			Enabled:  viper.GetBool("REDIS_ENABLED"),

			PoolSize:     viper.GetInt("REDIS_POOL_SIZE"),
			MinIdleConns: viper.GetInt("REDIS_MIN_IDLE_CONNS"),
		},
		Engine: EngineConfig{
			MaxCycleLength:        viper.GetInt("ENGINE_MAX_CYCLE_LENGTH"),
			MinViabilityScore:     viper.GetInt("ENGINE_MIN_VIABILITY_SCORE"),
			PriceTolerancePct:     viper.GetFloat64("ENGINE_PRICE_TOLERANCE_PCT"),
			FullRecomputeFraction: viper.GetFloat64("ENGINE_FULL_RECOMPUTE_FRACTION"),
			MaxCyclesPerRun:       viper.GetInt("ENGINE_MAX_CYCLES_PER_RUN"),
			BatchSize:             viper.GetInt("ENGINE_BATCH_SIZE"),
			StaleRetention:        viper.GetDuration("ENGINE_STALE_RETENTION"),
			Interval:              viper.GetDuration("ENGINE_INTERVAL"),
			UseAdvancedScore:      viper.GetBool("ENGINE_USE_ADVANCED_SCORE"),
		},
		Lexicon: LexiconConfig{
			Path:      viper.GetString("LEXICON_PATH"),
			Language:  viper.GetString("LEXICON_LANGUAGE"),
			CacheSize: viper.GetInt("LEXICON_CACHE_SIZE"),
			Enabled:   viper.GetBool("LEXICON_ENABLED"),
		},
		Auth: AuthConfig{
			ServiceSecret: viper.GetString("SERVICE_TOKEN_SECRET"),
		},
		Logging: LoggingConfig{
			Level:  viper.GetString("LOG_LEVEL"),
			Format: viper.GetString("LOG_FORMAT"),
		},
	}

	// Validate critical configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates critical configuration values
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Auth.ServiceSecret == "" {
		return fmt.Errorf("service token secret is required")
	}
	if len(c.Auth.ServiceSecret) < 32 {
		return fmt.Errorf("service token secret must be at least 32 characters")
	}
	if c.Engine.MaxCycleLength < 2 || c.Engine.MaxCycleLength > 10 {
		return fmt.Errorf("engine max cycle length must be between 2 and 10")
	}
	if c.Engine.FullRecomputeFraction <= 0 || c.Engine.FullRecomputeFraction > 1 {
		return fmt.Errorf("engine full recompute fraction must be in (0, 1]")
	}
	if c.Engine.BatchSize <= 0 {
		return fmt.Errorf("engine batch size must be positive")
	}
	return nil
}

// GetDSN returns PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// GetAddr returns Redis address
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
