package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Geocoding GeocodingConfig `mapstructure:"geocoding"`
	Scoring   ScoringConfig   `mapstructure:"scoring"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MinConnections  int           `mapstructure:"min_connections"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// GeocodingConfig holds geocoding provider configuration. BatchDelay is the
// inter-request courtesy delay of the batch enrichment path; it is policy,
// not a magic constant, so it lives here.
type GeocodingConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Timeout           time.Duration `mapstructure:"timeout"`
	BatchDelay        time.Duration `mapstructure:"batch_delay"`
	UserAgent         string        `mapstructure:"user_agent"`
}

// ScoringConfig holds the tunable scoring constants. Formula shapes are
// fixed in code; magnitudes are configuration.
type ScoringConfig struct {
	FavoriteStoreDistanceBonus     float64 `mapstructure:"favorite_store_distance_bonus"`
	FavoriteStoreAvailabilityBonus float64 `mapstructure:"favorite_store_availability_bonus"`
	PreferredBrandBonus            float64 `mapstructure:"preferred_brand_bonus"`
	LowStockBaseline               float64 `mapstructure:"low_stock_baseline"`
	AdditivePenalty                float64 `mapstructure:"additive_penalty"`
	ReferenceDistanceKm            float64 `mapstructure:"reference_distance_km"`
	MaxConcurrentItems             int     `mapstructure:"max_concurrent_items"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

var globalConfig *Config

// Load loads the configuration from file, .env, and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// .env is optional, log but don't fail
	if err := loadEnvFile(); err != nil {
		log.Warn().Err(err).Msg("Warning: .env file not loaded")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvPrefix("OPTIMIZER_SERVICE")

	// Bind env keys for nested config
	bindEnvVars(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	globalConfig = &cfg
	return &cfg, nil
}

// loadEnvFile loads the first .env file found in the usual locations
func loadEnvFile() error {
	for _, envFile := range []string{".env", "config/.env"} {
		if _, err := os.Stat(envFile); err == nil {
			return loadDotEnvFile(envFile)
		}
	}
	return fmt.Errorf("no .env file found")
}

// loadDotEnvFile parses KEY=VALUE lines into the process environment.
// Variables already present in the environment win over file values.
func loadDotEnvFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), "\"'")
		if _, exists := os.LookupEnv(key); !exists {
			os.Setenv(key, value)
		}
	}
	return scanner.Err()
}

// bindEnvVars binds environment variables to config keys
func bindEnvVars(v *viper.Viper) {
	// Database
	v.BindEnv("database.url", "DATABASE_URL")

	// Server
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.host", "HOST")

	// Logging
	v.BindEnv("logging.level", "LOG_LEVEL")

	// Geocoding
	v.BindEnv("geocoding.base_url", "GEOCODING_BASE_URL")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	// Database defaults
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.min_connections", 5)
	v.SetDefault("database.max_conn_lifetime", 1*time.Hour)
	v.SetDefault("database.max_conn_idle_time", 30*time.Minute)

	// Geocoding defaults
	v.SetDefault("geocoding.base_url", "https://api-adresse.data.gouv.fr")
	v.SetDefault("geocoding.requests_per_second", 1)
	v.SetDefault("geocoding.timeout", 30*time.Second)
	v.SetDefault("geocoding.batch_delay", 1100*time.Millisecond)
	v.SetDefault("geocoding.user_agent", "smartcart-optimizer/1.0")

	// Scoring defaults
	v.SetDefault("scoring.favorite_store_distance_bonus", 10.0)
	v.SetDefault("scoring.favorite_store_availability_bonus", 10.0)
	v.SetDefault("scoring.preferred_brand_bonus", 10.0)
	v.SetDefault("scoring.low_stock_baseline", 60.0)
	v.SetDefault("scoring.additive_penalty", 15.0)
	v.SetDefault("scoring.reference_distance_km", 25.0)
	v.SetDefault("scoring.max_concurrent_items", 8)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.no_color", false)
}

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// GetDatabaseURL returns the database URL from config or environment
func GetDatabaseURL() string {
	if cfg := Get(); cfg != nil && cfg.Database.URL != "" {
		return cfg.Database.URL
	}
	return os.Getenv("DATABASE_URL")
}
