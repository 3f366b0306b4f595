package config

import (
	"errors"
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port          string        `mapstructure:"PORT"`
	DatabasePath  string        `mapstructure:"DATABASE_PATH"`
	JWTSecret     string        `mapstructure:"JWT_SECRET"`
	TokenDuration time.Duration `mapstructure:"TOKEN_DURATION"`
	EnableCORS    bool          `mapstructure:"ENABLE_CORS"`
	FrontendURL   string        `mapstructure:"FRONTEND_URL"`
	LogLevel      string        `mapstructure:"LOG_LEVEL"`
	AuthRateLimit int           `mapstructure:"AUTH_RATE_LIMIT"`
}

func LoadConfig() *Config {
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DATABASE_PATH", "vacathon.db")
	viper.SetDefault("TOKEN_DURATION", "24h")
	viper.SetDefault("FRONTEND_URL", "http://127.0.0.1:4000")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("AUTH_RATE_LIMIT", 20)

	viper.BindEnv("PORT")
	viper.BindEnv("DATABASE_PATH")
	viper.BindEnv("JWT_SECRET")
	viper.BindEnv("TOKEN_DURATION")
	viper.BindEnv("ENABLE_CORS")
	viper.BindEnv("FRONTEND_URL")
	viper.BindEnv("LOG_LEVEL")
	viper.BindEnv("AUTH_RATE_LIMIT")

	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}

	return &config
}

// Validate rejects configurations the API server must not start with.
// The importer CLI skips this; it never signs tokens.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if c.TokenDuration <= 0 {
		return errors.New("TOKEN_DURATION must be positive")
	}
	return nil
}
