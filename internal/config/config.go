package config

import (
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type AppConfig struct {
	WeatherAPIKey  string `envconfig:"WEATHERAPI_API_KEY" validate:"required"`
	WeatherAPIBase string `envconfig:"WEATHERAPI_BASE_URL" default:"https://api.weatherapi.com/v1" validate:"required,url"`

	Port        string        `envconfig:"PORT" default:"8080" validate:"required,numeric"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s" validate:"gt=0"`

	// DefaultLocation seeds the preference store when nothing was persisted.
	DefaultLocation string `envconfig:"DEFAULT_LOCATION" default:"London" validate:"required"`

	// Query cache retention; 0 keeps entries forever.
	CacheMaxAge time.Duration `envconfig:"CACHE_MAX_AGE" default:"0s" validate:"gte=0"`

	// ConnectivityCheckInterval drives the reconnect trigger; 0 disables it.
	ConnectivityCheckInterval time.Duration `envconfig:"CONNECTIVITY_CHECK_INTERVAL" default:"30s" validate:"gte=0"`

	RevalidateWorkers int `envconfig:"REVALIDATE_WORKERS" default:"8" validate:"min=1"`

	PrefsDBPath string `envconfig:"PREFS_DB_PATH"`
	LogFile     string `envconfig:"LOG_FILE"`
}

// Load reads configuration from the environment, and .env when present.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	return FromEnv()
}

// FromEnv processes the environment without touching .env.
func FromEnv() (*AppConfig, error) {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
