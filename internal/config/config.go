package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ListenAddr string `envconfig:"LISTEN_ADDR" default:":8080"`
	DBPath     string `envconfig:"DB_PATH" default:"gochat.db"`
	AppSecret  string `envconfig:"APP_SECRET" default:"dev-secret-change-me"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`

	TypingTimeout time.Duration `envconfig:"TYPING_TIMEOUT" default:"3s"`
}

// Load reads .env if present, then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
