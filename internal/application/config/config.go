package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug      bool   `env:"DEBUG" envDefault:"false"`
	Port       string `env:"PORT" envDefault:"10000"`
	MetricPort string `env:"METRIC_PORT" envDefault:"9090"`

	// AllowedOrigins is the CORS / websocket origin allowlist. Entries may
	// contain '*' wildcards, e.g. "https://*.vercel.app".
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:3000,http://localhost:3001"`

	SoundsDir string `env:"SOUNDS_DIR" envDefault:"public/sounds"`

	RoomIdleTTL   time.Duration `env:"ROOM_IDLE_TTL" envDefault:"30m"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"5m"`
}

func New() (*Config, error) {
	// .env is optional, real environments set variables directly.
	_ = godotenv.Load()

	c, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	return &c, nil
}
