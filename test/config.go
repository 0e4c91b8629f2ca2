package test

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config drives the integration scenario from the environment so the suite
// can run against slower machines or CI without code changes.
type Config struct {
	Host string `envconfig:"INTEGRATION_HOST" default:"127.0.0.1"`
	// INTEGRATION_STEP_TIMEOUT bounds every single read expectation
	StepTimeout time.Duration `envconfig:"INTEGRATION_STEP_TIMEOUT" default:"2s"`
	RoomSize    int           `envconfig:"INTEGRATION_ROOM_SIZE" default:"2"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
