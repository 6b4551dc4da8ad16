// internal/workers/application/run-eligibility-decision/config.go
package runeligibilitydecision

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 15 * time.Second,
	}
}
