// internal/workers/ai-conversation/classify-chat-intent/config.go
package classifychatintent

import (
	"time"
)

// Config bounds a single classification. The work is local keyword
// matching, so the timeout only guards the job round trip.
type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
