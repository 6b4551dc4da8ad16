// internal/workers/ai-conversation/answer-application-chat/config.go
package answerapplicationchat

import (
	"time"
)

// Config holds the worker level settings. The model client and the tier
// chain are configured where the orchestrator is built; the worker only
// bounds how long a single conversation turn may run.
type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		// A turn may walk the whole tier chain, several model calls deep.
		Timeout: 120 * time.Second,
	}
}
