// internal/workers/ai-conversation/query-application-context/config.go
package queryapplicationcontext

import (
	"time"
)

type Config struct {
	IndexName     string
	Timeout       time.Duration
	CacheTTL      time.Duration
	MaxSearchHits int
}

func LoadConfig() *Config {
	return &Config{
		IndexName: "documents",
		Timeout:   15 * time.Second,
		// Context bundles go stale as soon as an upload or a decision
		// lands, so the cache window stays short.
		CacheTTL:      60 * time.Second,
		MaxSearchHits: 5,
	}
}
