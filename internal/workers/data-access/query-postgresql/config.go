// internal/workers/data-access/query-postgresql/config.go
package querypostgresql

import "time"

// Config bounds a single query execution. Reporting queries can scan far
// more rows than the point lookups, hence the generous timeout.
type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
