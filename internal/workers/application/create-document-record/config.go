// internal/workers/application/create-document-record/config.go
package createdocumentrecord

import "time"

type Config struct {
	IndexName string
	Timeout   time.Duration
}

func LoadConfig() *Config {
	return &Config{
		IndexName: "documents",
		Timeout:   15 * time.Second,
	}
}
