// internal/models/notification.go
package models

// NotificationTemplate is a versioned message template. Placeholders use
// {{name}} syntax and are filled from job payload metadata at send time.
type NotificationTemplate struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Version string `json:"version"`
}
