// internal/workers/application/send-notification/models.go
package sendnotification

type Input struct {
	ApplicationID    string                 `json:"applicationId"`
	NotificationType string                 `json:"notificationType"`
	RecipientEmail   string                 `json:"recipientEmail,omitempty"`
	RecipientPhone   string                 `json:"recipientPhone,omitempty"`
	Priority         string                 `json:"priority,omitempty"` // "high" or "normal"
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

type Output struct {
	NotificationID string `json:"notificationId"`
	Status         string `json:"status"` // "sent", "failed", "disabled"
	SentAt         string `json:"sentAt"` // ISO 8601
}

// Notification types
const (
	TypeDecisionRecorded   = "decision_recorded"
	TypeDocumentsRequested = "documents_requested"
)

// Statuses
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)
