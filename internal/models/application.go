// internal/models/application.go
package models

import "time"

// Decision status values exposed to callers.
const (
	StatusApprove      = "Approve"
	StatusSoftDecline  = "Soft-Decline"
	StatusManualReview = "Manual-Review"
)

// Eligibility labels produced by the decision pipeline.
const (
	LabelApprove     = "approve"
	LabelSoftDecline = "soft_decline"
	LabelReview      = "review"
)

// Application is a single applicant's submitted case. The applicationId is
// caller-supplied and unique; the record is immutable after intake.
type Application struct {
	ApplicationID    string    `json:"applicationId"`
	FullName         string    `json:"fullName"`
	Age              int       `json:"age"`
	Address          string    `json:"address"`
	Region           string    `json:"region"`
	EmploymentStatus string    `json:"employmentStatus"`
	NetIncome        *float64  `json:"netIncome,omitempty"`
	ObligationsRatio *float64  `json:"obligationsRatio,omitempty"`
	Dependents       int       `json:"dependents"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Document is one uploaded file attached to an application. ExtractedText is
// nil when extraction is unsupported for the content type; Preview is a
// bounded, whitespace-collapsed excerpt.
type Document struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"applicationId"`
	Filename      string    `json:"filename"`
	ContentType   string    `json:"contentType"`
	SizeBytes     int64     `json:"sizeBytes"`
	ExtractedText *string   `json:"extractedText,omitempty"`
	Preview       *string   `json:"preview,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Decision is one immutable outcome record; an application accumulates a
// history of these and the latest by CreatedAt is the current state.
type Decision struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"applicationId"`
	Status        string    `json:"status"`
	Label         string    `json:"label"`
	Probability   float64   `json:"probability"`
	Rationale     string    `json:"rationale"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ValidationResult holds the pass/warn/fail tags of one validation run. It is
// computed fresh on every run and never persisted standalone.
type ValidationResult struct {
	PassChecks []string `json:"passChecks"`
	WarnChecks []string `json:"warnChecks"`
	FailChecks []string `json:"failChecks"`
}

// HasFailures reports whether any rule failed.
func (v *ValidationResult) HasFailures() bool {
	return len(v.FailChecks) > 0
}

// ApplicationBundle is the unit of state the conversational agents reason
// over: the application, its documents, and the latest decision if any.
type ApplicationBundle struct {
	Application *Application `json:"application"`
	Documents   []Document   `json:"documents"`
	Decision    *Decision    `json:"decision,omitempty"`
}
