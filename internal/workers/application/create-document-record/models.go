// internal/workers/application/create-document-record/models.go
package createdocumentrecord

type Input struct {
	ApplicationID string  `json:"applicationId"`
	Filename      string  `json:"filename"`
	ContentType   string  `json:"contentType,omitempty"`
	ContentBase64 string  `json:"contentBase64"`
	ExtractedText *string `json:"extractedText,omitempty"` // pre-extracted upstream for binary formats
}

type Output struct {
	DocumentID       string `json:"documentId"`
	ApplicationID    string `json:"applicationId"`
	Filename         string `json:"filename"`
	SizeBytes        int64  `json:"sizeBytes"`
	HasExtractedText bool   `json:"hasExtractedText"`
	CreatedAt        string `json:"createdAt"` // ISO 8601
}
