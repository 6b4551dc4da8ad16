// internal/workers/application/create-document-record/validation.go
package createdocumentrecord

import "loanflow-workers/internal/common/validation"

// GetInputSchema describes the upload payload. The content always travels
// base64-encoded through the process engine; extractedText is optional and only
// set when an upstream extraction service has already processed a binary
// format. AdditionalProperties stays open because job variables carry
// process-scoped state beyond the upload fields.
func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"applicationId", "filename", "contentBase64"},
		Properties: map[string]validation.Property{
			"applicationId": {
				Type:        "string",
				Description: "Identifier of the application the file belongs to",
				MinLength:   intPtr(1),
				MaxLength:   intPtr(64),
			},
			"filename": {
				Type:        "string",
				Description: "Original filename as uploaded",
				MinLength:   intPtr(1),
				MaxLength:   intPtr(255),
			},
			"contentType": {
				Type:        "string",
				Description: "MIME type of the upload",
				MaxLength:   intPtr(100),
			},
			"contentBase64": {
				Type:        "string",
				Description: "File content, base64 encoded",
				MinLength:   intPtr(1),
			},
			"extractedText": {
				Type:        "string",
				Description: "Text extracted upstream for binary formats",
			},
		},
		AdditionalProperties: true,
	}
}

func intPtr(i int) *int {
	return &i
}
