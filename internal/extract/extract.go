// internal/extract/extract.go
package extract

import "strings"

// PreviewLength caps the stored document preview.
const PreviewLength = 380

// Extract pulls plain text out of an uploaded document. Plain-text and JSON
// payloads pass through with invalid UTF-8 dropped; binary formats return
// (nil, nil) and are expected to arrive pre-extracted from the upstream
// extraction service. Extraction never fails, it only degrades.
func Extract(data []byte, contentType string) (text *string, preview *string) {
	if !isTextual(contentType) {
		return nil, nil
	}

	full := strings.ToValidUTF8(string(data), "")
	short := Preview(full, PreviewLength)
	return &full, &short
}

// Preview collapses runs of whitespace to single spaces and truncates to
// maxLen characters.
func Preview(text string, maxLen int) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	runes := []rune(collapsed)
	if len(runes) <= maxLen {
		return collapsed
	}
	return string(runes[:maxLen])
}

func isTextual(contentType string) bool {
	mediaType := contentType
	if i := strings.Index(mediaType, ";"); i >= 0 {
		mediaType = mediaType[:i]
	}
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))

	return strings.HasPrefix(mediaType, "text/") || mediaType == "application/json"
}
