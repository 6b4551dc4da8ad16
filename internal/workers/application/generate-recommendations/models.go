// internal/workers/application/generate-recommendations/models.go
package generaterecommendations

type Input struct {
	ApplicationID string `json:"applicationId"`
}

type Output struct {
	ApplicationID   string   `json:"applicationId"`
	Recommendations []string `json:"recommendations"`
}
