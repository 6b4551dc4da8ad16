// internal/workers/application/create-application-record/models.go
package createapplicationrecord

type Input struct {
	ApplicationID    string   `json:"applicationId"`
	FullName         string   `json:"fullName"`
	Age              int      `json:"age"`
	Address          string   `json:"address"`
	Region           string   `json:"region"`
	EmploymentStatus string   `json:"employmentStatus"`
	NetIncome        *float64 `json:"netIncome"`
	ObligationsRatio *float64 `json:"obligationsRatio"`
	Dependents       int      `json:"dependents"`
}

type Output struct {
	ApplicationID     string `json:"applicationId"`
	ApplicationStatus string `json:"applicationStatus"`
	CreatedAt         string `json:"createdAt"` // ISO 8601
}
