// pkg/registry/schema.go
package registry

// Registry categories. They mirror the directory layout under
// internal/workers/.
const (
	CategoryApplication  = "application"
	CategoryConversation = "ai-conversation"
	CategoryDataAccess   = "data-access"
)

// ActivityRegistry is the on-disk catalog of every job worker the manager
// can host. The generator and updater tools read and write it; the file
// itself lives at configs/activity-registry.json.
type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

// Activity describes one worker: its task type, contract schemas, and the
// error codes its handler can throw back to the process.
type Activity struct {
	ID                   string                 `json:"id"`
	DisplayName          string                 `json:"displayName"`
	Description          string                 `json:"description"`
	Category             string                 `json:"category"`
	Version              string                 `json:"version"`
	TaskType             string                 `json:"taskType"`
	ImplementationStatus string                 `json:"implementationStatus"`
	InputSchema          map[string]interface{} `json:"inputSchema"`
	OutputSchema         map[string]interface{} `json:"outputSchema"`
	ErrorCodes           []string               `json:"errorCodes"`
	Timeout              string                 `json:"timeout"`
	Retries              int                    `json:"retries"`
	Workflows            []string               `json:"workflows"`
	Tags                 []string               `json:"tags"`
}
