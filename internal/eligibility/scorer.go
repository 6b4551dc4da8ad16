// internal/eligibility/scorer.go
package eligibility

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sync"

	"loanflow-workers/internal/models"
)

// Scorer produces an approval probability for an application. ok reports
// whether a probability was actually computed; callers fall back to the
// policy default when it is false.
type Scorer interface {
	Score(app *models.Application, docs []models.Document) (probability float64, ok bool)
}

// modelArtifact is the on-disk form of the baseline model: a logistic
// regression stored as plain JSON so deployments can swap weights without
// a code change.
type modelArtifact struct {
	Bias    float64   `json:"bias"`
	Weights []float64 `json:"weights"`
}

// LogisticScorer scores applications with a logistic regression loaded from
// a JSON artifact. The artifact is read at most once per process; if that
// read fails the scorer stays unavailable for the process lifetime instead
// of retrying on every request.
type LogisticScorer struct {
	path string

	loadOnce sync.Once
	model    *modelArtifact
	loadErr  error
}

// NewLogisticScorer returns a scorer backed by the artifact at path. The
// file is not touched until the first Score call.
func NewLogisticScorer(path string) *LogisticScorer {
	return &LogisticScorer{path: path}
}

// Score computes sigmoid(bias + w·x) over the application's feature vector.
// ok is false when the artifact is missing, malformed, or does not match
// the feature vector width.
func (s *LogisticScorer) Score(app *models.Application, docs []models.Document) (float64, bool) {
	s.loadOnce.Do(s.load)
	if s.loadErr != nil {
		return 0, false
	}

	features := Features(app, docs)
	z := s.model.Bias
	for i, w := range s.model.Weights {
		z += w * features[i]
	}
	return sigmoid(z), true
}

// Err reports why the scorer is unavailable. It is nil before the first
// Score call and after a successful artifact load.
func (s *LogisticScorer) Err() error {
	return s.loadErr
}

func (s *LogisticScorer) load() {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		s.loadErr = fmt.Errorf("read model artifact: %w", err)
		return
	}

	var artifact modelArtifact
	if err := json.Unmarshal(raw, &artifact); err != nil {
		s.loadErr = fmt.Errorf("parse model artifact: %w", err)
		return
	}
	if len(artifact.Weights) != FeatureCount {
		s.loadErr = fmt.Errorf("model artifact has %d weights, want %d", len(artifact.Weights), FeatureCount)
		return
	}

	s.model = &artifact
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
