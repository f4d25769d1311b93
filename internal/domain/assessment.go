package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Predictor is a trained severity model.
type Predictor interface {
	Predict(x Features) (Tier, error)
}

// Prediction is the model verdict for the whole installation.
type Prediction struct {
	Tier   Tier   `json:"tier"`
	Advice string `json:"advice"`
}

// Assessment combines both classifiers for one reading. The two verdicts are
// reported side by side and never reconciled.
type Assessment struct {
	Reading    Reading      `json:"reading"`
	Prediction Prediction   `json:"prediction"`
	Sensors    SensorReport `json:"sensors"`
}

// Assess runs the threshold rules and the severity model on a reading.
// A nil predictor yields ErrModelNotReady.
func Assess(r Reading, predictor Predictor) (Assessment, error) {
	if predictor == nil {
		return Assessment{}, ErrModelNotReady
	}

	tier, err := predictor.Predict(r.Features())
	if err != nil {
		return Assessment{}, fmt.Errorf("predict severity: %w", err)
	}
	if !tier.Valid() {
		return Assessment{}, fmt.Errorf("predict severity: model returned %v", tier)
	}

	return Assessment{
		Reading:    r,
		Prediction: Prediction{Tier: tier, Advice: tier.Advice()},
		Sensors:    ClassifySensors(r),
	}, nil
}

// CycleReport is the output of one polling cycle.
type CycleReport struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	GeneratedAt time.Time `json:"generated_at"`
	Assessment
}

// NewCycleReport stamps an assessment with a fresh ID and the current time.
func NewCycleReport(a Assessment, source string) CycleReport {
	return CycleReport{
		ID:          uuid.NewString(),
		Source:      source,
		GeneratedAt: Now(),
		Assessment:  a,
	}
}
