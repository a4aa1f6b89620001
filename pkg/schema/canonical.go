// Package schema defines the canonical battery sample shared by the
// normalize, derive, and visualize stages.
package schema

import (
	"math"

	"github.com/go-playground/validator/v10"
)

// CanonicalColumns is the exact header of every canonical CSV artifact.
var CanonicalColumns = []string{"run_id", "timestamp", "voltage", "current", "temperature", "cycle"}

// CanonicalSample is one normalized telemetry sample. Temperature and cycle
// are optional in the source data.
type CanonicalSample struct {
	RunID       string   `validate:"required"`
	Timestamp   float64  `validate:"nonnan"`
	Voltage     float64  `validate:"nonnan"`
	Current     float64  `validate:"nonnan"`
	Temperature *float64 `validate:"omitempty,nonnan"`
	Cycle       *int
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// validator has no built-in NaN rule; NaN values silently poison
	// downstream aggregation, so reject them at the schema boundary.
	_ = v.RegisterValidation("nonnan", func(fl validator.FieldLevel) bool {
		return !math.IsNaN(fl.Field().Float())
	})
	return v
}

// Validate checks the sample against the canonical schema rules.
func (s CanonicalSample) Validate() error {
	return validate.Struct(s)
}
