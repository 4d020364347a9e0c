package experiment

import (
	"fmt"

	"ggpbench/pkg/ggptypes"
)

// ConfigurationError reports a dispatcher that cannot be built. It is fatal: no
// sample is processed.
type ConfigurationError struct {
	Kind   ggptypes.ExperimentKind
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s configuration: %s", e.Kind, e.Reason)
}

// SampleShapeMismatchError reports a sample whose variant is not the one the
// experiment kind consumes.
type SampleShapeMismatchError struct {
	Kind     ggptypes.ExperimentKind
	Expected ggptypes.SampleVariant
	Actual   ggptypes.SampleVariant
}

func (e *SampleShapeMismatchError) Error() string {
	return fmt.Sprintf("%s expects a %s sample, got %s", e.Kind, e.Expected, e.Actual)
}

// MissingGroundTruthError reports a shape-matching sample that lacks a field the
// experiment kind needs.
type MissingGroundTruthError struct {
	Kind  ggptypes.ExperimentKind
	Field string
}

func (e *MissingGroundTruthError) Error() string {
	return fmt.Sprintf("%s sample has no %s", e.Kind, e.Field)
}
