// Package ggptypes defines the data model shared across ggpbench.
// It contains the experiment kinds, the input and output document shapes, and the
// structured responses expected from LLM providers.
package ggptypes

import (
	"fmt"
	"strings"
)

// ExperimentKind identifies one of the supported prediction tasks.
type ExperimentKind string

// Supported experiment kinds. The string values are the wire names used in result files.
const (
	ExperimentNextState           ExperimentKind = "next_state"
	ExperimentLegalMoves          ExperimentKind = "legal_moves"
	ExperimentMultiStepPrediction ExperimentKind = "multi_step_prediction"
	ExperimentMultiStepGeneration ExperimentKind = "multi_step_generation"
)

// AllExperimentKinds returns every supported experiment kind in a stable order.
func AllExperimentKinds() []ExperimentKind {
	return []ExperimentKind{
		ExperimentNextState,
		ExperimentLegalMoves,
		ExperimentMultiStepPrediction,
		ExperimentMultiStepGeneration,
	}
}

// ParseExperimentKind converts a user-supplied name into an ExperimentKind.
// Matching is case-insensitive and accepts dashes in place of underscores.
func ParseExperimentKind(name string) (ExperimentKind, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	for _, kind := range AllExperimentKinds() {
		if string(kind) == normalized {
			return kind, nil
		}
	}
	return "", fmt.Errorf("unknown experiment kind %q", name)
}

// String returns the wire name of the kind.
func (k ExperimentKind) String() string {
	return string(k)
}

// Valid reports whether k is one of the supported kinds.
func (k ExperimentKind) Valid() bool {
	for _, kind := range AllExperimentKinds() {
		if k == kind {
			return true
		}
	}
	return false
}

// RequiresSteps reports whether the kind needs a positive step count N.
func (k ExperimentKind) RequiresSteps() bool {
	return k == ExperimentMultiStepPrediction || k == ExperimentMultiStepGeneration
}

// SampleVariant returns the input sample variant the kind consumes.
func (k ExperimentKind) SampleVariant() SampleVariant {
	if k.RequiresSteps() {
		return VariantMoveSequence
	}
	return VariantStateTransition
}
