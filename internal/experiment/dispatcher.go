// Package experiment routes input samples to the prompt and response contract of
// one experiment kind and assembles the resulting output records.
package experiment

import (
	"context"
	"fmt"
	"strings"

	"ggpbench/internal/harness"
	"ggpbench/internal/prompts"
	"ggpbench/pkg/ggptypes"
)

// Response schemas, one per experiment kind.
var (
	NextStateSchema           = harness.MustSchema[ggptypes.NextStateResponse]("next_state")
	LegalMovesSchema          = harness.MustSchema[ggptypes.LegalMovesResponse]("legal_moves")
	MultiStepStateSchema      = harness.MustSchema[ggptypes.MultiStepStateResponse]("multi_step_prediction")
	MultiStepGenerationSchema = harness.MustSchema[ggptypes.MultiStepGenerationResponse]("multi_step_generation")
)

// SchemaJSON returns the response schema document for kind.
func SchemaJSON(kind ggptypes.ExperimentKind) ([]byte, error) {
	switch kind {
	case ggptypes.ExperimentNextState:
		return NextStateSchema.JSON(), nil
	case ggptypes.ExperimentLegalMoves:
		return LegalMovesSchema.JSON(), nil
	case ggptypes.ExperimentMultiStepPrediction:
		return MultiStepStateSchema.JSON(), nil
	case ggptypes.ExperimentMultiStepGeneration:
		return MultiStepGenerationSchema.JSON(), nil
	default:
		return nil, fmt.Errorf("unknown experiment kind %q", kind)
	}
}

// Outcome is the result of one successfully processed sample. Warnings are
// non-fatal notes, e.g. a move sequence shorter than requested.
type Outcome struct {
	Record   ggptypes.OutputRecord
	Warnings []string
}

// Dispatcher processes samples for one experiment kind. The kind, game definition
// and step count are fixed at construction.
type Dispatcher struct {
	kind       ggptypes.ExperimentKind
	definition string
	steps      int
}

// New creates a dispatcher. steps is required, and must be positive, for the
// multi-step kinds; it is ignored otherwise.
func New(kind ggptypes.ExperimentKind, definition string, steps int) (*Dispatcher, error) {
	if !kind.Valid() {
		return nil, &ConfigurationError{Kind: kind, Reason: "unknown experiment kind"}
	}
	if strings.TrimSpace(definition) == "" {
		return nil, &ConfigurationError{Kind: kind, Reason: "game definition is empty"}
	}
	if kind.RequiresSteps() && steps < 1 {
		return nil, &ConfigurationError{Kind: kind, Reason: "a positive number of moves (N) is required"}
	}
	if !kind.RequiresSteps() {
		steps = 0
	}

	return &Dispatcher{kind: kind, definition: definition, steps: steps}, nil
}

// Kind returns the dispatcher's experiment kind.
func (d *Dispatcher) Kind() ggptypes.ExperimentKind {
	return d.kind
}

// Steps returns N for multi-step kinds, 0 otherwise.
func (d *Dispatcher) Steps() int {
	return d.steps
}

// Process validates sample, renders the prompt, generates the structured response
// with client and assembles the output record. Shape and ground truth problems are
// reported before any provider call.
func (d *Dispatcher) Process(ctx context.Context, client *harness.Client, sample ggptypes.InputSample) (Outcome, error) {
	actual := sample.Variant
	if (actual == ggptypes.VariantStateTransition && sample.Transition == nil) ||
		(actual == ggptypes.VariantMoveSequence && sample.Sequence == nil) {
		actual = ggptypes.VariantUnknown
	}
	if expected := d.kind.SampleVariant(); actual != expected {
		return Outcome{}, &SampleShapeMismatchError{Kind: d.kind, Expected: expected, Actual: actual}
	}

	switch d.kind {
	case ggptypes.ExperimentNextState:
		return d.nextState(ctx, client, sample.Transition)
	case ggptypes.ExperimentLegalMoves:
		return d.legalMoves(ctx, client, sample.Transition)
	case ggptypes.ExperimentMultiStepPrediction:
		return d.multiStepPrediction(ctx, client, sample.Sequence)
	default:
		return d.multiStepGeneration(ctx, client, sample.Sequence)
	}
}

func (d *Dispatcher) nextState(ctx context.Context, client *harness.Client, s *ggptypes.StateTransitionSample) (Outcome, error) {
	if s.Move == nil {
		return Outcome{}, &MissingGroundTruthError{Kind: d.kind, Field: "move"}
	}
	if s.NextState == nil {
		return Outcome{}, &MissingGroundTruthError{Kind: d.kind, Field: "next_state"}
	}

	prompt, err := prompts.Render(d.kind, prompts.Params{
		Definition: d.definition,
		GameState:  s.GameState,
		Move:       *s.Move,
	})
	if err != nil {
		return Outcome{}, err
	}

	resp, err := harness.Generate(ctx, client, prompt, NextStateSchema)
	if err != nil {
		return Outcome{}, err
	}

	return Outcome{Record: ggptypes.NextStateRecord{
		GameState: s.GameState,
		Move:      *s.Move,
		NextState: *s.NextState,
		LLMState:  resp.LLMState,
	}}, nil
}

func (d *Dispatcher) legalMoves(ctx context.Context, client *harness.Client, s *ggptypes.StateTransitionSample) (Outcome, error) {
	if s.LegalMoves == nil || *s.LegalMoves == "" {
		return Outcome{}, &MissingGroundTruthError{Kind: d.kind, Field: "legal_moves"}
	}

	prompt, err := prompts.Render(d.kind, prompts.Params{
		Definition: d.definition,
		GameState:  s.GameState,
	})
	if err != nil {
		return Outcome{}, err
	}

	resp, err := harness.Generate(ctx, client, prompt, LegalMovesSchema)
	if err != nil {
		return Outcome{}, err
	}

	return Outcome{Record: ggptypes.LegalMovesRecord{
		GameState:     s.GameState,
		LegalMoves:    *s.LegalMoves,
		LLMLegalMoves: resp.LLMLegalMoves,
	}}, nil
}

func (d *Dispatcher) multiStepPrediction(ctx context.Context, client *harness.Client, s *ggptypes.MoveSequenceSample) (Outcome, error) {
	if len(s.Moves) == 0 {
		return Outcome{}, &MissingGroundTruthError{Kind: d.kind, Field: "moves"}
	}

	var warnings []string
	moves := s.Moves
	if len(moves) > d.steps {
		moves = moves[:d.steps]
	} else if len(moves) < d.steps {
		warnings = append(warnings, fmt.Sprintf("sample has only %d moves, requested %d; using all available", len(moves), d.steps))
	}
	moves = append([]ggptypes.MoveStep(nil), moves...)

	prompt, err := prompts.Render(d.kind, prompts.Params{
		Definition:   d.definition,
		N:            len(moves),
		MoveSequence: prompts.FormatMoveSequence(moves),
	})
	if err != nil {
		return Outcome{}, err
	}

	resp, err := harness.Generate(ctx, client, prompt, MultiStepStateSchema)
	if err != nil {
		return Outcome{}, err
	}

	return Outcome{
		Record:   ggptypes.MultiStepRecord{Moves: moves, LLMState: resp.LLMState},
		Warnings: warnings,
	}, nil
}

func (d *Dispatcher) multiStepGeneration(ctx context.Context, client *harness.Client, s *ggptypes.MoveSequenceSample) (Outcome, error) {
	if len(s.Moves) == 0 {
		return Outcome{}, &MissingGroundTruthError{Kind: d.kind, Field: "moves"}
	}

	prompt, err := prompts.Render(d.kind, prompts.Params{
		Definition:  d.definition,
		N:           d.steps,
		MoveExample: s.Moves[0].JointMove,
	})
	if err != nil {
		return Outcome{}, err
	}

	resp, err := harness.Generate(ctx, client, prompt, MultiStepGenerationSchema)
	if err != nil {
		return Outcome{}, err
	}

	var warnings []string
	if len(resp.Moves) != d.steps {
		warnings = append(warnings, fmt.Sprintf("model generated %d moves, requested %d", len(resp.Moves), d.steps))
	}

	return Outcome{
		Record:   ggptypes.MultiStepRecord{Moves: resp.Moves, LLMState: resp.LLMState},
		Warnings: warnings,
	}, nil
}
