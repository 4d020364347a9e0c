package ggptypes

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// SampleVariant tags the structural variant of an InputSample.
type SampleVariant int

// Input sample variants. The zero value marks an untagged sample.
const (
	VariantUnknown SampleVariant = iota
	VariantStateTransition
	VariantMoveSequence
)

// String returns a human readable name for the variant.
func (v SampleVariant) String() string {
	switch v {
	case VariantStateTransition:
		return "state_transition"
	case VariantMoveSequence:
		return "move_sequence"
	default:
		return "unknown"
	}
}

// ErrUnrecognizedSample is returned when a sample element carries neither a
// "moves" nor a "game_state" field.
var ErrUnrecognizedSample = errors.New("sample matches no known variant")

// MoveStep is one joint move of a move sequence.
type MoveStep struct {
	Step      string `json:"step"`
	JointMove string `json:"joint_move"`
}

// StateTransitionSample is a single state plus optional move and ground truth fields.
type StateTransitionSample struct {
	GameState  string  `json:"game_state"`
	Move       *string `json:"move,omitempty"`
	NextState  *string `json:"next_state,omitempty"`
	LegalMoves *string `json:"legal_moves,omitempty"`
}

// MoveSequenceSample is an ordered move sequence played from the initial state.
type MoveSequenceSample struct {
	Moves []MoveStep `json:"moves"`
}

// InputSample is a tagged union over the two input variants.
// The tag is assigned once when the sample is decoded and never re-derived.
type InputSample struct {
	Variant    SampleVariant
	Transition *StateTransitionSample
	Sequence   *MoveSequenceSample
}

// NewTransitionSample wraps a StateTransitionSample in a tagged InputSample.
func NewTransitionSample(s StateTransitionSample) InputSample {
	return InputSample{Variant: VariantStateTransition, Transition: &s}
}

// NewSequenceSample wraps a MoveSequenceSample in a tagged InputSample.
func NewSequenceSample(s MoveSequenceSample) InputSample {
	return InputSample{Variant: VariantMoveSequence, Sequence: &s}
}

// UnmarshalJSON decodes one sample element and assigns its variant from field presence:
// a "moves" key selects the move sequence variant, otherwise "game_state" selects the
// state transition variant.
func (s *InputSample) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("decode sample: %w", err)
	}

	if _, ok := fields["moves"]; ok {
		var seq MoveSequenceSample
		if err := json.Unmarshal(data, &seq); err != nil {
			return fmt.Errorf("decode move sequence sample: %w", err)
		}
		*s = NewSequenceSample(seq)
		return nil
	}

	if raw, ok := fields["game_state"]; ok {
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return fmt.Errorf("decode state transition sample: game_state is null")
		}
		var tr StateTransitionSample
		if err := json.Unmarshal(data, &tr); err != nil {
			return fmt.Errorf("decode state transition sample: %w", err)
		}
		*s = NewTransitionSample(tr)
		return nil
	}

	return ErrUnrecognizedSample
}

// MarshalJSON encodes the active variant.
func (s InputSample) MarshalJSON() ([]byte, error) {
	switch s.Variant {
	case VariantStateTransition:
		return json.Marshal(s.Transition)
	case VariantMoveSequence:
		return json.Marshal(s.Sequence)
	default:
		return nil, ErrUnrecognizedSample
	}
}

// InputDocument is the content of one samples file.
type InputDocument struct {
	GameName string        `json:"game_name"`
	Samples  []InputSample `json:"samples"`
}

// DecodeInputDocument parses a samples file. Each element of "samples" is tagged
// independently, so a mixed file is accepted.
func DecodeInputDocument(data []byte) (*InputDocument, error) {
	var doc InputDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.GameName == "" {
		return nil, fmt.Errorf("input document has no game_name")
	}
	return &doc, nil
}
