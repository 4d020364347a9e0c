package ggptypes

import (
	"encoding/json"
	"fmt"
)

// OutputRecord is one successfully processed sample. Implementations are immutable
// value types; the kind they belong to is fixed by the concrete type.
type OutputRecord interface {
	// Kinds returns the experiment kinds that produce this record shape.
	Kinds() []ExperimentKind
}

// NextStateRecord is the output of the next_state experiment.
type NextStateRecord struct {
	GameState string `json:"game_state"`
	Move      string `json:"move"`
	NextState string `json:"next_state"`
	LLMState  string `json:"llm_state"`
}

// Kinds implements OutputRecord.
func (NextStateRecord) Kinds() []ExperimentKind {
	return []ExperimentKind{ExperimentNextState}
}

// LegalMovesRecord is the output of the legal_moves experiment.
type LegalMovesRecord struct {
	GameState     string `json:"game_state"`
	LegalMoves    string `json:"legal_moves"`
	LLMLegalMoves string `json:"llm_legal_moves"`
}

// Kinds implements OutputRecord.
func (LegalMovesRecord) Kinds() []ExperimentKind {
	return []ExperimentKind{ExperimentLegalMoves}
}

// MultiStepRecord is the output of both multi-step experiments. For prediction the
// moves are the (possibly truncated) input moves; for generation they are the moves
// the model produced itself.
type MultiStepRecord struct {
	Moves    []MoveStep `json:"moves"`
	LLMState string     `json:"llm_state"`
}

// Kinds implements OutputRecord.
func (MultiStepRecord) Kinds() []ExperimentKind {
	return []ExperimentKind{ExperimentMultiStepPrediction, ExperimentMultiStepGeneration}
}

// RecordBelongsTo reports whether rec is a valid record for kind.
func RecordBelongsTo(rec OutputRecord, kind ExperimentKind) bool {
	if rec == nil {
		return false
	}
	for _, k := range rec.Kinds() {
		if k == kind {
			return true
		}
	}
	return false
}

// RunResult is the document produced by one batch run.
type RunResult struct {
	GameName       string         `json:"game_name"`
	ModelName      string         `json:"llm_model"`
	ExperimentKind ExperimentKind `json:"experiment_type"`
	Samples        []OutputRecord `json:"samples"`
}

// UnmarshalJSON decodes a result document, choosing the record type from experiment_type.
func (r *RunResult) UnmarshalJSON(data []byte) error {
	var head struct {
		GameName       string            `json:"game_name"`
		ModelName      string            `json:"llm_model"`
		ExperimentKind ExperimentKind    `json:"experiment_type"`
		Samples        []json.RawMessage `json:"samples"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}

	kind, err := ParseExperimentKind(string(head.ExperimentKind))
	if err != nil {
		return err
	}

	records := make([]OutputRecord, 0, len(head.Samples))
	for i, raw := range head.Samples {
		rec, err := decodeRecord(kind, raw)
		if err != nil {
			return fmt.Errorf("sample %d: %w", i, err)
		}
		records = append(records, rec)
	}

	*r = RunResult{
		GameName:       head.GameName,
		ModelName:      head.ModelName,
		ExperimentKind: kind,
		Samples:        records,
	}
	return nil
}

func decodeRecord(kind ExperimentKind, raw json.RawMessage) (OutputRecord, error) {
	switch kind {
	case ExperimentNextState:
		var rec NextStateRecord
		err := json.Unmarshal(raw, &rec)
		return rec, err
	case ExperimentLegalMoves:
		var rec LegalMovesRecord
		err := json.Unmarshal(raw, &rec)
		return rec, err
	default:
		var rec MultiStepRecord
		err := json.Unmarshal(raw, &rec)
		return rec, err
	}
}
