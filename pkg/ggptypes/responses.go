package ggptypes

// The response types below describe the JSON answers providers must return. Every
// field without omitempty is required by the derived JSON Schema.

// NextStateResponse is the answer to a next_state prompt.
type NextStateResponse struct {
	LLMState string `json:"llm_state" jsonschema:"description=The predicted next game state"`
}

// LegalMovesResponse is the answer to a legal_moves prompt.
type LegalMovesResponse struct {
	LLMLegalMoves string `json:"llm_legal_moves" jsonschema:"description=Legal moves separated by new line symbols"`
}

// MultiStepStateResponse is the answer to a multi_step_prediction prompt.
type MultiStepStateResponse struct {
	LLMState string `json:"llm_state" jsonschema:"description=The game state after the move sequence"`
}

// MultiStepGenerationResponse is the answer to a multi_step_generation prompt.
type MultiStepGenerationResponse struct {
	Moves    []MoveStep `json:"moves" jsonschema:"description=The sequence of moves generated by the model"`
	LLMState string     `json:"llm_state" jsonschema:"description=The predicted game state after the generated moves"`
}
