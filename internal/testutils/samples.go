package testutils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"ggpbench/pkg/ggptypes"

	"github.com/stretchr/testify/require"
)

// Ptr returns a pointer to s.
func Ptr(s string) *string {
	return &s
}

// NextStateSample builds a state transition sample with move and next state.
func NextStateSample(state, move, next string) ggptypes.InputSample {
	return ggptypes.NewTransitionSample(ggptypes.StateTransitionSample{
		GameState: state,
		Move:      Ptr(move),
		NextState: Ptr(next),
	})
}

// LegalMovesSample builds a state transition sample with legal moves ground truth.
func LegalMovesSample(state, legal string) ggptypes.InputSample {
	return ggptypes.NewTransitionSample(ggptypes.StateTransitionSample{
		GameState:  state,
		LegalMoves: Ptr(legal),
	})
}

// SequenceSample builds a move sequence sample from joint moves, numbering steps from 0.
func SequenceSample(jointMoves ...string) ggptypes.InputSample {
	moves := make([]ggptypes.MoveStep, len(jointMoves))
	for i, jm := range jointMoves {
		moves[i] = ggptypes.MoveStep{Step: fmt.Sprint(i), JointMove: jm}
	}
	return ggptypes.NewSequenceSample(ggptypes.MoveSequenceSample{Moves: moves})
}

// WriteJSON marshals v into dir/name and returns the path.
func WriteJSON(t *testing.T, dir, name string, v any) string {
	t.Helper()

	data, err := json.MarshalIndent(v, "", "  ")
	require.NoError(t, err)

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

// WriteFile writes content into dir/name and returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
