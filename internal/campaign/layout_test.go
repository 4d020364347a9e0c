package campaign

import (
	"path/filepath"
	"testing"
	"time"

	"ggpbench/internal/testutils"
	"ggpbench/pkg/ggptypes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanSamples(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.json", "a.json", "c.JSON", "d.txt", "sub/e.json"} {
		testutils.WriteFile(t, dir, name, "{}")
	}

	files, err := ScanSamples(dir, false)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.json"),
		filepath.Join(dir, "b.json"),
		filepath.Join(dir, "c.JSON"),
	}, files)

	files, err = ScanSamples(dir, true)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "c.JSON"), files[0])
}

func TestFindDefinition(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteFile(t, dir, "chess.kif", "(role white)")
	testutils.WriteFile(t, dir, "chess.gdl", "(role black)")
	testutils.WriteFile(t, dir, "go.gdl", "(role stone)")

	path, content, err := FindDefinition(dir, "chess")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "chess.kif"), path)
	assert.Equal(t, "(role white)", content)

	_, content, err = FindDefinition(dir, "go")
	require.NoError(t, err)
	assert.Equal(t, "(role stone)", content)

	_, _, err = FindDefinition(dir, "shogi")
	assert.ErrorIs(t, err, ErrDefinitionNotFound)
}

func TestOutputLayout(t *testing.T) {
	at := time.Date(2025, 3, 9, 14, 5, 7, 0, time.UTC)

	tests := []struct {
		kind  ggptypes.ExperimentKind
		steps int
		model string
		want  string
	}{
		{kind: ggptypes.ExperimentNextState, model: "gemini-2.5-flash", want: "/out/next_state/gemini-2.5-flash"},
		{kind: ggptypes.ExperimentLegalMoves, steps: 4, model: "llama-3.3-70b", want: "/out/legal_moves/llama-3.3-70b"},
		{kind: ggptypes.ExperimentMultiStepPrediction, steps: 5, model: "gpt-oss-120b", want: "/out/multi_step_prediction_n5/gpt-oss-120b"},
		{kind: ggptypes.ExperimentMultiStepGeneration, steps: 2, model: "openai/gpt-oss-120b", want: "/out/multi_step_generation_n2/openai_gpt-oss-120b"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, filepath.FromSlash(tt.want), OutputDir("/out", tt.kind, tt.steps, tt.model))
		})
	}

	assert.Equal(t, "output_connectfour_2025-03-09_140507.json", OutputFile("connectfour", at))
}

func TestHasOutput(t *testing.T) {
	dir := t.TempDir()

	ok, err := HasOutput(filepath.Join(dir, "missing"), "chess")
	require.NoError(t, err)
	assert.False(t, ok)

	testutils.WriteFile(t, dir, "output_bomberman2p_InvertedRoles_2025-01-01_000000.json", "{}")
	testutils.WriteFile(t, dir, "output_chess_notes.json", "{}")

	for game, want := range map[string]bool{
		"bomberman2p":               false,
		"bomberman2p_InvertedRoles": true,
		"chess":                     false,
	} {
		ok, err := HasOutput(dir, game)
		require.NoError(t, err)
		assert.Equal(t, want, ok, game)
	}
}

func TestCheckGameName(t *testing.T) {
	tests := []struct {
		game    string
		wantErr bool
	}{
		{game: "checkers-mustjump"},
		{game: "othello-comp2007"},
		{game: "a..b"},
		{game: "", wantErr: true},
		{game: ".", wantErr: true},
		{game: "..", wantErr: true},
		{game: "../escape", wantErr: true},
		{game: "nested/game", wantErr: true},
		{game: `..\escape`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.game, func(t *testing.T) {
			err := CheckGameName(tt.game)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidGameName)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
