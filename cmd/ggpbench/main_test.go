package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"ggpbench/internal/batch"
	"ggpbench/pkg/ggptypes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	return out.String(), err
}

func TestSchemaCommand(t *testing.T) {
	out, err := execute(t, "schema", "legal-moves")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Contains(t, doc["required"], "llm_legal_moves")

	_, err = execute(t, "schema", "chess_eval")
	assert.Error(t, err)
}

func TestProvidersCommand(t *testing.T) {
	out, err := execute(t, "providers")
	require.NoError(t, err)

	for _, want := range []string{"cerebras", "gemini", "nvidia", "anthropic", "CEREBRAS_API_KEYS", "3 cycles"} {
		assert.Contains(t, out, want)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "ggpbench v")
}

func TestVersionCommand_Check(t *testing.T) {
	t.Cleanup(func() { _ = versionCmd.Flags().Set("check", "") })

	out, err := execute(t, "version", "--check", ">= 0.1, < 1")
	require.NoError(t, err)
	assert.Contains(t, out, "satisfies")

	_, err = execute(t, "version", "--check", ">= 9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not satisfy")

	_, err = execute(t, "version", "--check", "not a constraint")
	assert.Error(t, err)
}

func TestShowCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output_tictactoe.json")
	require.NoError(t, batch.WriteResult(path, &ggptypes.RunResult{
		GameName:       "tictactoe",
		ModelName:      "llama-3.3-70b",
		ExperimentKind: ggptypes.ExperimentLegalMoves,
		Samples: []ggptypes.OutputRecord{
			ggptypes.LegalMovesRecord{GameState: "(cell 1 1 b)", LegalMoves: "(mark 1 1)\n(noop)", LLMLegalMoves: "(mark 1 1)"},
		},
	}))

	out, err := execute(t, "show", "--markdown", path)
	require.NoError(t, err)
	assert.Contains(t, out, "# tictactoe")
	assert.Contains(t, out, "-(noop)")

	_, err = execute(t, "show", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestRunCommand_InvalidConfiguration(t *testing.T) {
	_, err := execute(t, "run", "--experiment", "multi_step_generation", "--samples-dir", t.TempDir(), "--gdl-dir", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--model is required")
	assert.Contains(t, err.Error(), "--n-moves")
}
