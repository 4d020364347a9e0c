package campaign

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ggpbench/internal/batch"
	"ggpbench/internal/experiment"
	"ggpbench/internal/harness"
	"ggpbench/internal/metrics"
	"ggpbench/internal/testutils"
	"ggpbench/pkg/ggptypes"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	root       string
	samplesDir string
	gdlDir     string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	root := t.TempDir()
	f := fixture{root: root, samplesDir: filepath.Join(root, "samples"), gdlDir: filepath.Join(root, "gdl")}
	require.NoError(t, os.MkdirAll(f.samplesDir, 0o755))
	require.NoError(t, os.MkdirAll(f.gdlDir, 0o755))
	return f
}

func (f fixture) addGame(t *testing.T, file, game string, samples int) {
	t.Helper()
	doc := ggptypes.InputDocument{GameName: game}
	for i := 0; i < samples; i++ {
		doc.Samples = append(doc.Samples, testutils.NextStateSample("(cell 1 1 b)", "(mark 1 1)", "(cell 1 1 x)"))
	}
	testutils.WriteJSON(t, f.samplesDir, file, doc)
}

func (f fixture) options(maxSamples int, targets ...string) Options {
	return Options{
		Experiment:  ggptypes.ExperimentNextState,
		MaxSamples:  maxSamples,
		SamplesDir:  f.samplesDir,
		GDLDir:      f.gdlDir,
		TargetGames: targets,
		SamplePause: -1,
		Now:         testutils.NewClock().Now,
		NewRunID:    testutils.NewRunIDs().Next,
	}
}

func newClient(t *testing.T, vendor harness.Vendor) *harness.Client {
	t.Helper()
	client, err := testutils.NewClient(vendor, 1)
	require.NoError(t, err)
	return client
}

func statuses(report *Report) map[string]GameStatus {
	out := map[string]GameStatus{}
	for _, g := range report.Games {
		out[filepath.Base(g.File)] = g.Status
	}
	return out
}

func TestNew_Validation(t *testing.T) {
	client := newClient(t, testutils.Echo("gemini", "{}"))
	f := newFixture(t)

	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{name: "unknown experiment", mutate: func(o *Options) { o.Experiment = "bogus" }},
		{name: "steps missing", mutate: func(o *Options) { o.Experiment = ggptypes.ExperimentMultiStepPrediction }},
		{name: "zero max samples", mutate: func(o *Options) { o.MaxSamples = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := f.options(1)
			tt.mutate(&opts)
			_, err := New(client, opts)
			var cfgErr *experiment.ConfigurationError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}

	c, err := New(client, f.options(1))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.root, "next_state", "test-model"), c.OutputDir())
}

func TestRun_ProcessesEachGame(t *testing.T) {
	f := newFixture(t)
	f.addGame(t, "a_tictactoe.json", "tictactoe", 3)
	f.addGame(t, "b_connectfour.json", "connectfour", 2)
	f.addGame(t, "c_chess.json", "chess", 2)
	f.addGame(t, "d_checkers.json", "checkers", 2)
	f.addGame(t, "e_othergame.json", "othergame", 2)
	f.addGame(t, "f_pacman3p.json", "pacman3p", 1)
	testutils.WriteFile(t, f.samplesDir, "g_broken.json", "{not json")
	testutils.WriteFile(t, f.samplesDir, "notes.txt", "ignored")

	testutils.WriteFile(t, f.gdlDir, "tictactoe.kif", "(role xplayer)")
	testutils.WriteFile(t, f.gdlDir, "connectfour.gdl", "(role red)")
	testutils.WriteFile(t, f.gdlDir, "checkers.kif", "(role white)")
	testutils.WriteFile(t, f.gdlDir, "pacman3p.kif", "(role pacman)")

	outDir := filepath.Join(f.root, "next_state", "test-model")
	testutils.WriteFile(t, outDir, "output_checkers_2024-12-31_235959.json", "{}")

	vendor := testutils.Echo("gemini", `{"llm_state": "(cell 1 1 x)"}`)
	recorder := metrics.NewRecorder()
	opts := f.options(2, "tictactoe", "connectfour", "chess", "checkers", "pacman3p")
	opts.Recorder = recorder

	c, err := New(newClient(t, vendor), opts)
	require.NoError(t, err)

	report, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "00000001-0000-4000-8000-000000000001", report.RunID)
	_, err = uuid.Parse(report.RunID)
	assert.NoError(t, err)

	assert.Equal(t, map[string]GameStatus{
		"a_tictactoe.json":   StatusSaved,
		"b_connectfour.json": StatusSaved,
		"c_chess.json":       StatusMissingDefinition,
		"d_checkers.json":    StatusExisting,
		"e_othergame.json":   StatusNotTargeted,
		"f_pacman3p.json":    StatusDiscarded,
		"g_broken.json":      StatusUnreadable,
	}, statuses(report))
	assert.Equal(t, 2, report.Count(StatusSaved))

	saved := filepath.Join(outDir, "output_tictactoe_2025-01-01_000001.json")
	assert.Equal(t, saved, report.Games[0].OutputPath)
	result, err := batch.ReadResult(saved)
	require.NoError(t, err)
	assert.Equal(t, "tictactoe", result.GameName)
	assert.Len(t, result.Samples, 2)
	assert.FileExists(t, filepath.Join(outDir, "output_connectfour_2025-01-01_000002.json"))

	// tictactoe stops after 2 of 3 samples, connectfour uses both, pacman3p has 1.
	assert.Len(t, vendor.Calls(), 5)
	assert.Contains(t, vendor.Calls()[2].Prompt, "(role red)")
	assert.Equal(t, 1.0, testutil.ToFloat64(recorder.Batches.WithLabelValues("next_state", "discarded")))
}

func TestRun_SkipsExistingOnSecondRun(t *testing.T) {
	f := newFixture(t)
	f.addGame(t, "tictactoe.json", "tictactoe", 1)
	testutils.WriteFile(t, f.gdlDir, "tictactoe.kif", "(role xplayer)")

	vendor := testutils.Echo("gemini", `{"llm_state": "x"}`)
	for i, want := range []GameStatus{StatusSaved, StatusExisting} {
		c, err := New(newClient(t, vendor), f.options(1))
		require.NoError(t, err)
		report, err := c.Run(context.Background())
		require.NoError(t, err)
		require.Len(t, report.Games, 1)
		assert.Equal(t, want, report.Games[0].Status, "run %d", i+1)
	}
	assert.Len(t, vendor.Calls(), 1)
}

func TestRun_Reverse(t *testing.T) {
	f := newFixture(t)
	f.addGame(t, "a.json", "alpha", 1)
	f.addGame(t, "b.json", "beta", 1)

	opts := f.options(1)
	opts.Reverse = true
	c, err := New(newClient(t, testutils.Echo("gemini", "{}")), opts)
	require.NoError(t, err)

	report, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Games, 2)
	assert.Equal(t, "beta", report.Games[0].Game)
	assert.Equal(t, "alpha", report.Games[1].Game)
}

func TestRun_ContextCancelledBetweenGames(t *testing.T) {
	f := newFixture(t)
	f.addGame(t, "a.json", "alpha", 1)
	f.addGame(t, "b.json", "beta", 1)
	testutils.WriteFile(t, f.gdlDir, "alpha.kif", "(role a)")
	testutils.WriteFile(t, f.gdlDir, "beta.kif", "(role b)")

	ctx, cancel := context.WithCancel(context.Background())
	vendor := &testutils.ScriptedVendor{
		VendorName: "gemini",
		Respond: func(string) testutils.Reply {
			cancel()
			return testutils.Text(`{"llm_state": "x"}`)
		},
	}

	opts := f.options(1)
	opts.GamePause = time.Hour
	c, err := New(newClient(t, vendor), opts)
	require.NoError(t, err)

	report, err := c.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, report.Games, 1)
	assert.Equal(t, StatusSaved, report.Games[0].Status)
	assert.Len(t, vendor.Calls(), 1)
}

func TestRun_SpacesGamesThatReachTheProvider(t *testing.T) {
	f := newFixture(t)
	f.addGame(t, "a.json", "alpha", 1)
	f.addGame(t, "b.json", "beta", 1)
	f.addGame(t, "c.json", "gamma", 1)
	testutils.WriteFile(t, f.gdlDir, "alpha.kif", "(role a)")
	testutils.WriteFile(t, f.gdlDir, "gamma.kif", "(role c)")

	const pause = 40 * time.Millisecond
	opts := f.options(1)
	opts.GamePause = pause
	c, err := New(newClient(t, testutils.Echo("gemini", `{"llm_state": "x"}`)), opts)
	require.NoError(t, err)

	start := time.Now()
	report, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), pause-5*time.Millisecond)
	assert.Equal(t, 2, report.Count(StatusSaved))
	assert.Equal(t, 1, report.Count(StatusMissingDefinition))
}

func TestRun_FirstGameIsNotDelayed(t *testing.T) {
	f := newFixture(t)
	f.addGame(t, "a.json", "alpha", 1)
	testutils.WriteFile(t, f.gdlDir, "alpha.kif", "(role a)")

	opts := f.options(1)
	opts.GamePause = time.Hour
	c, err := New(newClient(t, testutils.Echo("gemini", `{"llm_state": "x"}`)), opts)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	report, err := c.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Count(StatusSaved))
}

func TestRun_RejectsUnsafeGameNames(t *testing.T) {
	f := newFixture(t)
	f.addGame(t, "a.json", "../escape", 1)
	f.addGame(t, "b.json", "nested/game", 1)
	testutils.WriteFile(t, f.root, "escape.kif", "(role a)")

	vendor := testutils.Echo("gemini", `{"llm_state": "x"}`)
	c, err := New(newClient(t, vendor), f.options(1))
	require.NoError(t, err)

	report, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Games, 2)
	for _, g := range report.Games {
		assert.Equal(t, StatusInvalidName, g.Status, g.Game)
		assert.ErrorIs(t, g.Err, ErrInvalidGameName)
	}
	assert.Empty(t, vendor.Calls())
}

func TestRun_MissingSamplesDir(t *testing.T) {
	f := newFixture(t)
	opts := f.options(1)
	opts.SamplesDir = filepath.Join(f.root, "nope")

	c, err := New(newClient(t, testutils.Echo("gemini", "{}")), opts)
	require.NoError(t, err)
	_, err = c.Run(context.Background())
	assert.Error(t, err)
}
