package campaign

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"ggpbench/pkg/ggptypes"
)

// TimestampLayout formats the run time embedded in output file names.
const TimestampLayout = "2006-01-02_150405"

// DefinitionExtensions are tried in order when locating a game definition.
var DefinitionExtensions = []string{".kif", ".gdl"}

// ErrDefinitionNotFound is returned by FindDefinition when no file matches.
var ErrDefinitionNotFound = errors.New("game definition not found")

// ErrInvalidGameName is returned by CheckGameName for names that cannot be used
// as a file name component.
var ErrInvalidGameName = errors.New("invalid game name")

// CheckGameName rejects game names that would resolve outside the definition or
// output directory.
func CheckGameName(game string) error {
	if game == "" || game == "." || game == ".." || strings.ContainsAny(game, "/\\\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidGameName, game)
	}
	return nil
}

// ScanSamples returns the *.json files directly inside dir, sorted by name.
func ScanSamples(dir string, reverse bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read samples directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}

	sort.Strings(files)
	if reverse {
		sort.Sort(sort.Reverse(sort.StringSlice(files)))
	}
	return files, nil
}

// FindDefinition locates <game>.kif, then <game>.gdl, in dir and returns its content.
func FindDefinition(dir, game string) (path string, content string, err error) {
	for _, ext := range DefinitionExtensions {
		candidate := filepath.Join(dir, game+ext)
		data, err := os.ReadFile(candidate)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", "", err
		}
		return candidate, string(data), nil
	}
	return "", "", fmt.Errorf("%w: %s{%s} in %s", ErrDefinitionNotFound, game, strings.Join(DefinitionExtensions, ","), dir)
}

// ExperimentDir names the per-experiment output directory: the kind, with an
// _n<N> suffix for multi-step kinds.
func ExperimentDir(kind ggptypes.ExperimentKind, steps int) string {
	if kind.RequiresSteps() {
		return fmt.Sprintf("%s_n%d", kind, steps)
	}
	return kind.String()
}

// OutputDir returns <root>/<experiment dir>/<model>.
func OutputDir(root string, kind ggptypes.ExperimentKind, steps int, model string) string {
	return filepath.Join(root, ExperimentDir(kind, steps), modelDir(model))
}

// OutputFile returns the result file name for game at t.
func OutputFile(game string, t time.Time) string {
	return fmt.Sprintf("output_%s_%s.json", game, t.Format(TimestampLayout))
}

// HasOutput reports whether dir already holds a result for game. Only names of
// the exact form output_<game>_<timestamp>.json count, so results of a game whose
// name extends another (bomberman2p_InvertedRoles) do not hide it.
func HasOutput(dir, game string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	pattern := regexp.MustCompile(`^output_` + regexp.QuoteMeta(game) + `_\d{4}-\d{2}-\d{2}_\d{6}\.json$`)
	for _, entry := range entries {
		if !entry.IsDir() && pattern.MatchString(entry.Name()) {
			return true, nil
		}
	}
	return false, nil
}

// modelDir keeps vendor-qualified model names ("meta/llama-3.1") in one directory.
func modelDir(model string) string {
	return strings.NewReplacer("/", "_", `\`, "_", ":", "_").Replace(model)
}
