package batch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"ggpbench/pkg/ggptypes"
)

// ErrResultExists is returned by WriteResult when the target file already exists.
var ErrResultExists = errors.New("result file already exists")

// WriteResult writes result to path as JSON indented with four spaces. The file is
// written to a temporary file in the same directory and renamed into place, so a
// reader never sees a partial document. Existing files are never replaced.
func WriteResult(path string, result *ggptypes.RunResult) error {
	if result == nil {
		return errors.New("no result to write")
	}
	for i, rec := range result.Samples {
		if !ggptypes.RecordBelongsTo(rec, result.ExperimentKind) {
			return fmt.Errorf("sample %d does not belong to %s", i, result.ExperimentKind)
		}
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrResultExists, path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "    ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(result); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return nil
}

// ReadResult loads a result document written by WriteResult.
func ReadResult(path string) (*ggptypes.RunResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var result ggptypes.RunResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &result, nil
}
