// Package prompts renders the four experiment prompts from embedded templates.
package prompts

import (
	"embed"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"ggpbench/pkg/ggptypes"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("prompts").Option("missingkey=error").ParseFS(templateFS, "templates/*.tmpl"))

// Params are the named values a prompt template may reference. Game states and
// moves are opaque and passed through as given, empty or not.
type Params struct {
	Definition   string
	GameState    string
	Move         string
	N            int
	MoveSequence string
	MoveExample  string
}

// ErrMissingParam is wrapped by Render when the definition, step count or move
// text a template needs is absent.
var ErrMissingParam = errors.New("missing prompt parameter")

// Render builds the prompt for kind.
func Render(kind ggptypes.ExperimentKind, params Params) (string, error) {
	if err := validate(kind, params); err != nil {
		return "", err
	}

	var out strings.Builder
	if err := templates.ExecuteTemplate(&out, kind.String()+".tmpl", params); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", kind, err)
	}
	return out.String(), nil
}

func validate(kind ggptypes.ExperimentKind, p Params) error {
	missing := func(name string) error {
		return fmt.Errorf("%s prompt: %w: %s", kind, ErrMissingParam, name)
	}

	if strings.TrimSpace(p.Definition) == "" {
		return missing("definition")
	}

	switch kind {
	case ggptypes.ExperimentNextState, ggptypes.ExperimentLegalMoves:
	case ggptypes.ExperimentMultiStepPrediction:
		if p.N < 1 {
			return missing("n")
		}
		if p.MoveSequence == "" {
			return missing("move_sequence")
		}
	case ggptypes.ExperimentMultiStepGeneration:
		if p.N < 1 {
			return missing("n")
		}
		if p.MoveExample == "" {
			return missing("move_example")
		}
	default:
		return fmt.Errorf("no prompt template for experiment kind %q", kind)
	}
	return nil
}

// FormatMoveSequence renders moves as "Step <step>:\n<joint_move>" blocks separated
// by blank lines.
func FormatMoveSequence(moves []ggptypes.MoveStep) string {
	blocks := make([]string, len(moves))
	for i, m := range moves {
		blocks[i] = fmt.Sprintf("Step %s:\n%s", m.Step, m.JointMove)
	}
	return strings.TrimSpace(strings.Join(blocks, "\n\n"))
}
