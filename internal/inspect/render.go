package inspect

import (
	"fmt"
	"io"
	"strings"

	"ggpbench/pkg/ggptypes"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
)

// DefaultWordWrap is the rendering width.
const DefaultWordWrap = 100

// cellWidth bounds table cells in the overview.
const cellWidth = 48

// Options control Render.
type Options struct {
	// Style is a glamour style: "auto", "dark", "light", "notty" or "ascii".
	Style string
	// Width is the word wrap width. Zero means DefaultWordWrap.
	Width int
	// Plain strips every escape sequence from the output.
	Plain bool
}

// OptionsFor picks options for w: plain ascii output when w is not a color
// terminal or NO_COLOR is set.
func OptionsFor(w io.Writer) Options {
	out := termenv.NewOutput(w)
	if out.EnvNoColor() || out.EnvColorProfile() == termenv.Ascii {
		return Options{Style: "notty", Plain: true}
	}
	return Options{Style: "auto"}
}

// Markdown builds the markdown overview of result: run metadata, then each sample
// with its ground truth diff where the experiment has ground truth.
func Markdown(result *ggptypes.RunResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", result.GameName)
	b.WriteString("| experiment | model | samples |\n|---|---|---|\n")
	fmt.Fprintf(&b, "| %s | %s | %d |\n\n", result.ExperimentKind, result.ModelName, len(result.Samples))

	identical := 0
	for i, rec := range result.Samples {
		fmt.Fprintf(&b, "## Sample %d\n\n", i+1)
		switch r := rec.(type) {
		case ggptypes.NextStateRecord:
			fmt.Fprintf(&b, "**Move:** `%s`\n\n", cell(r.Move))
			identical += writeComparison(&b, "next state", r.NextState, r.LLMState)
		case ggptypes.LegalMovesRecord:
			fmt.Fprintf(&b, "**State:** `%s`\n\n", cell(r.GameState))
			identical += writeComparison(&b, "legal moves", r.LegalMoves, r.LLMLegalMoves)
		case ggptypes.MultiStepRecord:
			b.WriteString("| step | joint move |\n|---|---|\n")
			for _, m := range r.Moves {
				fmt.Fprintf(&b, "| %s | `%s` |\n", cell(m.Step), cell(m.JointMove))
			}
			b.WriteString("\n**Predicted state**\n\n```\n")
			b.WriteString(strings.TrimRight(r.LLMState, "\n"))
			b.WriteString("\n```\n\n")
		}
	}

	if result.ExperimentKind == ggptypes.ExperimentNextState || result.ExperimentKind == ggptypes.ExperimentLegalMoves {
		fmt.Fprintf(&b, "---\n\n**%d of %d** predictions match the ground truth line for line.\n", identical, len(result.Samples))
	}
	return b.String()
}

func writeComparison(b *strings.Builder, label, expected, actual string) int {
	cmp := Compare(expected, actual)
	fmt.Fprintf(b, "**%s:** %d kept, %d missing, %d extra\n\n```diff\n%s```\n\n",
		label, cmp.Kept, cmp.Missing, cmp.Extra, cmp.Unified())
	if cmp.Identity {
		return 1
	}
	return 0
}

// Render turns markdown into terminal output with glamour.
func Render(markdown string, opts Options) (string, error) {
	style := opts.Style
	if style == "" {
		style = "auto"
	}
	width := opts.Width
	if width <= 0 {
		width = DefaultWordWrap
	}

	renderOpts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "auto" {
		renderOpts = append(renderOpts, glamour.WithAutoStyle())
	} else {
		renderOpts = append(renderOpts, glamour.WithStylePath(style))
	}

	renderer, err := glamour.NewTermRenderer(renderOpts...)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	rendered, err := renderer.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	if opts.Plain {
		rendered = ansi.Strip(rendered)
	}
	return rendered, nil
}

// cell flattens s onto one line and truncates it to the table cell width.
func cell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "`", "'")
	if ansi.StringWidth(s) > cellWidth {
		s = ansi.Truncate(s, cellWidth, "…")
	}
	return s
}
