// Package inspect renders saved result documents for a human reader: a markdown
// overview and line diffs between ground truth and the model's answer. It is a
// reading aid, not a scorer.
package inspect

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Op marks a diff line.
type Op int

// Diff line operations.
const (
	OpEqual Op = iota
	OpDelete
	OpInsert
)

// Line is one line of a line diff.
type Line struct {
	Op   Op
	Text string
}

// Prefix returns the unified diff marker for the line.
func (l Line) Prefix() string {
	switch l.Op {
	case OpDelete:
		return "-"
	case OpInsert:
		return "+"
	default:
		return " "
	}
}

// Comparison is the line diff of one ground truth against one prediction.
type Comparison struct {
	Lines    []Line
	Kept     int
	Missing  int
	Extra    int
	Identity bool
}

// Compare diffs expected against actual line by line. Lines are trimmed and blank
// lines dropped first, so layout differences do not count.
func Compare(expected, actual string) Comparison {
	want := normalize(expected)
	got := normalize(actual)

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(want, got)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var cmp Comparison
	for _, diff := range diffs {
		op := OpEqual
		switch diff.Type {
		case diffmatchpatch.DiffDelete:
			op = OpDelete
		case diffmatchpatch.DiffInsert:
			op = OpInsert
		}
		for _, text := range strings.SplitAfter(diff.Text, "\n") {
			if text == "" {
				continue
			}
			cmp.Lines = append(cmp.Lines, Line{Op: op, Text: strings.TrimSuffix(text, "\n")})
			switch op {
			case OpDelete:
				cmp.Missing++
			case OpInsert:
				cmp.Extra++
			default:
				cmp.Kept++
			}
		}
	}
	cmp.Identity = cmp.Missing == 0 && cmp.Extra == 0
	return cmp
}

// Unified renders the comparison as diff text.
func (c Comparison) Unified() string {
	var b strings.Builder
	for _, line := range c.Lines {
		b.WriteString(line.Prefix())
		b.WriteString(line.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

// normalize trims every line, drops blank ones and terminates each with "\n".
func normalize(s string) string {
	var b strings.Builder
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return b.String()
}
