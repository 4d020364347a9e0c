package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain object",
			input:    `{"llm_state": "(cell 1 1 x)"}`,
			expected: `{"llm_state": "(cell 1 1 x)"}`,
		},
		{
			name:     "surrounding whitespace",
			input:    "\n\n  {\"a\": 1}  \n",
			expected: `{"a": 1}`,
		},
		{
			name:     "json fence",
			input:    "```json\n{\"llm_state\": \"s\"}\n```",
			expected: `{"llm_state": "s"}`,
		},
		{
			name:     "bare fence",
			input:    "```\n{\"llm_state\": \"s\"}\n```",
			expected: `{"llm_state": "s"}`,
		},
		{
			name:     "upper case tag",
			input:    "```JSON\n{\"a\": 1}\n```",
			expected: `{"a": 1}`,
		},
		{
			name:     "fence with outer whitespace",
			input:    "  ```json\n  {\"a\": 1}\n```\n\n",
			expected: `{"a": 1}`,
		},
		{
			name:     "duplicated closing brace",
			input:    "{\"llm_state\": \"s\"}\n}",
			expected: `{"llm_state": "s"}`,
		},
		{
			name:     "duplicated closing brace inside fence",
			input:    "```json\n{\n  \"llm_legal_moves\": \"(noop)\"\n}\n}\n```",
			expected: "{\n  \"llm_legal_moves\": \"(noop)\"\n}",
		},
		{
			name:     "valid nested object keeps both braces",
			input:    "{\"moves\": {\"step\": \"0\"}\n}",
			expected: "{\"moves\": {\"step\": \"0\"}\n}",
		},
		{
			name:     "truncated output left alone",
			input:    `{"llm_state": "(cell 1`,
			expected: `{"llm_state": "(cell 1`,
		},
		{
			name:     "empty",
			input:    "   ",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Sanitize(tt.input))
		})
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		"```json\n{\"llm_state\": \"s\"}\n```",
		"{\"a\": {\"b\": 1}}\n}",
		"not json at all",
		"```\n```",
		"{\"a\": 1}\n}\n}",
		"",
	}

	for _, input := range inputs {
		once := Sanitize(input)
		assert.Equal(t, once, Sanitize(once), "input %q", input)
	}
}
