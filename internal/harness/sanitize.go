package harness

import (
	"encoding/json"
	"strings"
)

// Sanitize normalizes raw model text into JSON text. It trims whitespace, removes a
// surrounding markdown code fence (``` or ```json) and drops a duplicated closing
// brace that some models emit on its own line. Anything else is left for the parser
// to reject.
func Sanitize(raw string) string {
	text := strings.TrimSpace(raw)
	text = stripFence(text)
	text = strings.TrimSpace(text)
	return collapseTrailingBrace(text)
}

func stripFence(text string) string {
	if strings.HasPrefix(text, "```") {
		text = text[3:]
		if len(text) >= 4 && strings.EqualFold(text[:4], "json") {
			text = text[4:]
		}
	}
	return strings.TrimSuffix(strings.TrimSpace(text), "```")
}

// collapseTrailingBrace removes a final line holding a lone "}" when the text is not
// valid JSON as is and becomes valid without it. Valid input is never touched.
func collapseTrailingBrace(text string) string {
	if json.Valid([]byte(text)) {
		return text
	}

	cut := strings.LastIndex(text, "\n")
	if cut < 0 || strings.TrimSpace(text[cut+1:]) != "}" {
		return text
	}

	candidate := strings.TrimSpace(text[:cut])
	if !strings.HasSuffix(candidate, "}") || !json.Valid([]byte(candidate)) {
		return text
	}
	return candidate
}
