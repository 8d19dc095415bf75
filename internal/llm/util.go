// Package llm - util.go provides shared utilities for LLM response processing.
package llm

import "strings"

// CleanTextBlock strips the wrappers models put around plain copy: markdown
// code fences, a leading "Here is ..." line followed by a blank line, and
// matching surrounding quotes.
func CleanTextBlock(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		// Skip potential language identifier on first line
		if idx := strings.Index(text, "\n"); idx >= 0 {
			firstLine := text[:idx]
			if len(firstLine) < 20 && !strings.Contains(firstLine, " ") {
				text = text[idx+1:]
			}
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	if idx := strings.Index(text, "\n\n"); idx >= 0 {
		first := strings.ToLower(strings.TrimSpace(text[:idx]))
		if !strings.Contains(first, "\n") && isPreamble(first) {
			text = strings.TrimSpace(text[idx+2:])
		}
	}

	if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' && strings.Count(text, `"`) == 2 {
		text = strings.TrimSpace(text[1 : len(text)-1])
	}

	return text
}

func isPreamble(line string) bool {
	if !strings.HasSuffix(line, ":") {
		return false
	}
	for _, prefix := range []string{"here is", "here's", "sure", "certainly", "okay"} {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
