package reflection

import "strings"

const fence = "```"

// Sanitize removes Markdown code fences wrapped around a model reply.
// A leading fence may carry a language tag (```json). Applying Sanitize to
// its own output returns the same string.
func Sanitize(raw string) string {
	text := strings.TrimSpace(raw)
	for strings.HasPrefix(text, fence) {
		text = strings.TrimPrefix(text, fence)
		text = dropLanguageTag(text)
		text = strings.TrimSuffix(strings.TrimSpace(text), fence)
		text = strings.TrimSpace(text)
	}
	return text
}

// dropLanguageTag strips an info string like "json" or "JSON5" that directly
// follows an opening fence. A word that runs into other text is kept.
func dropLanguageTag(text string) string {
	end := 0
	for end < len(text) && isTagByte(text[end]) {
		end++
	}
	if end == 0 {
		return text
	}
	if end == len(text) {
		return ""
	}
	switch text[end] {
	case ' ', '\t', '\r', '\n', '{', '[':
		return text[end:]
	}
	return text
}

func isTagByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '+' || c == '_':
		return true
	}
	return false
}
