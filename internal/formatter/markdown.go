// Package formatter shapes raw model output into the markdown the chat shows.
package formatter

import (
	"regexp"
	"strings"
)

// NoResponse is returned for empty model output.
const NoResponse = "No response from model."

var (
	structureRe = regexp.MustCompile(`(?m)^\s*(#{1,6}\s|[-*+]\s)|###`)
	blankRunRe  = regexp.MustCompile(`\n(?:[ \t]*\n){2,}`)
)

// Format returns raw unchanged apart from blank-line collapsing when it is
// already structured; otherwise the first sentence becomes the Answer
// section and the rest, if any, the Details section.
func Format(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return NoResponse
	}
	if structureRe.MatchString(text) {
		return blankRunRe.ReplaceAllString(text, "\n\n")
	}

	var sentences []string
	for _, s := range strings.Split(text, ". ") {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) == 0 {
		return text
	}

	var b strings.Builder
	b.WriteString("### Answer\n\n")
	b.WriteString(strings.TrimRight(sentences[0], "."))
	b.WriteString(".\n")
	if rest := strings.Join(sentences[1:], ". "); rest != "" {
		b.WriteString("\n### Details\n\n")
		b.WriteString(rest)
	}
	return b.String()
}
