package extract

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	blankRunRe   = regexp.MustCompile(`\n{3,}`)
	hspaceRunRe  = regexp.MustCompile(`[ \t\f\v\p{Zs}]+`)
	lineEndingRe = strings.NewReplacer("\r\n", "\n", "\r", "\n")
)

// Normalize cleans extracted text: line endings become "\n", horizontal whitespace runs
// become one space, every line is trimmed, runs of blank lines collapse to a single blank
// line, and the result is trimmed. Lines are trimmed before blank runs are collapsed so
// whitespace-only lines count as blank; this keeps Normalize idempotent.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	s := lineEndingRe.Replace(raw)
	s = hspaceRunRe.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = blankRunRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// CollapseWhitespace trims text and replaces every whitespace run (newlines included)
// with a single space.
func CollapseWhitespace(text string) string {
	text = strings.TrimSpace(text)
	var b strings.Builder
	b.Grow(len(text))
	wasSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !wasSpace {
				b.WriteRune(' ')
				wasSpace = true
			}
		} else {
			b.WriteRune(r)
			wasSpace = false
		}
	}
	return b.String()
}
