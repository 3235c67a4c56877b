package extract

import (
	"regexp"
	"strings"
)

var reSpaceRun = regexp.MustCompile(` {2,}`)

// Normalize applies the uniform post-extraction cleanup: trim every line,
// drop blank lines, rejoin with single newlines, collapse runs of two or
// more spaces, trim the whole result. Idempotent.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		kept = append(kept, line)
	}
	out := strings.Join(kept, "\n")
	out = reSpaceRun.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}
