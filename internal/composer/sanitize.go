package composer

import (
	"regexp"
	"strings"
)

var (
	brTag         = regexp.MustCompile(`<br\s*/?>`)
	trailingBrTag = regexp.MustCompile(`\n<br\s*/?>\s*$`)
)

// CleanupLineBreaks removes the <br /> markup rich-text engines leave in table
// rows and at the very end of a document. Other lines are left untouched.
func CleanupLineBreaks(markdown string) string {
	if markdown == "" {
		return markdown
	}

	lines := strings.Split(markdown, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "|") {
			lines[i] = brTag.ReplaceAllString(line, "")
		}
	}

	return trailingBrTag.ReplaceAllString(strings.Join(lines, "\n"), "\n")
}
