// Package text sanitizes chat text. The same rules apply to user input
// before it enters a conversation and to model replies before they are
// persisted and returned: markup tags are removed, markdown is preserved
// for the client renderer.
package text

import (
	"regexp"
	"strings"
)

var (
	scriptBlockRegex = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>`)
	styleBlockRegex  = regexp.MustCompile(`(?is)<style\b[^>]*>.*?</style>`)
	tagRegex         = regexp.MustCompile(`<[^>]*>`)
	excessBlankLines = regexp.MustCompile(`\n{3,}`)
)

// Sanitize strips script and style blocks (including their contents), removes
// remaining markup tags, collapses runs of blank lines, and trims surrounding
// whitespace.
func Sanitize(s string) string {
	s = scriptBlockRegex.ReplaceAllString(s, "")
	s = styleBlockRegex.ReplaceAllString(s, "")
	s = tagRegex.ReplaceAllString(s, "")
	s = excessBlankLines.ReplaceAllString(s, "\n\n")

	return strings.TrimSpace(s)
}
