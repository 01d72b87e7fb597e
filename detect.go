package markzap

import (
	"strings"
)

const slideSeparator = "---"

// Keys that mark a frontmatter block as belonging to a slide deck.
var presentationKeys = []string{"theme:", "class:", "layout:", "slidev"}

// DetectPresentation reports whether the markdown text looks like a slide
// presentation. Either a leading frontmatter block mentioning one of the
// slideshow keys or at least three separator lines is enough.
func DetectPresentation(text string) bool {
	if strings.HasPrefix(text, slideSeparator) {
		rest := text[len(slideSeparator):]
		if end := strings.Index(rest, slideSeparator); end >= 0 {
			frontMatter := strings.ToLower(rest[:end])
			for _, key := range presentationKeys {
				if strings.Contains(frontMatter, key) {
					return true
				}
			}
		}
	}

	return countSeparators(text) >= 3
}

// countSeparators counts lines consisting of "---" only. An unterminated
// opening frontmatter delimiter is counted as well.
func countSeparators(text string) int {
	count := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == slideSeparator {
			count++
		}
	}
	return count
}
