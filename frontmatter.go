package markzap

import (
	"strings"

	"gopkg.in/yaml.v2"
)

// Frontmatter is the metadata of a document's leading YAML block. Decoding is
// best effort: missing or malformed frontmatter gives the zero value.
type Frontmatter struct {
	Title  string `yaml:"title"`
	Theme  string `yaml:"theme"`
	Layout string `yaml:"layout"`
	Class  string `yaml:"class"`
	Author string `yaml:"author"`
}

func ParseFrontmatter(text string) Frontmatter {
	block, ok := frontmatterBlock(text)
	if !ok {
		return Frontmatter{}
	}
	fm := Frontmatter{}
	if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
		return Frontmatter{}
	}
	return fm
}

// frontmatterBlock returns the lines between an opening "---" line and the
// next "---" line.
func frontmatterBlock(text string) (string, bool) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != slideSeparator {
		return "", false
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == slideSeparator {
			return strings.Join(lines[1:i], "\n"), true
		}
	}
	return "", false
}
