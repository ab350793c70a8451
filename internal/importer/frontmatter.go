package importer

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"
)

// frontmatter holds the keys the importer understands. Unknown keys are
// ignored.
type frontmatter struct {
	Title  string `yaml:"title"`
	Folder string `yaml:"folder"`
	Pinned bool   `yaml:"pinned"`
}

// splitFrontmatter separates YAML frontmatter (between leading ---
// delimiters) from the Markdown body. Files without frontmatter, or
// with invalid YAML, are treated as all body.
func splitFrontmatter(data []byte) (frontmatter, string) {
	const delim = "---"
	var fm frontmatter

	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return fm, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return fm, string(data)
	}

	yamlBlock := rest[:idx]
	body := strings.TrimLeft(string(rest[idx+1+len(delim):]), "\n\r")

	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		return frontmatter{}, string(data)
	}
	return fm, body
}

// deriveTitle prefers the frontmatter title, then the first Markdown
// heading, then the first line of the body.
func deriveTitle(fm frontmatter, body string) string {
	if fm.Title != "" {
		return fm.Title
	}
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimLeft(line, "# "))
		}
		break
	}
	return ""
}
