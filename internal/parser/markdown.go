package parser

import (
	"regexp"
	"strings"
)

var htmlComment = regexp.MustCompile(`(?s)<!--.*?-->`)

// markdownText keeps the markup, which models read well, but drops YAML
// front matter and HTML comments.
func markdownText(content []byte) (string, error) {
	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	if strings.HasPrefix(text, "---\n") {
		if end := strings.Index(text[4:], "\n---"); end >= 0 {
			text = text[4+end+4:]
		}
	}
	return htmlComment.ReplaceAllString(text, ""), nil
}
