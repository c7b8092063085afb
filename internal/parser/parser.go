// Package parser extracts plain text from reference attachments such as site
// surveys, client requirements and COSHH registers so it can be quoted to the
// model.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/KaramelBytes/rams-cli/internal/utils"
)

// ErrUnsupported is returned for attachments that are not text.
var ErrUnsupported = errors.New("unsupported attachment format")

type extractor func(content []byte) (string, error)

var extractors map[string]extractor

// plainText lists the supported extensions, so the table is filled at init.
func init() {
	extractors = map[string]extractor{
		".txt":      plainText,
		".text":     plainText,
		".md":       markdownText,
		".markdown": markdownText,
		".docx":     docxText,
		".csv":      delimited(','),
		".tsv":      delimited('\t'),
	}
}

// Extensions lists the file extensions with a dedicated extractor.
func Extensions() []string {
	out := make([]string, 0, len(extractors))
	for ext := range extractors {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// ParseFile extracts tidy text from path. Unknown extensions are read as
// plain text unless the content looks binary.
func ParseFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	extract, ok := extractors[strings.ToLower(filepath.Ext(path))]
	if !ok {
		extract = plainText
	}
	text, err := extract(data)
	if err != nil {
		return "", fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return tidy(text), nil
}

// EstimateTokens delegates to utils.CountTokens.
func EstimateTokens(text string) int {
	return utils.CountTokens(text)
}

func plainText(content []byte) (string, error) {
	if bytes.IndexByte(content, 0) >= 0 {
		return "", fmt.Errorf("%w: binary content (supported: %s)", ErrUnsupported, strings.Join(Extensions(), ", "))
	}
	return string(content), nil
}

// tidy normalizes line endings, drops trailing spaces and collapses runs of
// blank lines to one.
func tidy(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	out := lines[:0]
	blank := 0
	for _, l := range lines {
		l = strings.TrimRight(l, " \t")
		if l == "" {
			blank++
			if blank > 1 {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, l)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
