package parser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// maxCSVRows caps how many data rows of a register are passed on as text.
const maxCSVRows = 50

// delimited renders a CSV or TSV register (COSHH sheets, plant lists,
// contact lists) as a markdown table.
func delimited(comma rune) extractor {
	return func(content []byte) (string, error) {
		return parseDelimited(content, comma)
	}
}

func parseDelimited(content []byte, comma rune) (string, error) {
	r := csv.NewReader(bytes.NewReader(content))
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return "", fmt.Errorf("parse csv: %w", err)
	}
	if len(rows) == 0 {
		return "", nil
	}

	header := rows[0]
	var sb strings.Builder
	writeRow(&sb, header)
	sb.WriteString("|")
	for range header {
		sb.WriteString(" --- |")
	}
	sb.WriteString("\n")

	data := rows[1:]
	for i, row := range data {
		if i == maxCSVRows {
			fmt.Fprintf(&sb, "\n(%d more rows omitted)\n", len(data)-maxCSVRows)
			break
		}
		cells := make([]string, len(header))
		copy(cells, row)
		writeRow(&sb, cells)
	}
	return sb.String(), nil
}

func writeRow(sb *strings.Builder, cells []string) {
	sb.WriteString("|")
	for _, c := range cells {
		c = strings.ReplaceAll(strings.TrimSpace(c), "|", "\\|")
		sb.WriteString(" " + strings.ReplaceAll(c, "\n", " ") + " |")
	}
	sb.WriteString("\n")
}
