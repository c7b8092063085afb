package parser_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/rams-cli/internal/parser"
)

func TestParseFileCSVRegister(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "coshh.csv")
	content := "substance,hazard,control\n" +
		"Flux paste,Irritant,Gloves\n" +
		"PTFE spray,\"Flammable | aerosol\",No naked flames\n"
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := parser.ParseFile(p)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !strings.HasPrefix(out, "| substance | hazard | control |\n| --- | --- | --- |\n") {
		t.Fatalf("expected markdown header, got: %q", out)
	}
	if !strings.Contains(out, "| Flux paste | Irritant | Gloves |") {
		t.Fatalf("missing row, got: %q", out)
	}
	if !strings.Contains(out, `Flammable \| aerosol`) {
		t.Fatalf("expected escaped pipe, got: %q", out)
	}
}

func TestParseFileTSVTruncates(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "plant.tsv")
	var sb strings.Builder
	sb.WriteString("item\tcert\n")
	for i := 0; i < 60; i++ {
		fmt.Fprintf(&sb, "Tool %d\tPAT\n", i)
	}
	if err := os.WriteFile(p, []byte(sb.String()), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := parser.ParseFile(p)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !strings.Contains(out, "| Tool 49 | PAT |") || strings.Contains(out, "Tool 50") {
		t.Fatalf("expected 50 rows, got: %q", out)
	}
	if !strings.Contains(out, "(10 more rows omitted)") {
		t.Fatalf("expected truncation note, got: %q", out)
	}
}
