package parser_test

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/rams-cli/internal/parser"
)

func TestParseFileTXT(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.txt")
	content := "hello world\nthis is txt"
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := parser.ParseFile(p)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(out) == 0 || out[:5] != "hello" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestParseFileMD(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.md")
	content := "# Title\n\nBody here\n\n- list\n"
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := parser.ParseFile(p)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(out) == 0 || out[:5] != "# Tit" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestParseFileDOCXMethodStatement(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("zip create: %v", err)
	}
	_, _ = w.Write([]byte(`<w:document><w:body><w:p><w:r><w:t>Isolate the water supply.</w:t></w:r></w:p></w:body></w:document>`))
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	p := filepath.Join(t.TempDir(), "method.docx")
	if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := parser.ParseFile(p)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !strings.Contains(out, "Isolate the water supply.") || strings.Contains(out, "<w:t>") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestParseFileMarkdownDropsFrontMatterAndComments(t *testing.T) {
	p := filepath.Join(t.TempDir(), "survey.md")
	content := "---\nauthor: surveyor\n---\n# Plant room\r\n\r\n\r\n\r\nAsbestos survey <!-- internal note -->complete.   \n"
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := parser.ParseFile(p)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if want := "# Plant room\n\nAsbestos survey complete."; out != want {
		t.Fatalf("expected %q, got %q", want, out)
	}
}

func TestParseFileRejectsBinary(t *testing.T) {
	p := filepath.Join(t.TempDir(), "drawing.dwg")
	if err := os.WriteFile(p, []byte{0x41, 0x43, 0x00, 0x10}, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := parser.ParseFile(p)
	if !errors.Is(err, parser.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestParseFileDOCXParagraphsAndTables(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("zip create: %v", err)
	}
	_, _ = w.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		`<w:p><w:r><w:t>Permits &amp; isolations</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Hot works</w:t></w:r></w:p>` +
		`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>Gas</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>Cap off</w:t></w:r></w:p></w:tc></w:tr></w:tbl>` +
		`</w:body></w:document>`))
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	p := filepath.Join(t.TempDir(), "client.docx")
	if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := parser.ParseFile(p)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !strings.HasPrefix(out, "Permits & isolations\nHot works\n") {
		t.Fatalf("expected one line per paragraph, got %q", out)
	}
	if !strings.Contains(out, "Gas") || !strings.Contains(out, "Cap off") {
		t.Fatalf("expected table cells, got %q", out)
	}
}

func TestExtensions(t *testing.T) {
	got := strings.Join(parser.Extensions(), " ")
	for _, ext := range []string{".csv", ".docx", ".md", ".tsv", ".txt"} {
		if !strings.Contains(got, ext) {
			t.Fatalf("missing %s in %q", ext, got)
		}
	}
}
