package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/KaramelBytes/rams-cli/internal/draft"
	"github.com/KaramelBytes/rams-cli/internal/rams"
)

// resetFlags restores every flag to its default so values from one
// invocation do not leak into the next.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		_ = fl.Value.Set(fl.DefValue)
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd is a helper to execute the root command with args.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execCmd(args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

func execCmd(args ...string) (string, error) {
	resetFlags(rootCmd)
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	return home
}

func loadTestDraft(t *testing.T, home, name string) *draft.Draft {
	t.Helper()
	d, err := draft.Load(filepath.Join(home, ".rams", "drafts", name))
	if err != nil {
		t.Fatalf("load draft: %v", err)
	}
	return d
}

// fakeOllama answers /api/chat with content, or with status when non-zero.
func fakeOllama(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		if status != 0 {
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": "model crashed"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message":           map[string]any{"role": "assistant", "content": content},
			"prompt_eval_count": 120,
			"eval_count":        80,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCLI_Init_Answer_Add_GenerateDryRun(t *testing.T) {
	home := isolateHome(t)

	notes := filepath.Join(home, "site-notes.md")
	if err := os.WriteFile(notes, []byte("# Site notes\n\nPlant room in basement, restricted access."), 0o644); err != nil {
		t.Fatalf("write notes: %v", err)
	}

	runCmd(t, "init", "boiler")
	runCmd(t, "answer", "-d", "boiler", "client", "Acme Housing")
	runCmd(t, "answer", "-d", "boiler", "activity", "Isolate gas supply")
	runCmd(t, "answer", "-d", "boiler", "activity", "Remove old boiler")
	runCmd(t, "add", "-d", "boiler", notes, "--desc", "site survey")
	runCmd(t, "generate", "-d", "boiler", "--dry-run")

	d := loadTestDraft(t, home, "boiler")
	if d.Answers.Client != "Acme Housing" {
		t.Fatalf("expected client answer, got %q", d.Answers.Client)
	}
	if len(d.Answers.Activities) != 2 {
		t.Fatalf("expected 2 activities, got %v", d.Answers.Activities)
	}
	if len(d.Attachments) != 1 {
		t.Fatalf("expected one attachment, got %d", len(d.Attachments))
	}
	if d.Document != nil {
		t.Fatal("dry-run must not store a document")
	}

	out := runCmd(t, "list", "--attachments", "-d", "boiler")
	if !strings.Contains(out, "site-notes.md") {
		t.Fatalf("expected attachment listing, got %q", out)
	}
}

func TestCLI_InitRefusesExistingDraft(t *testing.T) {
	isolateHome(t)
	runCmd(t, "init", "dup")
	if _, err := execCmd("init", "dup"); err == nil {
		t.Fatal("expected init to refuse an existing draft")
	}
}

func TestCLI_AnswersFile(t *testing.T) {
	home := isolateHome(t)
	path := filepath.Join(home, "answers.yaml")
	yaml := "title: Roof repair\nclient: City Council\nactivities:\n  - Erect scaffold\n  - Replace tiles\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write answers: %v", err)
	}
	runCmd(t, "init", "roof", "--answers", path)

	d := loadTestDraft(t, home, "roof")
	if d.Answers.Title != "Roof repair" || d.Answers.Client != "City Council" {
		t.Fatalf("answers not applied: %+v", d.Answers)
	}
	if len(d.Answers.Activities) != 2 {
		t.Fatalf("expected activities from file, got %v", d.Answers.Activities)
	}
}

func TestCLI_BudgetLimitBlocksGeneration(t *testing.T) {
	home := isolateHome(t)

	// A large attachment gives a non-trivial token count
	docPath := filepath.Join(home, "spec.md")
	if err := os.WriteFile(docPath, []byte("Title\n\n"+strings.Repeat("content ", 3000)), 0o644); err != nil {
		t.Fatalf("write doc: %v", err)
	}
	runCmd(t, "init", "budget")
	runCmd(t, "add", "-d", "budget", docPath)

	if _, err := execCmd("generate", "-d", "budget", "--model", "openai/gpt-4o", "--dry-run", "--budget-limit", "0.0001"); err == nil {
		t.Fatalf("expected error due to budget limit, got nil")
	}
}

func TestCLI_GenerateStoresModelDocumentAndHistory(t *testing.T) {
	home := isolateHome(t)
	srv := fakeOllama(t, 0, `{"project": {"title": "Boiler swap", "client": "Acme"}, "activities": ["Isolate", "Swap"]}`)

	runCmd(t, "init", "gen")
	runCmd(t, "generate", "-d", "gen", "--provider", "ollama", "--ollama-host", srv.URL, "--quiet")

	d := loadTestDraft(t, home, "gen")
	if d.Source != rams.SourceModel {
		t.Fatalf("expected model source, got %q", d.Source)
	}
	if d.Document == nil || d.Document.Project.Title != "Boiler swap" {
		t.Fatalf("expected generated document, got %+v", d.Document)
	}
	if len(d.Document.RiskAssessment) == 0 {
		t.Fatal("template sections must survive the merge")
	}

	out := runCmd(t, "history", "-d", "gen", "--json")
	var entries []map[string]any
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("history output is not JSON: %v\n%s", err, out)
	}
	if len(entries) != 1 || entries[0]["source"] != "model" || entries[0]["provider"] != "ollama" {
		t.Fatalf("unexpected history: %v", entries)
	}
}

func TestCLI_GenerateFallsBackToTemplate(t *testing.T) {
	home := isolateHome(t)
	srv := fakeOllama(t, http.StatusInternalServerError, "")

	runCmd(t, "init", "fb")
	runCmd(t, "generate", "-d", "fb", "--provider", "ollama", "--ollama-host", srv.URL, "--quiet")

	d := loadTestDraft(t, home, "fb")
	if d.Source != rams.SourceTemplate {
		t.Fatalf("expected template source, got %q", d.Source)
	}
	if d.Document == nil || d.Document.Project.Title == "" {
		t.Fatal("fallback must store a complete document")
	}
}

func TestCLI_GenerateMissingKeyIsAnError(t *testing.T) {
	isolateHome(t)
	runCmd(t, "init", "nokey")
	_, err := execCmd("generate", "-d", "nokey", "--provider", "openrouter", "--quiet")
	if err == nil || !strings.Contains(err.Error(), "OPENROUTER_API_KEY") {
		t.Fatalf("expected missing key error, got %v", err)
	}
}

func TestCLI_RenderWritesPDF(t *testing.T) {
	home := isolateHome(t)
	runCmd(t, "init", "pdf")
	out := filepath.Join(home, "out", "rams.pdf")
	runCmd(t, "render", "-d", "pdf", "--layout", "classic", "--output", out)

	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF-")) {
		t.Fatalf("expected a PDF, got %q", b[:min(len(b), 16)])
	}
}

func TestCLI_TemplateAndPreview(t *testing.T) {
	isolateHome(t)
	out := runCmd(t, "template")
	var doc rams.Document
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("template is not a document: %v", err)
	}
	if len(doc.RiskAssessment) == 0 {
		t.Fatal("expected template risk rows")
	}

	runCmd(t, "init", "pv")
	md := runCmd(t, "preview", "-d", "pv", "--raw")
	if !strings.Contains(md, doc.Project.Title) {
		t.Fatalf("preview missing title %q", doc.Project.Title)
	}
}

func TestCLI_DraftSetModel(t *testing.T) {
	home := isolateHome(t)
	runCmd(t, "init", "dm")
	runCmd(t, "draft", "set-model", "-d", "dm", "qwen2.5:7b", "--provider", "ollama")

	d := loadTestDraft(t, home, "dm")
	if d.Config.Model != "qwen2.5:7b" || d.Config.Provider != "ollama" {
		t.Fatalf("unexpected draft config: %+v", d.Config)
	}
	if _, err := execCmd("draft", "set-model", "-d", "dm", "x", "--provider", "anthropic"); err == nil {
		t.Fatal("expected invalid provider error")
	}
	runCmd(t, "draft", "set-model", "-d", "dm", "--clear")
	if d = loadTestDraft(t, home, "dm"); d.Config.Model != "" || d.Config.Provider != "" {
		t.Fatalf("expected cleared config, got %+v", d.Config)
	}
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	isolateHome(t)
	runCmd(t, "config", "set", "layout", "classic")
	runCmd(t, "config", "set", "api_key", "sk-abcdef123456")
	out := runCmd(t, "config", "show")
	if !strings.Contains(out, "layout: classic") {
		t.Fatalf("expected saved layout, got %q", out)
	}
	if strings.Contains(out, "sk-abcdef123456") {
		t.Fatal("api key must be masked")
	}
	if _, err := execCmd("config", "set", "layout", "fancy"); err == nil {
		t.Fatal("expected invalid layout error")
	}
}
