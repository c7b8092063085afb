package draft_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/rams-cli/internal/draft"
	"github.com/KaramelBytes/rams-cli/internal/rams"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "boiler")
	d := draft.New("Boiler swap", dir)
	if err := d.SetAnswer("client", "Acme Homes"); err != nil {
		t.Fatalf("set client: %v", err)
	}
	if err := d.SetAnswer("activity", "Isolate gas"); err != nil {
		t.Fatalf("set activity: %v", err)
	}
	if err := d.SetAnswer("activity", "Remove boiler"); err != nil {
		t.Fatalf("set activity: %v", err)
	}
	d.Config.Model = "gpt-4o-mini"
	doc := rams.NewTemplateStore(nil).Base()
	d.SetDocument(doc, rams.SourceTemplate)
	if err := d.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := draft.Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.ID != d.ID || got.Answers.Title != "Boiler swap" || got.Answers.Client != "Acme Homes" {
		t.Fatalf("unexpected draft: %+v", got)
	}
	if strings.Join(got.Answers.Activities, "|") != "Isolate gas|Remove boiler" {
		t.Fatalf("activities not preserved: %v", got.Answers.Activities)
	}
	if got.Config.Model != "gpt-4o-mini" || got.Source != rams.SourceTemplate {
		t.Fatalf("config/source not preserved: %+v %s", got.Config, got.Source)
	}
	if got.Document == nil || got.Document.Project.Title != doc.Project.Title {
		t.Fatalf("document not preserved")
	}
	if got.RootDir() != dir {
		t.Fatalf("root dir: %s", got.RootDir())
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := draft.Load(t.TempDir()); err == nil || !strings.Contains(err.Error(), "draft not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestSetAnswerValidation(t *testing.T) {
	d := draft.New("x", t.TempDir())
	if err := d.SetAnswer("colour", "red"); err == nil {
		t.Fatalf("expected unknown key error")
	}
	if err := d.SetAnswer("activity", "  "); err == nil {
		t.Fatalf("expected empty activity error")
	}
	if err := d.SetAnswer("activities", "Excavate; ; Backfill"); err != nil {
		t.Fatalf("set activities: %v", err)
	}
	if len(d.Answers.Activities) != 2 || d.Answers.Activities[1] != "Backfill" {
		t.Fatalf("unexpected activities: %v", d.Answers.Activities)
	}
	if err := d.SetAnswer("locale", "en_us"); err != nil || d.Answers.Locale != rams.LocaleUS {
		t.Fatalf("locale not normalized: %q (%v)", d.Answers.Locale, err)
	}
}

func TestAttachmentsBecomeReferences(t *testing.T) {
	tdir := t.TempDir()
	p1 := filepath.Join(tdir, "b-survey.txt")
	p2 := filepath.Join(tdir, "a-notes.md")
	if err := os.WriteFile(p1, []byte("No asbestos found."), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p2, []byte("# Access\n\nKeys from reception."), 0o644); err != nil {
		t.Fatal(err)
	}
	d := draft.New("x", filepath.Join(tdir, "d"))
	if _, err := d.AddAttachment(p1, "asbestos survey"); err != nil {
		t.Fatalf("add: %v", err)
	}
	att, err := d.AddAttachment(p2, "")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if att.Tokens <= 0 || att.ID == "" {
		t.Fatalf("unexpected attachment: %+v", att)
	}

	a := d.PromptAnswers()
	if len(a.References) != 2 {
		t.Fatalf("expected 2 references, got %d", len(a.References))
	}
	if a.References[0].Name != "a-notes.md" || a.References[1].Name != "b-survey.txt (asbestos survey)" {
		t.Fatalf("unexpected reference order: %+v", a.References)
	}
	p := rams.BuildPrompt(a, rams.NewTemplateStore(nil).Base(), rams.PromptOptions{})
	if !strings.Contains(p.User, "No asbestos found.") {
		t.Fatalf("reference text missing from prompt")
	}
}

func TestCurrentDocumentFallsBackToTemplate(t *testing.T) {
	d := draft.New("x", t.TempDir())
	templates := rams.NewTemplateStore(nil)
	if got := d.CurrentDocument(templates); got.Project.Title != templates.Base().Project.Title {
		t.Fatalf("expected template document")
	}
}
