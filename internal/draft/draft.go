package draft

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/rams-cli/internal/parser"
	"github.com/KaramelBytes/rams-cli/internal/rams"
	"github.com/KaramelBytes/rams-cli/internal/utils"
)

const (
	fileName = "draft.json"
	// referenceTokenLimit caps how much of one attachment reaches the prompt.
	referenceTokenLimit = 2000
)

// Draft is one RAMS in progress, persisted as draft.json in its own directory.
type Draft struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Answers     rams.Answers           `json:"answers"`
	Attachments map[string]*Attachment `json:"attachments"`
	Config      *Config                `json:"config"`
	// Document is the current working document, set by generate and edit.
	Document  *rams.Document `json:"document,omitempty"`
	Source    rams.Source    `json:"source,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`

	// Not serialized: on-disk location of the draft.json
	rootDir string `json:"-"`
}

// Config holds per-draft overrides of the global settings.
type Config struct {
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// New constructs an in-memory draft. Call Save() to persist.
func New(name, rootDir string) *Draft {
	now := time.Now()
	return &Draft{
		ID:          uuid.NewString(),
		Name:        name,
		Answers:     rams.Answers{Title: name},
		Attachments: make(map[string]*Attachment),
		// Leave Config fields empty to inherit from global defaults unless explicitly set per draft.
		Config:    &Config{},
		CreatedAt: now,
		UpdatedAt: now,
		rootDir:   rootDir,
	}
}

// Load loads a draft.json from the provided directory.
func Load(dir string) (*Draft, error) {
	path := filepath.Join(dir, fileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("draft not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read draft: %w", err)
	}
	var d Draft
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("parse draft: %w", err)
	}
	if d.Config == nil {
		d.Config = &Config{}
	}
	d.rootDir = dir
	return &d, nil
}

// RootDir returns the on-disk draft directory path.
func (d *Draft) RootDir() string { return d.rootDir }

// Save writes draft.json using atomic write.
func (d *Draft) Save() error {
	if d.rootDir == "" {
		return errors.New("draft root directory not set")
	}
	if err := utils.EnsureDir(d.rootDir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	d.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(d)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(d.rootDir, fileName), data)
}

// AddAttachment parses a reference file and caches its text in the draft.
func (d *Draft) AddAttachment(path, description string) (*Attachment, error) {
	parsed, err := parser.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("parse attachment: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat attachment: %w", err)
	}
	a := &Attachment{
		ID:          uuid.NewString(),
		Path:        path,
		Name:        filepath.Base(path),
		Description: description,
		Content:     parsed,
		Tokens:      parser.EstimateTokens(parsed),
		AddedAt:     info.ModTime(),
	}
	if d.Attachments == nil {
		d.Attachments = make(map[string]*Attachment)
	}
	d.Attachments[a.ID] = a
	d.UpdatedAt = time.Now()
	return a, nil
}

// References returns attachment text ordered by name, each truncated to a
// fixed token budget.
func (d *Draft) References() []rams.Reference {
	atts := make([]*Attachment, 0, len(d.Attachments))
	for _, a := range d.Attachments {
		atts = append(atts, a)
	}
	sort.Slice(atts, func(i, j int) bool {
		if atts[i].Name != atts[j].Name {
			return atts[i].Name < atts[j].Name
		}
		return atts[i].ID < atts[j].ID
	})
	out := make([]rams.Reference, 0, len(atts))
	for _, a := range atts {
		name := a.Name
		if a.Description != "" {
			name += " (" + a.Description + ")"
		}
		out = append(out, rams.Reference{Name: name, Text: utils.TruncateToTokenLimit(a.Content, referenceTokenLimit)})
	}
	return out
}

// PromptAnswers returns the stored answers with attachment references filled in.
func (d *Draft) PromptAnswers() rams.Answers {
	a := d.Answers
	a.Activities = append([]string(nil), d.Answers.Activities...)
	a.References = d.References()
	return a
}

// AnswerKeys lists the keys accepted by SetAnswer.
var AnswerKeys = []string{"title", "client", "location", "prepared_by", "scope", "duration", "locale", "activity", "activities"}

// SetAnswer assigns one answer field. "activity" appends; "activities"
// replaces the list with a semicolon separated value.
func (d *Draft) SetAnswer(key, value string) error {
	value = strings.TrimSpace(value)
	a := &d.Answers
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "title":
		a.Title = value
	case "client":
		a.Client = value
	case "location":
		a.Location = value
	case "prepared_by", "prepared-by", "author":
		a.PreparedBy = value
	case "scope":
		a.Scope = value
	case "duration":
		a.Duration = value
	case "locale":
		a.Locale = rams.NormalizeLocale(value)
	case "activity":
		if value == "" {
			return errors.New("activity cannot be empty")
		}
		a.Activities = append(a.Activities, value)
	case "activities":
		a.Activities = splitList(value)
	default:
		return fmt.Errorf("unknown answer %q (valid: %s)", key, strings.Join(AnswerKeys, ", "))
	}
	d.UpdatedAt = time.Now()
	return nil
}

// SetDocument stores doc as the draft's working document.
func (d *Draft) SetDocument(doc rams.Document, source rams.Source) {
	c := doc.Clone()
	d.Document = &c
	d.Source = source
	d.UpdatedAt = time.Now()
}

// CurrentDocument returns a copy of the working document, or the template
// when nothing has been generated yet.
func (d *Draft) CurrentDocument(templates *rams.TemplateStore) rams.Document {
	if d.Document != nil {
		return d.Document.Clone()
	}
	return templates.Base()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
