package draft

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/rams-cli/internal/rams"
)

// LoadAnswers reads an answers file. The format follows the extension:
// .yaml/.yml, .toml or .json.
func LoadAnswers(path string) (rams.Answers, error) {
	var a rams.Answers
	b, err := os.ReadFile(path)
	if err != nil {
		return a, fmt.Errorf("read answers: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &a)
	case ".toml":
		err = toml.Unmarshal(b, &a)
	case ".json":
		err = json.Unmarshal(b, &a)
	default:
		return a, fmt.Errorf("unsupported answers format %q (use .yaml, .toml or .json)", filepath.Ext(path))
	}
	if err != nil {
		return a, fmt.Errorf("parse answers %s: %w", filepath.Base(path), err)
	}
	if a.Locale != "" {
		a.Locale = rams.NormalizeLocale(a.Locale)
	}
	return a, nil
}

// ApplyAnswers overwrites the draft's answers with the non-empty fields of a.
func (d *Draft) ApplyAnswers(a rams.Answers) {
	cur := &d.Answers
	for _, f := range []struct {
		dst *string
		src string
	}{
		{&cur.Title, a.Title},
		{&cur.Client, a.Client},
		{&cur.Location, a.Location},
		{&cur.PreparedBy, a.PreparedBy},
		{&cur.Scope, a.Scope},
		{&cur.Duration, a.Duration},
		{&cur.Locale, a.Locale},
	} {
		if strings.TrimSpace(f.src) != "" {
			*f.dst = f.src
		}
	}
	if len(a.Activities) > 0 {
		cur.Activities = append([]string(nil), a.Activities...)
	}
}
