package draft_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/rams-cli/internal/draft"
	"github.com/KaramelBytes/rams-cli/internal/rams"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadAnswersFormats(t *testing.T) {
	files := map[string]string{
		"a.yaml": "title: Roof repairs\nclient: Acme\nactivities:\n  - Scaffold\n  - Strip tiles\nlocale: en-us\n",
		"a.toml": "title = \"Roof repairs\"\nclient = \"Acme\"\nactivities = [\"Scaffold\", \"Strip tiles\"]\nlocale = \"en-us\"\n",
		"a.json": `{"title": "Roof repairs", "client": "Acme", "activities": ["Scaffold", "Strip tiles"], "locale": "en-us"}`,
	}
	for name, content := range files {
		a, err := draft.LoadAnswers(writeFile(t, name, content))
		require.NoError(t, err, name)
		assert.Equal(t, "Roof repairs", a.Title, name)
		assert.Equal(t, "Acme", a.Client, name)
		assert.Equal(t, []string{"Scaffold", "Strip tiles"}, a.Activities, name)
		assert.Equal(t, rams.LocaleUS, a.Locale, name)
	}
}

func TestLoadAnswersErrors(t *testing.T) {
	_, err := draft.LoadAnswers(writeFile(t, "a.ini", "title=x"))
	assert.ErrorContains(t, err, "unsupported answers format")
	_, err = draft.LoadAnswers(writeFile(t, "a.json", "{"))
	assert.ErrorContains(t, err, "parse answers")
}

func TestApplyAnswersKeepsUnsetFields(t *testing.T) {
	d := draft.New("Original", t.TempDir())
	d.Answers.Scope = "Keep me"
	d.ApplyAnswers(rams.Answers{Client: "New client", Activities: []string{"One"}})
	assert.Equal(t, "Original", d.Answers.Title)
	assert.Equal(t, "Keep me", d.Answers.Scope)
	assert.Equal(t, "New client", d.Answers.Client)
	assert.Equal(t, []string{"One"}, d.Answers.Activities)
}
