package rams

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPromptDeclaresEveryField(t *testing.T) {
	p := BuildPrompt(Answers{Title: "Boiler swap"}, testBase(), PromptOptions{})
	assert.True(t, strings.HasPrefix(p.System, "RETURN ONLY A STRICT JSON OBJECT"))
	for _, f := range Schema {
		assert.Contains(t, p.System, "- "+f.Path+": "+f.Type, "schema field %s missing", f.Path)
	}
	assert.Contains(t, p.System, "integers from 1 to 5")
}

func TestBuildPromptEmptyActivitiesUsesPlaceholder(t *testing.T) {
	p := BuildPrompt(Answers{Activities: []string{"", "  "}}, testBase(), PromptOptions{})
	assert.Contains(t, p.User, "Activities include: "+activitiesPlaceholder+".")
	assert.NotContains(t, p.User, "Activities include: .")
	assert.Contains(t, p.User, "Project title: not specified")
}

func TestBuildPromptEmbedsAnswersAndBase(t *testing.T) {
	a := Answers{
		Title:      "Kitchen refit",
		Client:     "Acme Homes",
		Activities: []string{"Strip out", "First fix"},
		Duration:   "3 days, occupied house",
		References: []Reference{{Name: "survey.txt", Text: "Asbestos survey clear.\n"}},
	}
	p := BuildPrompt(a, testBase(), PromptOptions{})
	assert.Contains(t, p.User, "Project title: Kitchen refit")
	assert.Contains(t, p.User, "Activities include: Strip out; First fix.")
	assert.Contains(t, p.User, "Duration and constraints: 3 days, occupied house")
	assert.Contains(t, p.User, "--- survey.txt ---\nAsbestos survey clear.")
	assert.Contains(t, p.User, `"title": "Pipework Installation"`)
}

func TestBuildPromptStrictRaisesMinimums(t *testing.T) {
	normal := BuildPrompt(Answers{}, testBase(), PromptOptions{})
	strict := BuildPrompt(Answers{}, testBase(), PromptOptions{Strict: true})
	assert.Contains(t, normal.System, "- risk_assessment must have at least 1 entry.")
	assert.Contains(t, strict.System, "- risk_assessment must have at least 5 entries.")
	assert.Contains(t, strict.System, "- emergency_plan.contacts must have at least 2 entries.")
}

func TestBuildPromptLocales(t *testing.T) {
	gb := BuildPrompt(Answers{}, testBase(), PromptOptions{Locale: "en-GB"})
	us := BuildPrompt(Answers{Locale: "en_US"}, testBase(), PromptOptions{})
	assert.Contains(t, gb.System, "CDM 2015")
	assert.Contains(t, gb.System, "operatives")
	assert.Contains(t, us.System, "OSHA")
	assert.Contains(t, us.User, "jobsite works")
	assert.Equal(t, LocaleGB, NormalizeLocale("fr-FR"))
}

func TestBuildPromptIsPure(t *testing.T) {
	a := Answers{Title: "T", Activities: []string{"A"}}
	assert.Equal(t, BuildPrompt(a, testBase(), PromptOptions{}), BuildPrompt(a, testBase(), PromptOptions{}))
}
