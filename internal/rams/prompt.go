package rams

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

const (
	LocaleGB = "en-GB"
	LocaleUS = "en-US"
)

// activitiesPlaceholder stands in for an empty activity list.
const activitiesPlaceholder = "general construction activities as described in the scope"

// PromptOptions tunes BuildPrompt.
type PromptOptions struct {
	Locale string
	Strict bool
}

// Prompt is the two-turn brief sent to the completion runtime.
type Prompt struct {
	System string `json:"system"`
	User   string `json:"user"`
}

// Text joins both turns for display and token estimates.
func (p Prompt) Text() string {
	return p.System + "\n\n" + p.User
}

type terms struct {
	locale     string
	site       string
	workers    string
	regulation string
	spelling   string
}

var localeTerms = map[string]terms{
	LocaleGB: {
		locale:     LocaleGB,
		site:       "site",
		workers:    "operatives",
		regulation: "the Health and Safety at Work etc. Act 1974 and CDM 2015",
		spelling:   "British English",
	},
	LocaleUS: {
		locale:     LocaleUS,
		site:       "jobsite",
		workers:    "workers",
		regulation: "OSHA 29 CFR 1926",
		spelling:   "American English",
	},
}

// NormalizeLocale maps a locale tag onto a supported one, defaulting to en-GB.
func NormalizeLocale(tag string) string {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(tag), "_", "-")) {
	case "en-us", "us":
		return LocaleUS
	default:
		return LocaleGB
	}
}

// BuildPrompt renders the system instruction and user turn for answers. It is
// a pure function of its inputs.
func BuildPrompt(a Answers, base Document, opts PromptOptions) Prompt {
	locale := opts.Locale
	if locale == "" {
		locale = a.Locale
	}
	t := localeTerms[NormalizeLocale(locale)]
	return Prompt{
		System: systemInstruction(t, opts.Strict),
		User:   userTurn(t, a, base),
	}
}

func systemInstruction(t terms, strict bool) string {
	var b strings.Builder
	b.WriteString("RETURN ONLY A STRICT JSON OBJECT. No markdown, no code fences, no commentary.\n")
	fmt.Fprintf(&b, "You write Risk Assessment and Method Statements (RAMS) for construction %s work in %s, ", t.site, t.spelling)
	fmt.Fprintf(&b, "consistent with %s. Refer to the workforce as %s.\n\n", t.regulation, t.workers)

	b.WriteString("The object MUST contain every field below. Optional fields may be omitted; all others are required.\n")
	for _, f := range Schema {
		fmt.Fprintf(&b, "- %s: %s", f.Path, f.Type)
		if f.Optional {
			b.WriteString(" (optional)")
		}
		if f.Note != "" {
			fmt.Fprintf(&b, " - %s", f.Note)
		}
		b.WriteByte('\n')
	}

	b.WriteString("\nRules:\n")
	fmt.Fprintf(&b, "- likelihood, severity, residual_likelihood and residual_severity are integers from %d to %d.\n", MinScore, MaxScore)
	b.WriteString("- risk = likelihood x severity; residual_risk = residual_likelihood x residual_severity.\n")
	b.WriteString("- Dates use YYYY-MM-DD.\n")

	mins := MinItems(strict)
	keys := make([]string, 0, len(mins))
	for k := range mins {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s must have at least %d entr%s.\n", k, mins[k], plural(mins[k]))
	}
	return b.String()
}

func userTurn(t terms, a Answers, base Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Prepare a RAMS for the following %s works (locale %s).\n\n", t.site, t.locale)
	fmt.Fprintf(&b, "Project title: %s\n", orUnspecified(a.Title))
	fmt.Fprintf(&b, "Client: %s\n", orUnspecified(a.Client))
	fmt.Fprintf(&b, "Location: %s\n", orUnspecified(a.Location))
	fmt.Fprintf(&b, "Prepared by: %s\n", orUnspecified(a.PreparedBy))
	fmt.Fprintf(&b, "Scope: %s\n", orUnspecified(a.Scope))
	fmt.Fprintf(&b, "Duration and constraints: %s\n", orUnspecified(a.Duration))
	fmt.Fprintf(&b, "Activities include: %s.\n", activityClause(a.Activities))

	if len(a.References) > 0 {
		b.WriteString("\nReference notes:\n")
		for _, r := range a.References {
			fmt.Fprintf(&b, "--- %s ---\n%s\n", r.Name, strings.TrimSpace(r.Text))
		}
	}

	b.WriteString("\nUse this template as the base shape and replace its content to fit the works above:\n")
	// Document holds only strings, ints and slices, so marshalling cannot fail.
	raw, _ := json.MarshalIndent(base, "", "  ")
	b.Write(raw)
	b.WriteByte('\n')
	return b.String()
}

func activityClause(activities []string) string {
	var parts []string
	for _, a := range activities {
		if s := strings.TrimSpace(a); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return activitiesPlaceholder
	}
	return strings.Join(parts, "; ")
}

func orUnspecified(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "not specified"
	}
	return s
}

func plural(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
