package rams

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func normalizeOpts() NormalizeOptions {
	return NormalizeOptions{Now: fixedNow, Policy: ListReplace}
}

func TestNormalizeMalformedJSONReturnsBase(t *testing.T) {
	base := testBase()
	for _, raw := range []string{`{"project": {"title": "x"`, `[1, 2]`, `null`, `not json at all`} {
		got, _, err := Normalize(raw, base, normalizeOpts())
		require.ErrorIs(t, err, ErrMalformedJSON, raw)
		if diff := cmp.Diff(base, got); diff != "" {
			t.Fatalf("%q: expected base on failure:\n%s", raw, diff)
		}
	}
}

func TestNormalizeEmptyResponse(t *testing.T) {
	_, _, err := Normalize("  ```json\n```  ", testBase(), normalizeOpts())
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestNormalizeMissingTitleReturnsBase(t *testing.T) {
	base := testBase()
	for _, raw := range []string{`{"project": {"title": "   "}}`, `{"project": null}`} {
		got, _, err := Normalize(raw, base, normalizeOpts())
		require.ErrorIs(t, err, ErrMissingTitle, raw)
		assert.Equal(t, base.Project.Title, got.Project.Title)
	}
}

func TestNormalizeRepairsDates(t *testing.T) {
	got, rep, err := Normalize(`{"project": {"date": "13/25/2024", "review_date": "soon"}}`, testBase(), normalizeOpts())
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", got.Project.Date)
	assert.Equal(t, "2025-03-01", got.Project.ReviewDate)
	assert.Len(t, rep.Repairs, 2)

	got, _, err = Normalize(`{"project": {"date": "2024-02-30", "review_date": ""}}`, testBase(), normalizeOpts())
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", got.Project.Date, "impossible calendar dates are repaired")
	assert.Equal(t, "", got.Project.ReviewDate, "an empty review date is left alone")

	got, _, err = Normalize(`{"project": {"date": "2023-06-15", "review_date": "2023-6-1"}}`, testBase(), normalizeOpts())
	require.NoError(t, err)
	assert.Equal(t, "2023-06-15", got.Project.Date)
	assert.Equal(t, "2024-06-15", got.Project.ReviewDate)
}

func TestNormalizeClampsAndRecomputesRisk(t *testing.T) {
	raw := "```json\n" + `{
		"project": {"title": "Roof repairs"},
		"risk_assessment": [{"activity": "Work at height", "hazard": "Falls", "likelihood": 6, "severity": 0, "risk": 30}]
	}` + "\n```"

	got, _, err := Normalize(raw, testBase(), normalizeOpts())
	require.NoError(t, err)
	assert.Equal(t, "Roof repairs", got.Project.Title)
	require.Len(t, got.RiskAssessment, 1)
	e := got.RiskAssessment[0]
	assert.Equal(t, 5, e.Likelihood)
	assert.Equal(t, 1, e.Severity)
	assert.Equal(t, 5, e.Risk)
	assert.Equal(t, []string{}, e.Who)
	assert.Nil(t, e.ResidualRisk)
}

func TestNormalizeFillsCollections(t *testing.T) {
	got, _, err := Normalize(`{"health_safety": {"permits": null}, "emergency_plan": null}`, testBase(), normalizeOpts())
	require.NoError(t, err)
	assert.NotNil(t, got.HealthSafety.Permits)
	assert.NotNil(t, got.EmergencyPlan.Procedures)
	assert.NotNil(t, got.EmergencyPlan.Contacts)
}

func TestNormalizeIsIdempotentOnItsOutput(t *testing.T) {
	first, _, err := Normalize(`{"project": {"title": "Drainage"}, "activities": ["Excavate"]}`, testBase(), normalizeOpts())
	require.NoError(t, err)
	raw, err := jsonString(first)
	require.NoError(t, err)
	second, _, err := Normalize(raw, testBase(), normalizeOpts())
	require.NoError(t, err)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("normalizing a normalized document changed it:\n%s", diff)
	}
}

func jsonString(d Document) (string, error) {
	b, err := json.Marshal(d)
	return string(b), err
}

func TestStripFences(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}\n```":     `{"a":1}`,
		"```JSON{\"a\":1}```":     `{"a":1}`,
		"  {\"a\":1}  ":           `{"a":1}`,
	}
	for in, want := range cases {
		assert.Equal(t, want, StripFences(in), in)
	}
}

func TestValidDate(t *testing.T) {
	assert.True(t, ValidDate("2024-02-29"))
	assert.False(t, ValidDate("2023-02-29"))
	assert.False(t, ValidDate("2024-2-9"))
	assert.False(t, ValidDate("2024-01-01T00:00:00Z"))
}

func TestNormalizeClampsHugeScores(t *testing.T) {
	raw := `{"project": {"title": "X"}, "risk_assessment": [{"likelihood": 1e20, "severity": "1e19"}]}`
	got, _, err := Normalize(raw, testBase(), normalizeOpts())
	require.NoError(t, err)
	require.Len(t, got.RiskAssessment, 1)
	e := got.RiskAssessment[0]
	assert.Equal(t, 5, e.Likelihood)
	assert.Equal(t, 5, e.Severity)
	assert.Equal(t, 25, e.Risk)
}
