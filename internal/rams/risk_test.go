package rams

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampScore(t *testing.T) {
	cases := map[float64]int{
		-3: 1, 0: 1, 1: 1, 2.4: 2, 2.5: 3, 5: 5, 6: 5, 100: 5,
		math.NaN(): 1, math.Inf(1): 1, math.Inf(-1): 1,
		1e20: 5, -1e20: 1, math.MaxFloat64: 5,
	}
	for in, want := range cases {
		assert.Equal(t, want, ClampScore(in), "ClampScore(%v)", in)
	}
}

func TestClampScoreIdempotent(t *testing.T) {
	for v := -10.0; v <= 10; v += 0.5 {
		once := ClampScore(v)
		assert.Equal(t, once, ClampScore(float64(once)))
	}
}

func TestScoreEntryRecomputesRisk(t *testing.T) {
	e := ScoreEntry(RiskEntry{Likelihood: 6, Severity: 0, Risk: 99})
	assert.Equal(t, 5, e.Likelihood)
	assert.Equal(t, 1, e.Severity)
	assert.Equal(t, 5, e.Risk)
	assert.NotNil(t, e.Who)
	assert.Nil(t, e.ResidualRisk)
}

func TestScoreEntryResidualNeedsBothComponents(t *testing.T) {
	e := ScoreEntry(RiskEntry{Likelihood: 3, Severity: 3, ResidualLikelihood: intp(2), ResidualRisk: intp(20)})
	assert.Nil(t, e.ResidualRisk, "residual risk needs both components")

	e = ScoreEntry(RiskEntry{Likelihood: 3, Severity: 3, ResidualLikelihood: intp(9), ResidualSeverity: intp(2)})
	require.NotNil(t, e.ResidualRisk)
	assert.Equal(t, 5, *e.ResidualLikelihood)
	assert.Equal(t, 10, *e.ResidualRisk)
}

func TestCoerceNumber(t *testing.T) {
	assert.Equal(t, 0.0, coerceNumber(nil))
	assert.Equal(t, 1.0, coerceNumber(true))
	assert.Equal(t, 4.0, coerceNumber(" 4 "))
	assert.Equal(t, 0.0, coerceNumber(""))
	assert.True(t, math.IsNaN(coerceNumber("high")))
	assert.True(t, math.IsNaN(coerceNumber([]any{1.0})))
}

func TestBands(t *testing.T) {
	assert.Equal(t, "Low", BandFor(5).Label)
	assert.Equal(t, "Medium", BandFor(6).Label)
	assert.Equal(t, "Medium", BandFor(12).Label)
	assert.Equal(t, "High", BandFor(13).Label)
	assert.Equal(t, "Low", BandFor(0).Label)
	assert.Equal(t, "High", BandFor(40).Label)

	b := Bands()
	require.Len(t, b, 3)
	b[0].Label = "changed"
	assert.Equal(t, "Low", Bands()[0].Label, "Bands must return a copy")
}
