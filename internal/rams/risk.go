package rams

import (
	"math"
	"strconv"
	"strings"
)

const (
	MinScore = 1
	MaxScore = 5
)

// ClampScore forces a likelihood or severity value into [MinScore, MaxScore].
// Non-finite input becomes MinScore; fractional input is rounded first.
func ClampScore(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return MinScore
	}
	// Clamp before converting: huge floats do not fit an int.
	v = math.Max(MinScore, math.Min(MaxScore, v))
	return int(math.Round(v))
}

// Score is likelihood × severity after both are clamped.
func Score(likelihood, severity int) int {
	return ClampScore(float64(likelihood)) * ClampScore(float64(severity))
}

// ScoreEntry clamps every score component of e and recomputes the derived
// risks. ResidualRisk is set only when both residual components exist.
func ScoreEntry(e RiskEntry) RiskEntry {
	e.Likelihood = ClampScore(float64(e.Likelihood))
	e.Severity = ClampScore(float64(e.Severity))
	e.Risk = e.Likelihood * e.Severity

	if e.ResidualLikelihood != nil {
		v := ClampScore(float64(*e.ResidualLikelihood))
		e.ResidualLikelihood = &v
	}
	if e.ResidualSeverity != nil {
		v := ClampScore(float64(*e.ResidualSeverity))
		e.ResidualSeverity = &v
	}
	if e.ResidualLikelihood != nil && e.ResidualSeverity != nil {
		r := *e.ResidualLikelihood * *e.ResidualSeverity
		e.ResidualRisk = &r
	} else {
		e.ResidualRisk = nil
	}
	if e.Who == nil {
		e.Who = []string{}
	}
	return e
}

// coerceNumber mirrors loose numeric conversion of untrusted values:
// numbers pass through, numeric strings are parsed, booleans map to 0/1,
// empty strings and null are zero, anything else is NaN.
func coerceNumber(v any) float64 {
	switch t := v.(type) {
	case nil:
		return 0
	case float64:
		return t
	case bool:
		if t {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// Band is a qualitative risk level.
type Band struct {
	Label  string
	Action string
	Min    int
	Max    int
}

var bands = []Band{
	{Label: "Low", Action: "No further action required", Min: 1, Max: 5},
	{Label: "Medium", Action: "Additional controls required", Min: 6, Max: 12},
	{Label: "High", Action: "Stop work until risk is reduced", Min: 13, Max: 25},
}

// Bands returns the fixed legend used on rendered documents.
func Bands() []Band {
	return append([]Band(nil), bands...)
}

// BandFor returns the band containing score. Out-of-range scores snap to the
// nearest band.
func BandFor(score int) Band {
	for _, b := range bands {
		if score >= b.Min && score <= b.Max {
			return b
		}
	}
	if score < bands[0].Min {
		return bands[0]
	}
	return bands[len(bands)-1]
}
