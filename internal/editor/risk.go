package editor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KaramelBytes/rams-cli/internal/rams"
)

// Score edits are clamped here and the row is rescored by rams.ScoreEntry
// after every Set, so risk and residual_risk are never user-editable.
var riskCols = []column[rams.RiskEntry]{
	text("activity", "Activity", func(e *rams.RiskEntry) *string { return &e.Activity }),
	text("hazard", "Hazard", func(e *rams.RiskEntry) *string { return &e.Hazard }),
	{
		key: "who", label: "Who might be harmed",
		get: func(e rams.RiskEntry) string { return strings.Join(e.Who, ", ") },
		set: func(e *rams.RiskEntry, s string) error { e.Who = SplitItems(s, ","); return nil },
	},
	score("likelihood", "Likelihood", func(e *rams.RiskEntry) *int { return &e.Likelihood }),
	score("severity", "Severity", func(e *rams.RiskEntry) *int { return &e.Severity }),
	{
		key: "risk", label: "Risk",
		get: func(e rams.RiskEntry) string { return strconv.Itoa(e.Risk) },
	},
	text("controls", "Control measures", func(e *rams.RiskEntry) *string { return &e.Controls }),
	residual("residual_likelihood", "Residual likelihood", func(e *rams.RiskEntry) **int { return &e.ResidualLikelihood }),
	residual("residual_severity", "Residual severity", func(e *rams.RiskEntry) **int { return &e.ResidualSeverity }),
	{
		key: "residual_risk", label: "Residual risk",
		get: func(e rams.RiskEntry) string { return optInt(e.ResidualRisk) },
	},
}

func parseScore(key, s string) (int, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", key, s)
	}
	return rams.ClampScore(f), nil
}

func score(key, label string, field func(*rams.RiskEntry) *int) column[rams.RiskEntry] {
	return column[rams.RiskEntry]{
		key: key, label: label,
		get: func(e rams.RiskEntry) string { return strconv.Itoa(*field(&e)) },
		set: func(e *rams.RiskEntry, s string) error {
			n, err := parseScore(key, s)
			if err != nil {
				return err
			}
			*field(e) = n
			return nil
		},
	}
}

// residual scores accept an empty value, which clears them.
func residual(key, label string, field func(*rams.RiskEntry) **int) column[rams.RiskEntry] {
	return column[rams.RiskEntry]{
		key: key, label: label,
		get: func(e rams.RiskEntry) string { return optInt(*field(&e)) },
		set: func(e *rams.RiskEntry, s string) error {
			if strings.TrimSpace(s) == "" || strings.TrimSpace(s) == "-" {
				*field(e) = nil
				return nil
			}
			n, err := parseScore(key, s)
			if err != nil {
				return err
			}
			*field(e) = &n
			return nil
		},
	}
}

func optInt(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}
