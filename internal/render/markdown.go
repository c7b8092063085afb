package render

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/rams-cli/internal/rams"
)

// Markdown renders doc as a markdown document for terminal and HTTP previews.
// It follows the same section order as the PDF.
func Markdown(doc rams.Document) string {
	var b strings.Builder
	p := doc.Project
	fmt.Fprintf(&b, "# %s\n\n", orDash(p.Title))
	b.WriteString("| | |\n|---|---|\n")
	for _, kv := range [][2]string{
		{"Client", p.Client}, {"Location", p.Location}, {"Prepared by", p.PreparedBy},
		{"Date", p.Date}, {"Review date", p.ReviewDate},
	} {
		fmt.Fprintf(&b, "| **%s** | %s |\n", kv[0], cell(kv[1]))
	}
	fmt.Fprintf(&b, "\n## Scope of works\n\n%s\n", orDash(p.Scope))

	b.WriteString("\n## Activities\n\n")
	numbered(&b, doc.Activities)

	b.WriteString("\n## Responsibilities\n\n")
	for _, r := range doc.Responsibilities {
		fmt.Fprintf(&b, "- **%s**: %s\n", r.Role, r.Description)
	}

	b.WriteString("\n## Materials and equipment\n\n")
	me := doc.MaterialsEquipment
	for _, g := range []struct {
		name  string
		items []string
	}{{"Pipes", me.Pipes}, {"Fittings", me.Fittings}, {"Tools", me.Tools}, {"PPE", me.PPE}} {
		if len(g.items) > 0 {
			fmt.Fprintf(&b, "- **%s**: %s\n", g.name, strings.Join(g.items, ", "))
		}
	}

	b.WriteString("\n## Personal protective equipment\n\n| Item | Standard | Use |\n|---|---|---|\n")
	for _, it := range doc.PPE {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", cell(it.Item), cell(it.Standard), cell(it.Use))
	}

	hs := doc.HealthSafety
	b.WriteString("\n## Health and safety\n\n")
	bullets(&b, hs.Requirements)
	fmt.Fprintf(&b, "\n**Welfare**: %s\n\n**First aid**: %s\n", orDash(hs.Welfare), orDash(hs.FirstAid))
	if len(hs.Permits) > 0 {
		fmt.Fprintf(&b, "\n**Permits to work**: %s\n", strings.Join(hs.Permits, ", "))
	}

	b.WriteString("\n## Method statement\n\n")
	for i, s := range doc.Procedure {
		fmt.Fprintf(&b, "%d. **%s**: %s\n", i+1, s.Title, s.Description)
	}

	b.WriteString("\n## Hazard register\n\n| Hazard | Cause | Effect | Control |\n|---|---|---|---|\n")
	for _, h := range doc.HazardRegister {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", cell(h.Hazard), cell(h.Cause), cell(h.Effect), cell(h.Control))
	}

	ep := doc.EmergencyPlan
	fmt.Fprintf(&b, "\n## Emergency plan\n\n- **Assembly point**: %s\n- **Nearest hospital**: %s\n\n", orDash(ep.AssemblyPoint), orDash(ep.NearestHospital))
	numbered(&b, ep.Procedures)
	if len(ep.Contacts) > 0 {
		b.WriteString("\n| Name | Role | Phone |\n|---|---|---|\n")
		for _, c := range ep.Contacts {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", cell(c.Name), cell(c.Role), cell(c.Phone))
		}
	}

	b.WriteString("\n## Risk assessment\n\n| Activity | Hazard | Who | L | S | R | Controls | RL | RS | RR |\n|---|---|---|---|---|---|---|---|---|---|\n")
	for _, e := range doc.RiskAssessment {
		e = rams.ScoreEntry(e)
		fmt.Fprintf(&b, "| %s | %s | %s | %d | %d | %d %s | %s | %s | %s | %s |\n",
			cell(e.Activity), cell(e.Hazard), cell(strings.Join(e.Who, ", ")),
			e.Likelihood, e.Severity, e.Risk, rams.BandFor(e.Risk).Label, cell(e.Controls),
			optInt(e.ResidualLikelihood), optInt(e.ResidualSeverity), optInt(e.ResidualRisk))
	}

	b.WriteString("\n### Risk rating legend\n\n")
	for _, band := range Legend() {
		fmt.Fprintf(&b, "- **%s (%d-%d)**: %s\n", band.Label, band.Min, band.Max, band.Action)
	}
	return b.String()
}

func numbered(b *strings.Builder, items []string) {
	if len(items) == 0 {
		b.WriteString("_None recorded._\n")
		return
	}
	for i, it := range items {
		fmt.Fprintf(b, "%d. %s\n", i+1, it)
	}
}

func bullets(b *strings.Builder, items []string) {
	if len(items) == 0 {
		b.WriteString("_None recorded._\n")
		return
	}
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
}

func cell(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
