// Package render turns a RAMS document into a paginated PDF or markdown.
package render

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/KaramelBytes/rams-cli/internal/rams"
)

// Layout selects one of the static PDF layouts.
type Layout string

const (
	LayoutCards   Layout = "cards"
	LayoutClassic Layout = "classic"
)

// ParseLayout accepts "cards", "classic" or "" (cards).
func ParseLayout(s string) (Layout, error) {
	switch Layout(strings.ToLower(strings.TrimSpace(s))) {
	case "", LayoutCards:
		return LayoutCards, nil
	case LayoutClassic:
		return LayoutClassic, nil
	default:
		return "", fmt.Errorf("unknown layout %q (use cards or classic)", s)
	}
}

const (
	margin     = 12.0
	lineHeight = 5.0
	fontFamily = "Helvetica"
)

type rgb struct{ r, g, b int }

var (
	accent    = rgb{0x1f, 0x4e, 0x79}
	lightFill = rgb{0xe8, 0xee, 0xf4}
	greyFill  = rgb{0xdd, 0xdd, 0xdd}
	bandFills = map[string]rgb{
		"Low":    {0xc6, 0xef, 0xce},
		"Medium": {0xff, 0xeb, 0x9c},
		"High":   {0xff, 0xc7, 0xce},
	}
)

// Render writes doc as a PDF to w.
func Render(w io.Writer, doc rams.Document, layout Layout) error {
	pdf := build(doc, layout)
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

// RenderBytes returns doc as PDF bytes.
func RenderBytes(doc rams.Document, layout Layout) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, doc, layout); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type renderer struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	layout Layout
	width  float64
	// repeat is redrawn as a header when a table row starts a new page.
	repeat []string
}

func build(doc rams.Document, layout Layout) *fpdf.Fpdf {
	if layout == "" {
		layout = LayoutCards
	}
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin+4)
	pdf.AliasNbPages("")
	pdf.SetTitle(doc.Project.Title, true)
	pdf.SetAuthor(doc.Project.PreparedBy, true)
	pdf.SetCreator("rams", false)

	pageW, _ := pdf.GetPageSize()
	r := &renderer{
		pdf:    pdf,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		layout: layout,
		width:  pageW - 2*margin,
	}
	title := doc.Project.Title
	pdf.SetFooterFunc(func() {
		pdf.SetY(-margin)
		pdf.SetFont(fontFamily, "I", 8)
		pdf.SetTextColor(0x66, 0x66, 0x66)
		pdf.CellFormat(r.width/2, 5, r.tr(title), "", 0, "L", false, 0, "")
		pdf.CellFormat(r.width/2, 5, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	pdf.AddPage()
	r.cover(doc.Project)
	r.list("Activities", doc.Activities, true)
	r.responsibilities(doc.Responsibilities)

	pdf.AddPage()
	r.materials(doc.MaterialsEquipment)
	r.ppe(doc.PPE)
	r.healthSafety(doc.HealthSafety)
	r.procedure(doc.Procedure)
	r.hazards(doc.HazardRegister)
	r.emergency(doc.EmergencyPlan)

	pdf.AddPage()
	r.riskTable(doc.RiskAssessment)
	r.legend()
	return pdf
}

func (r *renderer) font(style string, size float64) {
	r.pdf.SetFont(fontFamily, style, size)
	r.pdf.SetTextColor(0, 0, 0)
}

func (r *renderer) fill(c rgb) { r.pdf.SetFillColor(c.r, c.g, c.b) }

// ensure starts a new page when fewer than h millimetres remain.
func (r *renderer) ensure(h float64) bool {
	_, pageH := r.pdf.GetPageSize()
	_, _, _, bottom := r.pdf.GetMargins()
	if r.pdf.GetY()+h > pageH-bottom {
		r.pdf.AddPage()
		return true
	}
	return false
}

func (r *renderer) heading(text string) {
	r.ensure(20)
	r.pdf.Ln(3)
	if r.layout == LayoutCards {
		r.fill(accent)
		r.pdf.SetFont(fontFamily, "B", 12)
		r.pdf.SetTextColor(255, 255, 255)
		r.pdf.CellFormat(r.width, 8, " "+r.tr(text), "", 1, "L", true, 0, "")
	} else {
		r.font("B", 12)
		r.pdf.CellFormat(r.width, 7, r.tr(strings.ToUpper(text)), "B", 1, "L", false, 0, "")
	}
	r.pdf.Ln(2)
	r.font("", 10)
}

func (r *renderer) subheading(text string) {
	r.ensure(12)
	r.font("B", 10)
	r.pdf.CellFormat(r.width, 6, r.tr(text), "", 1, "L", false, 0, "")
	r.font("", 10)
}

func (r *renderer) paragraph(text string) {
	if strings.TrimSpace(text) == "" {
		text = "-"
	}
	r.pdf.MultiCell(r.width, lineHeight, r.tr(text), "", "L", false)
	r.pdf.Ln(1)
}

func (r *renderer) list(title string, items []string, numbered bool) {
	if title != "" {
		r.heading(title)
	}
	if len(items) == 0 {
		r.paragraph("None recorded.")
		return
	}
	for i, it := range items {
		bullet := "-"
		if numbered {
			bullet = strconv.Itoa(i+1) + "."
		}
		r.ensure(lineHeight)
		r.pdf.CellFormat(8, lineHeight, bullet, "", 0, "R", false, 0, "")
		r.pdf.MultiCell(r.width-8, lineHeight, r.tr(" "+it), "", "L", false)
	}
	r.pdf.Ln(1)
}

func (r *renderer) cover(p rams.Project) {
	r.font("B", 18)
	r.pdf.SetTextColor(accent.r, accent.g, accent.b)
	r.pdf.MultiCell(r.width, 9, r.tr("Risk Assessment and Method Statement"), "", "L", false)
	r.font("B", 14)
	r.pdf.MultiCell(r.width, 7, r.tr(p.Title), "", "L", false)
	r.pdf.Ln(3)

	rows := [][2]string{
		{"Client", p.Client},
		{"Location", p.Location},
		{"Prepared by", p.PreparedBy},
		{"Date", p.Date},
		{"Review date", p.ReviewDate},
	}
	for _, kv := range rows {
		r.table([]float64{40, r.width - 40}, []string{kv[0], kv[1]}, []*rgb{&lightFill, nil}, "B")
	}
	r.heading("Scope of works")
	r.paragraph(p.Scope)
}

func (r *renderer) responsibilities(items []rams.Responsibility) {
	r.heading("Responsibilities")
	recs := make([]record, len(items))
	for i, it := range items {
		recs[i] = record{title: it.Role, body: it.Description, cells: []string{it.Role, it.Description}}
	}
	r.records([]string{"Role", "Description"}, []float64{50, r.width - 50}, recs)
}

func (r *renderer) materials(m rams.MaterialsEquipment) {
	r.heading("Materials and equipment")
	for _, g := range []struct {
		name  string
		items []string
	}{{"Pipes", m.Pipes}, {"Fittings", m.Fittings}, {"Tools", m.Tools}, {"PPE", m.PPE}} {
		if len(g.items) == 0 {
			continue
		}
		r.subheading(g.name)
		r.list("", g.items, false)
	}
}

func (r *renderer) ppe(items []rams.PPEItem) {
	r.heading("Personal protective equipment")
	recs := make([]record, len(items))
	for i, it := range items {
		recs[i] = record{
			title: it.Item,
			body:  joinNonEmpty(" - ", it.Standard, it.Use),
			cells: []string{it.Item, it.Standard, it.Use},
		}
	}
	r.records([]string{"Item", "Standard", "Use"}, []float64{50, 40, r.width - 90}, recs)
}

func (r *renderer) healthSafety(h rams.HealthSafety) {
	r.heading("Health and safety")
	r.subheading("Requirements")
	r.list("", h.Requirements, false)
	r.subheading("Welfare")
	r.paragraph(h.Welfare)
	r.subheading("First aid")
	r.paragraph(h.FirstAid)
	if len(h.Permits) > 0 {
		r.subheading("Permits to work")
		r.list("", h.Permits, false)
	}
}

func (r *renderer) procedure(steps []rams.ProcedureStep) {
	r.heading("Method statement")
	recs := make([]record, len(steps))
	for i, s := range steps {
		n := strconv.Itoa(i + 1)
		recs[i] = record{title: n + ". " + s.Title, body: s.Description, cells: []string{n, s.Title, s.Description}}
	}
	r.records([]string{"#", "Step", "Description"}, []float64{10, 45, r.width - 55}, recs)
}

func (r *renderer) hazards(items []rams.Hazard) {
	r.heading("Hazard register")
	recs := make([]record, len(items))
	for i, h := range items {
		recs[i] = record{
			title: h.Hazard,
			body:  "Cause: " + h.Cause + "\nEffect: " + h.Effect + "\nControl: " + h.Control,
			cells: []string{h.Hazard, h.Cause, h.Effect, h.Control},
		}
	}
	w := r.width / 4
	r.records([]string{"Hazard", "Cause", "Effect", "Control"}, []float64{w, w, w, w}, recs)
}

func (r *renderer) emergency(e rams.EmergencyPlan) {
	r.heading("Emergency plan")
	r.table([]float64{45, r.width - 45}, []string{"Assembly point", e.AssemblyPoint}, []*rgb{&lightFill, nil}, "B")
	r.table([]float64{45, r.width - 45}, []string{"Nearest hospital", e.NearestHospital}, []*rgb{&lightFill, nil}, "B")
	r.pdf.Ln(2)
	r.subheading("Procedures")
	r.list("", e.Procedures, true)
	r.subheading("Contacts")
	recs := make([]record, len(e.Contacts))
	for i, c := range e.Contacts {
		recs[i] = record{title: c.Name, body: joinNonEmpty(" - ", c.Role, c.Phone), cells: []string{c.Name, c.Role, c.Phone}}
	}
	r.records([]string{"Name", "Role", "Phone"}, []float64{60, r.width - 100, 40}, recs)
}

// record is one entry of a list-of-records section, usable as a card or a
// table row.
type record struct {
	title string
	body  string
	cells []string
}

func (r *renderer) records(header []string, widths []float64, recs []record) {
	if len(recs) == 0 {
		r.paragraph("None recorded.")
		return
	}
	if r.layout == LayoutCards {
		for _, rec := range recs {
			r.card(rec.title, rec.body)
		}
		return
	}
	r.tableHeader(widths, header)
	r.repeat = header
	for _, rec := range recs {
		r.table(widths, rec.cells, nil, "")
	}
	r.repeat = nil
	r.pdf.Ln(2)
}

func (r *renderer) card(title, body string) {
	r.font("", 9)
	lines := len(r.pdf.SplitLines([]byte(r.tr(body)), r.width-6))
	h := 7 + float64(lines)*lineHeight + 3
	r.ensure(h)
	x, y := r.pdf.GetX(), r.pdf.GetY()
	r.fill(lightFill)
	r.pdf.SetDrawColor(accent.r, accent.g, accent.b)
	r.pdf.Rect(x, y, r.width, h, "D")
	r.pdf.Rect(x, y, r.width, 7, "FD")
	r.pdf.SetXY(x+3, y+1)
	r.font("B", 10)
	r.pdf.CellFormat(r.width-6, 5, r.tr(title), "", 1, "L", false, 0, "")
	r.pdf.SetXY(x+3, y+8)
	r.font("", 9)
	r.pdf.MultiCell(r.width-6, lineHeight, r.tr(body), "", "L", false)
	r.pdf.SetDrawColor(0, 0, 0)
	r.pdf.SetXY(x, y+h+2)
	r.font("", 10)
}

func (r *renderer) tableHeader(widths []float64, cells []string) {
	fills := make([]*rgb, len(cells))
	c := greyFill
	if r.layout == LayoutCards {
		c = lightFill
	}
	for i := range fills {
		fills[i] = &c
	}
	r.table(widths, cells, fills, "B")
}

// table draws one row of wrapped cells. When the row does not fit, it moves
// to a new page and repeats r.repeat as a header first.
func (r *renderer) table(widths []float64, cells []string, fills []*rgb, style string) {
	r.font(style, 9)
	lines := 1
	for i, c := range cells {
		if n := len(r.pdf.SplitLines([]byte(r.tr(c)), widths[i]-2)); n > lines {
			lines = n
		}
	}
	h := float64(lines)*4.5 + 2
	if r.ensure(h) && r.repeat != nil {
		header := r.repeat
		r.repeat = nil
		r.tableHeader(widths, header)
		r.repeat = header
		r.font(style, 9)
	}

	x, y := r.pdf.GetX(), r.pdf.GetY()
	for i, c := range cells {
		mode := "D"
		if i < len(fills) && fills[i] != nil {
			r.fill(*fills[i])
			mode = "FD"
		}
		r.pdf.Rect(x, y, widths[i], h, mode)
		r.pdf.SetXY(x+1, y+1)
		r.pdf.MultiCell(widths[i]-2, 4.5, r.tr(c), "", "L", false)
		x += widths[i]
	}
	r.pdf.SetXY(margin, y+h)
	r.font("", 10)
}

var riskHeader = []string{"Activity", "Hazard", "Who", "L", "S", "R", "Controls", "RL", "RS", "RR"}

func (r *renderer) riskWidths() []float64 {
	fixed := 28.0 + 28 + 22 + 4*7 + 3*8
	return []float64{28, 28, 22, 7, 7, 8, r.width - fixed, 7, 7, 8}
}

func (r *renderer) riskTable(entries []rams.RiskEntry) {
	r.heading("Risk assessment")
	if len(entries) == 0 {
		r.paragraph("No risks recorded.")
		return
	}
	widths := r.riskWidths()
	r.tableHeader(widths, riskHeader)
	r.repeat = riskHeader
	for _, e := range entries {
		e = rams.ScoreEntry(e)
		cells := []string{
			e.Activity, e.Hazard, strings.Join(e.Who, ", "),
			strconv.Itoa(e.Likelihood), strconv.Itoa(e.Severity), strconv.Itoa(e.Risk),
			e.Controls,
			optInt(e.ResidualLikelihood), optInt(e.ResidualSeverity), optInt(e.ResidualRisk),
		}
		fills := make([]*rgb, len(cells))
		fills[5] = bandFill(e.Risk)
		if e.ResidualRisk != nil {
			fills[9] = bandFill(*e.ResidualRisk)
		}
		r.table(widths, cells, fills, "")
	}
	r.repeat = nil
	r.font("I", 8)
	r.pdf.MultiCell(r.width, 4, "L = likelihood, S = severity, R = risk (L x S). RL, RS and RR are the residual values after controls.", "", "L", false)
}

func (r *renderer) legend() {
	r.heading("Risk rating legend")
	for _, b := range Legend() {
		label := fmt.Sprintf("%s (%d-%d)", b.Label, b.Min, b.Max)
		r.table([]float64{40, r.width - 40}, []string{label, b.Action}, []*rgb{bandFill(b.Min), nil}, "B")
	}
}

// Legend returns the fixed risk bands printed on every document.
func Legend() []rams.Band {
	return rams.Bands()
}

func bandFill(score int) *rgb {
	c := bandFills[rams.BandFor(score).Label]
	return &c
}

func optInt(p *int) string {
	if p == nil {
		return "-"
	}
	return strconv.Itoa(*p)
}

func joinNonEmpty(sep string, parts ...string) string {
	var out []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
