// Package editor exposes every Document section as a named step with
// get/set access. Steps take a Document and return the edited copy; a
// Session owns the single Document being edited.
package editor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/KaramelBytes/rams-cli/internal/rams"
)

var (
	ErrUnknownField = errors.New("unknown field")
	ErrReadOnly     = errors.New("field is read-only")
	ErrNotList      = errors.New("step has no rows")
	ErrIndex        = errors.New("row index out of range")
)

type StepID string

const (
	StepProject          StepID = "project"
	StepActivities       StepID = "activities"
	StepResponsibilities StepID = "responsibilities"
	StepMaterials        StepID = "materials"
	StepPPE              StepID = "ppe"
	StepHealthSafety     StepID = "health_safety"
	StepProcedure        StepID = "procedure"
	StepHazards          StepID = "hazards"
	StepEmergency        StepID = "emergency"
	StepRisk             StepID = "risk_assessment"
	StepPreview          StepID = "preview"
)

// Field is one editable value as shown to the user. Row is the record index
// for list sections and -1 otherwise.
type Field struct {
	Key      string
	Label    string
	Value    string
	Row      int
	ReadOnly bool
}

// Step is one page of the editor. Add and Remove are nil for steps without
// rows.
type Step struct {
	ID     StepID
	Title  string
	Fields func(doc rams.Document) []Field
	Set    func(doc rams.Document, key, value string) (rams.Document, error)
	Add    func(doc rams.Document) rams.Document
	Remove func(doc rams.Document, index int) (rams.Document, error)
}

// HasRows reports whether the step supports Add and Remove.
func (s Step) HasRows() bool { return s.Add != nil && s.Remove != nil }

// Steps returns the editor steps in display order.
func Steps() []Step {
	return []Step{
		objectStep(StepProject, "Project information", projectCols, func(d *rams.Document) *rams.Project { return &d.Project }),
		stringListStep(StepActivities, "Activities", func(d *rams.Document) *[]string { return &d.Activities }),
		recordStep(StepResponsibilities, "Responsibilities", responsibilityCols,
			func(d *rams.Document) *[]rams.Responsibility { return &d.Responsibilities }, nil),
		objectStep(StepMaterials, "Materials and equipment", materialCols,
			func(d *rams.Document) *rams.MaterialsEquipment { return &d.MaterialsEquipment }),
		recordStep(StepPPE, "Personal protective equipment", ppeCols, func(d *rams.Document) *[]rams.PPEItem { return &d.PPE }, nil),
		objectStep(StepHealthSafety, "Health and safety", healthSafetyCols,
			func(d *rams.Document) *rams.HealthSafety { return &d.HealthSafety }),
		recordStep(StepProcedure, "Method statement", procedureCols,
			func(d *rams.Document) *[]rams.ProcedureStep { return &d.Procedure }, nil),
		recordStep(StepHazards, "Hazard register", hazardCols, func(d *rams.Document) *[]rams.Hazard { return &d.HazardRegister }, nil),
		emergencyStep(),
		recordStep(StepRisk, "Risk assessment", riskCols,
			func(d *rams.Document) *[]rams.RiskEntry { return &d.RiskAssessment }, rams.ScoreEntry),
		{
			ID:     StepPreview,
			Title:  "Preview",
			Fields: func(rams.Document) []Field { return nil },
			Set: func(doc rams.Document, key, _ string) (rams.Document, error) {
				return doc, fmt.Errorf("%s: %w", key, ErrReadOnly)
			},
		},
	}
}

// column maps one editable text value onto a field of T. A nil set marks
// the column read-only.
type column[T any] struct {
	key   string
	label string
	get   func(T) string
	set   func(*T, string) error
}

func text[T any](key, label string, field func(*T) *string) column[T] {
	return column[T]{
		key: key, label: label,
		get: func(v T) string { return *field(&v) },
		set: func(v *T, s string) error { *field(v) = s; return nil },
	}
}

// items edits a string list as one "; " separated value.
func items[T any](key, label string, field func(*T) *[]string) column[T] {
	return column[T]{
		key: key, label: label,
		get: func(v T) string { return strings.Join(*field(&v), "; ") },
		set: func(v *T, s string) error { *field(v) = SplitItems(s, ";"); return nil },
	}
}

// SplitItems splits s on sep, trimming and dropping empty items. The result
// is never nil.
func SplitItems(s, sep string) []string {
	out := []string{}
	for _, p := range strings.Split(s, sep) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func fieldsOf[T any](v T, cols []column[T], prefix string, row int) []Field {
	out := make([]Field, 0, len(cols))
	for _, c := range cols {
		out = append(out, Field{Key: prefix + c.key, Label: c.label, Value: c.get(v), Row: row, ReadOnly: c.set == nil})
	}
	return out
}

func setOn[T any](v *T, cols []column[T], key, value string) error {
	for _, c := range cols {
		if c.key != key {
			continue
		}
		if c.set == nil {
			return fmt.Errorf("%s: %w", key, ErrReadOnly)
		}
		return c.set(v, value)
	}
	return fmt.Errorf("%s: %w", key, ErrUnknownField)
}

func objectStep[T any](id StepID, title string, cols []column[T], sec func(*rams.Document) *T) Step {
	return Step{
		ID:    id,
		Title: title,
		Fields: func(doc rams.Document) []Field {
			return fieldsOf(*sec(&doc), cols, "", -1)
		},
		Set: func(doc rams.Document, key, value string) (rams.Document, error) {
			out := doc.Clone()
			if err := setOn(sec(&out), cols, key, value); err != nil {
				return doc, err
			}
			return out, nil
		},
	}
}

// rowKey splits "3.hazard" into 3 and "hazard".
func rowKey(key string) (int, string, error) {
	idx, col, _ := strings.Cut(key, ".")
	i, err := strconv.Atoi(idx)
	if err != nil {
		return 0, "", fmt.Errorf("%s: %w", key, ErrUnknownField)
	}
	return i, col, nil
}

func recordStep[T any](id StepID, title string, cols []column[T], sec func(*rams.Document) *[]T, after func(T) T) Step {
	if after == nil {
		after = func(v T) T { return v }
	}
	return Step{
		ID:    id,
		Title: title,
		Fields: func(doc rams.Document) []Field {
			var out []Field
			for i, v := range *sec(&doc) {
				out = append(out, fieldsOf(v, cols, strconv.Itoa(i)+".", i)...)
			}
			return out
		},
		Set: func(doc rams.Document, key, value string) (rams.Document, error) {
			i, col, err := rowKey(key)
			if err != nil {
				return doc, err
			}
			out := doc.Clone()
			rows := *sec(&out)
			if i < 0 || i >= len(rows) {
				return doc, fmt.Errorf("%s: %w", key, ErrIndex)
			}
			if err := setOn(&rows[i], cols, col, value); err != nil {
				return doc, err
			}
			rows[i] = after(rows[i])
			return out, nil
		},
		Add: func(doc rams.Document) rams.Document {
			out := doc.Clone()
			var zero T
			*sec(&out) = append(*sec(&out), after(zero))
			return out
		},
		Remove: func(doc rams.Document, index int) (rams.Document, error) {
			out := doc.Clone()
			rows := *sec(&out)
			if index < 0 || index >= len(rows) {
				return doc, fmt.Errorf("remove %d: %w", index, ErrIndex)
			}
			*sec(&out) = append(rows[:index], rows[index+1:]...)
			return out, nil
		},
	}
}

func stringListStep(id StepID, title string, sec func(*rams.Document) *[]string) Step {
	cols := []column[string]{{
		key: "text", label: "Item",
		get: func(s string) string { return s },
		set: func(s *string, v string) error { *s = strings.TrimSpace(v); return nil },
	}}
	st := recordStep(id, title, cols, sec, nil)
	fields, set := st.Fields, st.Set
	st.Fields = func(doc rams.Document) []Field {
		out := fields(doc)
		for i := range out {
			out[i].Key = strconv.Itoa(out[i].Row)
			out[i].Label = strconv.Itoa(out[i].Row + 1)
		}
		return out
	}
	// Rows are keyed by index alone.
	st.Set = func(doc rams.Document, key, value string) (rams.Document, error) {
		return set(doc, key+".text", value)
	}
	return st
}

// emergencyStep edits the plan's scalar fields plus its contact rows, keyed
// "contacts.N.col".
func emergencyStep() Step {
	plan := objectStep(StepEmergency, "Emergency plan", emergencyCols,
		func(d *rams.Document) *rams.EmergencyPlan { return &d.EmergencyPlan })
	contacts := recordStep(StepEmergency, "Contacts", contactCols,
		func(d *rams.Document) *[]rams.Contact { return &d.EmergencyPlan.Contacts }, nil)
	const prefix = "contacts."
	return Step{
		ID:    StepEmergency,
		Title: plan.Title,
		Fields: func(doc rams.Document) []Field {
			out := plan.Fields(doc)
			for _, f := range contacts.Fields(doc) {
				f.Key = prefix + f.Key
				out = append(out, f)
			}
			return out
		},
		Set: func(doc rams.Document, key, value string) (rams.Document, error) {
			if rest, ok := strings.CutPrefix(key, prefix); ok {
				return contacts.Set(doc, rest, value)
			}
			return plan.Set(doc, key, value)
		},
		Add:    contacts.Add,
		Remove: contacts.Remove,
	}
}

var projectCols = []column[rams.Project]{
	text("title", "Title", func(p *rams.Project) *string { return &p.Title }),
	text("client", "Client", func(p *rams.Project) *string { return &p.Client }),
	text("location", "Location", func(p *rams.Project) *string { return &p.Location }),
	text("prepared_by", "Prepared by", func(p *rams.Project) *string { return &p.PreparedBy }),
	date("date", "Date", func(p *rams.Project) *string { return &p.Date }),
	date("review_date", "Review date", func(p *rams.Project) *string { return &p.ReviewDate }),
	text("scope", "Scope of works", func(p *rams.Project) *string { return &p.Scope }),
}

func date(key, label string, field func(*rams.Project) *string) column[rams.Project] {
	c := text(key, label, field)
	c.set = func(p *rams.Project, s string) error {
		s = strings.TrimSpace(s)
		if s != "" && !rams.ValidDate(s) {
			return fmt.Errorf("%s: %q is not a YYYY-MM-DD date", key, s)
		}
		*field(p) = s
		return nil
	}
	return c
}

var responsibilityCols = []column[rams.Responsibility]{
	text("role", "Role", func(r *rams.Responsibility) *string { return &r.Role }),
	text("description", "Description", func(r *rams.Responsibility) *string { return &r.Description }),
}

var materialCols = []column[rams.MaterialsEquipment]{
	items("pipes", "Pipes", func(m *rams.MaterialsEquipment) *[]string { return &m.Pipes }),
	items("fittings", "Fittings", func(m *rams.MaterialsEquipment) *[]string { return &m.Fittings }),
	items("tools", "Tools", func(m *rams.MaterialsEquipment) *[]string { return &m.Tools }),
	items("ppe", "PPE", func(m *rams.MaterialsEquipment) *[]string { return &m.PPE }),
}

var ppeCols = []column[rams.PPEItem]{
	text("item", "Item", func(p *rams.PPEItem) *string { return &p.Item }),
	text("standard", "Standard", func(p *rams.PPEItem) *string { return &p.Standard }),
	text("use", "Use", func(p *rams.PPEItem) *string { return &p.Use }),
}

var healthSafetyCols = []column[rams.HealthSafety]{
	items("requirements", "Requirements", func(h *rams.HealthSafety) *[]string { return &h.Requirements }),
	text("welfare", "Welfare", func(h *rams.HealthSafety) *string { return &h.Welfare }),
	text("first_aid", "First aid", func(h *rams.HealthSafety) *string { return &h.FirstAid }),
	items("permits", "Permits", func(h *rams.HealthSafety) *[]string { return &h.Permits }),
}

var procedureCols = []column[rams.ProcedureStep]{
	text("title", "Title", func(p *rams.ProcedureStep) *string { return &p.Title }),
	text("description", "Description", func(p *rams.ProcedureStep) *string { return &p.Description }),
}

var hazardCols = []column[rams.Hazard]{
	text("hazard", "Hazard", func(h *rams.Hazard) *string { return &h.Hazard }),
	text("cause", "Cause", func(h *rams.Hazard) *string { return &h.Cause }),
	text("effect", "Effect", func(h *rams.Hazard) *string { return &h.Effect }),
	text("control", "Control", func(h *rams.Hazard) *string { return &h.Control }),
}

var emergencyCols = []column[rams.EmergencyPlan]{
	text("assembly_point", "Assembly point", func(e *rams.EmergencyPlan) *string { return &e.AssemblyPoint }),
	text("nearest_hospital", "Nearest hospital", func(e *rams.EmergencyPlan) *string { return &e.NearestHospital }),
	items("procedures", "Procedures", func(e *rams.EmergencyPlan) *[]string { return &e.Procedures }),
}

var contactCols = []column[rams.Contact]{
	text("name", "Name", func(c *rams.Contact) *string { return &c.Name }),
	text("role", "Role", func(c *rams.Contact) *string { return &c.Role }),
	text("phone", "Phone", func(c *rams.Contact) *string { return &c.Phone }),
}
