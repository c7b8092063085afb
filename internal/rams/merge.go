package rams

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ListPolicy decides how a list present in a patch combines with the base list.
type ListPolicy string

const (
	// ListReplace makes the patch list win outright.
	ListReplace ListPolicy = "replace"
	// ListUnion keeps base entries, overwrites entries whose identity matches
	// a patch entry, and appends the rest in patch order.
	ListUnion ListPolicy = "union"
)

// ParseListPolicy accepts "replace", "union" or "" (replace).
func ParseListPolicy(s string) (ListPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ListReplace):
		return ListReplace, nil
	case string(ListUnion):
		return ListUnion, nil
	default:
		return "", fmt.Errorf("invalid list policy %q (use replace or union)", s)
	}
}

// Patch is an untrusted partial document keyed by top-level section.
type Patch map[string]json.RawMessage

// Merge applies patch onto a copy of base. Keys absent from the patch keep the
// base value, objects merge field by field, and lists and scalars from the
// patch replace the base (lists follow policy). Values that do not fit the
// declared shape are skipped and reported.
func Merge(base Document, patch Patch, policy ListPolicy) (Document, []string) {
	out := base.Clone()
	m := &merger{policy: policy}
	m.apply("", patch, documentFields(&out))
	return out, m.repairs
}

type merger struct {
	policy  ListPolicy
	repairs []string
}

func (m *merger) repair(path, format string, args ...any) {
	m.repairs = append(m.repairs, path+": "+fmt.Sprintf(format, args...))
}

// field binds one key of an object to its destination.
type field struct {
	key   string
	apply func(m *merger, path string, raw json.RawMessage)
}

func (m *merger) apply(path string, obj map[string]json.RawMessage, fields []field) {
	known := make(map[string]bool, len(fields))
	for _, f := range fields {
		known[f.key] = true
		raw, ok := obj[f.key]
		if !ok {
			continue
		}
		f.apply(m, joinPath(path, f.key), raw)
	}
	var unknown []string
	for k := range obj {
		if !known[k] {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		m.repair(joinPath(path, k), "unknown key ignored")
	}
}

// record decodes raw as an object into fields. It reports false when raw is
// not an object.
func (m *merger) record(path string, raw json.RawMessage, fields []field) bool {
	var obj map[string]json.RawMessage
	if isNull(raw) || json.Unmarshal(raw, &obj) != nil {
		return false
	}
	m.apply(path, obj, fields)
	return true
}

func documentFields(d *Document) []field {
	return []field{
		objectField("project", projectFields(&d.Project), func() { d.Project = Project{} }),
		stringListField("activities", &d.Activities),
		recordListField("responsibilities", &d.Responsibilities, responsibilityFields, func(r Responsibility) string { return r.Role }),
		objectField("materials_equipment", materialsFields(&d.MaterialsEquipment), func() { d.MaterialsEquipment = MaterialsEquipment{} }),
		recordListField("ppe", &d.PPE, ppeFields, func(p PPEItem) string { return p.Item }),
		objectField("health_safety", healthSafetyFields(&d.HealthSafety), func() { d.HealthSafety = HealthSafety{} }),
		recordListField("procedure", &d.Procedure, procedureFields, func(p ProcedureStep) string { return p.Title }),
		recordListField("hazard_register", &d.HazardRegister, hazardFields, func(h Hazard) string { return h.Hazard }),
		objectField("emergency_plan", emergencyFields(&d.EmergencyPlan), func() { d.EmergencyPlan = EmergencyPlan{} }),
		recordListField("risk_assessment", &d.RiskAssessment, riskFields, func(e RiskEntry) string { return e.Activity + "|" + e.Hazard }),
	}
}

func projectFields(p *Project) []field {
	return []field{
		stringField("title", &p.Title),
		stringField("location", &p.Location),
		stringField("client", &p.Client),
		stringField("prepared_by", &p.PreparedBy),
		stringField("date", &p.Date),
		stringField("review_date", &p.ReviewDate),
		stringField("scope", &p.Scope),
	}
}

func responsibilityFields(r *Responsibility) []field {
	return []field{
		stringField("role", &r.Role),
		stringField("description", &r.Description),
	}
}

func materialsFields(me *MaterialsEquipment) []field {
	return []field{
		stringListField("pipes", &me.Pipes),
		stringListField("fittings", &me.Fittings),
		stringListField("tools", &me.Tools),
		stringListField("ppe", &me.PPE),
	}
}

func ppeFields(p *PPEItem) []field {
	return []field{
		stringField("item", &p.Item),
		stringField("standard", &p.Standard),
		stringField("use", &p.Use),
	}
}

func healthSafetyFields(h *HealthSafety) []field {
	return []field{
		stringListField("requirements", &h.Requirements),
		stringField("welfare", &h.Welfare),
		stringField("first_aid", &h.FirstAid),
		stringListField("permits", &h.Permits),
	}
}

func procedureFields(p *ProcedureStep) []field {
	return []field{
		stringField("title", &p.Title),
		stringField("description", &p.Description),
	}
}

func hazardFields(h *Hazard) []field {
	return []field{
		stringField("hazard", &h.Hazard),
		stringField("cause", &h.Cause),
		stringField("effect", &h.Effect),
		stringField("control", &h.Control),
	}
}

func emergencyFields(e *EmergencyPlan) []field {
	return []field{
		stringField("assembly_point", &e.AssemblyPoint),
		stringField("nearest_hospital", &e.NearestHospital),
		stringListField("procedures", &e.Procedures),
		recordListField("contacts", &e.Contacts, contactFields, func(c Contact) string { return c.Name }),
	}
}

func contactFields(c *Contact) []field {
	return []field{
		stringField("name", &c.Name),
		stringField("role", &c.Role),
		stringField("phone", &c.Phone),
	}
}

// riskFields never reads "risk" or "residual_risk": derived scores are
// recomputed by ScoreEntry.
func riskFields(e *RiskEntry) []field {
	return []field{
		stringField("activity", &e.Activity),
		stringField("hazard", &e.Hazard),
		whoField(&e.Who),
		scoreField("likelihood", &e.Likelihood),
		scoreField("severity", &e.Severity),
		stringField("controls", &e.Controls),
		optionalScoreField("residual_likelihood", &e.ResidualLikelihood),
		optionalScoreField("residual_severity", &e.ResidualSeverity),
		{key: "risk", apply: func(*merger, string, json.RawMessage) {}},
		{key: "residual_risk", apply: func(*merger, string, json.RawMessage) {}},
	}
}

func objectField(key string, fields []field, reset func()) field {
	return field{key: key, apply: func(m *merger, path string, raw json.RawMessage) {
		if isNull(raw) {
			reset()
			m.repair(path, "null section cleared")
			return
		}
		if !m.record(path, raw, fields) {
			m.repair(path, "expected an object, kept template value")
		}
	}}
}

func stringField(key string, dst *string) field {
	return field{key: key, apply: func(m *merger, path string, raw json.RawMessage) {
		s, ok := decodeScalar(raw)
		if !ok {
			m.repair(path, "expected a string, kept template value")
			return
		}
		*dst = s
	}}
}

func stringListField(key string, dst *[]string) field {
	return field{key: key, apply: func(m *merger, path string, raw json.RawMessage) {
		if isNull(raw) {
			*dst = []string{}
			return
		}
		items, ok := decodeStrings(raw)
		if !ok {
			m.repair(path, "expected a list, kept template value")
			return
		}
		*dst = combine(m.policy, *dst, items, func(s string) string { return s })
	}}
}

func recordListField[T any](key string, dst *[]T, fields func(*T) []field, id func(T) string) field {
	return field{key: key, apply: func(m *merger, path string, raw json.RawMessage) {
		if isNull(raw) {
			*dst = []T{}
			return
		}
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			m.repair(path, "expected a list, kept template value")
			return
		}
		out := make([]T, 0, len(items))
		for i, item := range items {
			var v T
			p := fmt.Sprintf("%s[%d]", path, i)
			if !m.record(p, item, fields(&v)) {
				m.repair(p, "expected an object, entry dropped")
				continue
			}
			out = append(out, v)
		}
		*dst = combine(m.policy, *dst, out, id)
	}}
}

func whoField(dst *[]string) field {
	return field{key: "who", apply: func(m *merger, path string, raw json.RawMessage) {
		items, ok := decodeStrings(raw)
		if !ok {
			if !isNull(raw) {
				m.repair(path, "not a list, defaulted to empty")
			}
			*dst = []string{}
			return
		}
		*dst = items
	}}
}

func scoreField(key string, dst *int) field {
	return field{key: key, apply: func(m *merger, path string, raw json.RawMessage) {
		*dst = ClampScore(coerceNumber(decodeAny(raw)))
	}}
}

func optionalScoreField(key string, dst **int) field {
	return field{key: key, apply: func(m *merger, path string, raw json.RawMessage) {
		if isNull(raw) {
			*dst = nil
			return
		}
		v := ClampScore(coerceNumber(decodeAny(raw)))
		*dst = &v
	}}
}

// combine merges a patch list into a base list according to policy.
func combine[T any](policy ListPolicy, base, patch []T, id func(T) string) []T {
	if policy != ListUnion {
		return patch
	}
	out := make([]T, 0, len(base)+len(patch))
	out = append(out, base...)
	// Only base entries are matched, each at most once; patch entries are
	// never merged with each other and an empty key never matches.
	index := make(map[string]int, len(base))
	for i, v := range base {
		if k := identity(id(v)); k != "" {
			if _, dup := index[k]; !dup {
				index[k] = i
			}
		}
	}
	for _, v := range patch {
		k := identity(id(v))
		if i, ok := index[k]; ok && k != "" {
			out[i] = v
			delete(index, k)
			continue
		}
		out = append(out, v)
	}
	return out
}

func identity(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func decodeAny(raw json.RawMessage) any {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

// decodeScalar renders JSON strings, numbers, booleans and null as text.
func decodeScalar(raw json.RawMessage) (string, bool) {
	switch v := decodeAny(raw).(type) {
	case nil:
		return "", true
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}

// decodeStrings decodes a JSON array, keeping scalar elements as text and
// dropping nested objects and arrays.
func decodeStrings(raw json.RawMessage) ([]string, bool) {
	var items []json.RawMessage
	if isNull(raw) || json.Unmarshal(raw, &items) != nil {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if isNull(item) {
			continue
		}
		if s, ok := decodeScalar(item); ok {
			out = append(out, s)
		}
	}
	return out, true
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}
