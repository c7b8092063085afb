package rams

// FieldSpec declares one leaf of the document shape as the model must return
// it. Paths use "[]" for list elements.
type FieldSpec struct {
	Path     string
	Type     string
	Optional bool
	Note     string
}

// Schema lists every field of Document in output order.
var Schema = []FieldSpec{
	{Path: "project.title", Type: "string", Note: "short descriptive title of the works"},
	{Path: "project.location", Type: "string"},
	{Path: "project.client", Type: "string"},
	{Path: "project.prepared_by", Type: "string"},
	{Path: "project.date", Type: "string", Note: "ISO date YYYY-MM-DD"},
	{Path: "project.review_date", Type: "string", Optional: true, Note: "ISO date YYYY-MM-DD"},
	{Path: "project.scope", Type: "string", Note: "scope of works, 2-4 sentences"},
	{Path: "activities", Type: "array<string>", Note: "ordered task descriptors"},
	{Path: "responsibilities[].role", Type: "string"},
	{Path: "responsibilities[].description", Type: "string"},
	{Path: "materials_equipment.pipes", Type: "array<string>", Optional: true},
	{Path: "materials_equipment.fittings", Type: "array<string>", Optional: true},
	{Path: "materials_equipment.tools", Type: "array<string>", Optional: true},
	{Path: "materials_equipment.ppe", Type: "array<string>", Optional: true},
	{Path: "ppe[].item", Type: "string"},
	{Path: "ppe[].standard", Type: "string", Optional: true, Note: "e.g. EN 388"},
	{Path: "ppe[].use", Type: "string", Note: "when or for which task it is worn"},
	{Path: "health_safety.requirements", Type: "array<string>"},
	{Path: "health_safety.welfare", Type: "string"},
	{Path: "health_safety.first_aid", Type: "string"},
	{Path: "health_safety.permits", Type: "array<string>", Optional: true, Note: "permits to work required"},
	{Path: "procedure[].title", Type: "string"},
	{Path: "procedure[].description", Type: "string"},
	{Path: "hazard_register[].hazard", Type: "string"},
	{Path: "hazard_register[].cause", Type: "string"},
	{Path: "hazard_register[].effect", Type: "string"},
	{Path: "hazard_register[].control", Type: "string"},
	{Path: "emergency_plan.assembly_point", Type: "string"},
	{Path: "emergency_plan.nearest_hospital", Type: "string"},
	{Path: "emergency_plan.procedures", Type: "array<string>"},
	{Path: "emergency_plan.contacts[].name", Type: "string"},
	{Path: "emergency_plan.contacts[].role", Type: "string"},
	{Path: "emergency_plan.contacts[].phone", Type: "string"},
	{Path: "risk_assessment[].activity", Type: "string"},
	{Path: "risk_assessment[].hazard", Type: "string"},
	{Path: "risk_assessment[].who", Type: "array<string>", Note: "groups of people at risk"},
	{Path: "risk_assessment[].likelihood", Type: "integer", Note: "1-5, before controls"},
	{Path: "risk_assessment[].severity", Type: "integer", Note: "1-5, before controls"},
	{Path: "risk_assessment[].risk", Type: "integer", Optional: true, Note: "likelihood x severity"},
	{Path: "risk_assessment[].controls", Type: "string", Note: "control measures"},
	{Path: "risk_assessment[].residual_likelihood", Type: "integer", Optional: true, Note: "1-5, after controls"},
	{Path: "risk_assessment[].residual_severity", Type: "integer", Optional: true, Note: "1-5, after controls"},
	{Path: "risk_assessment[].residual_risk", Type: "integer", Optional: true, Note: "residual_likelihood x residual_severity"},
}

// MinItems returns the minimum number of entries requested per list. The
// strict variant asks for fuller documents.
func MinItems(strict bool) map[string]int {
	if strict {
		return map[string]int{
			"activities":                 5,
			"responsibilities":           3,
			"ppe":                        4,
			"health_safety.requirements": 3,
			"procedure":                  5,
			"hazard_register":            4,
			"emergency_plan.procedures":  3,
			"emergency_plan.contacts":    2,
			"risk_assessment":            5,
		}
	}
	return map[string]int{
		"activities":       1,
		"responsibilities": 1,
		"ppe":              1,
		"procedure":        1,
		"hazard_register":  1,
		"risk_assessment":  1,
	}
}
