package rams

import "time"

// DateLayout is the only accepted date format in a Document.
const DateLayout = "2006-01-02"

// TemplateStore hands out the default document used as merge base and as the
// fallback when generation fails.
type TemplateStore struct {
	now func() time.Time
}

// NewTemplateStore returns a store whose dates are taken from now. A nil now
// uses time.Now.
func NewTemplateStore(now func() time.Time) *TemplateStore {
	if now == nil {
		now = time.Now
	}
	return &TemplateStore{now: now}
}

// Base returns a fresh copy of the default document. Callers own the result.
func (s *TemplateStore) Base() Document {
	today := s.now()
	d := defaultDocument.Clone()
	d.Project.Date = today.Format(DateLayout)
	d.Project.ReviewDate = today.AddDate(1, 0, 0).Format(DateLayout)
	return d
}

// Now is the store's clock, shared with the normalizer's date repair.
func (s *TemplateStore) Now() time.Time { return s.now() }

func intp(v int) *int { return &v }

var defaultDocument = Document{
	Project: Project{
		Title:      "Pipework Installation",
		Location:   "Site address to be confirmed",
		Client:     "Client to be confirmed",
		PreparedBy: "Site Supervisor",
		Scope: "Installation, testing and commissioning of pipework and associated fittings " +
			"in accordance with the approved drawings and manufacturer instructions.",
	},
	Activities: []string{
		"Site setup and segregation of the work area",
		"Delivery, storage and handling of materials",
		"Measuring, cutting and jointing of pipework",
		"Pressure testing and commissioning",
		"Clearing the work area and waste removal",
	},
	Responsibilities: []Responsibility{
		{Role: "Project Manager", Description: "Overall responsibility for planning, resourcing and compliance of the works."},
		{Role: "Site Supervisor", Description: "Briefs operatives on this RAMS, monitors controls and stops work where unsafe."},
		{Role: "Operatives", Description: "Follow the method statement, wear the specified PPE and report hazards."},
	},
	MaterialsEquipment: MaterialsEquipment{
		Pipes:    []string{"Copper pipe", "MDPE pipe"},
		Fittings: []string{"Compression fittings", "Press-fit fittings"},
		Tools:    []string{"Pipe cutter", "Press tool", "Pressure test kit"},
		PPE:      []string{"Safety boots", "Gloves", "Eye protection", "Hi-vis vest"},
	},
	PPE: []PPEItem{
		{Item: "Safety boots", Standard: "EN ISO 20345", Use: "At all times on site"},
		{Item: "Gloves", Standard: "EN 388", Use: "Handling and cutting pipe"},
		{Item: "Eye protection", Standard: "EN 166", Use: "Cutting, drilling and pressure testing"},
		{Item: "Hi-vis vest", Standard: "EN ISO 20471", Use: "Outdoor and vehicle movement areas"},
	},
	HealthSafety: HealthSafety{
		Requirements: []string{
			"All operatives inducted and briefed on this RAMS before starting",
			"Work area segregated from the public and other trades",
			"Tools inspected before use and PAT tested where applicable",
		},
		Welfare:  "Toilets, drinking water and a drying room available on site.",
		FirstAid: "Trained first aider and stocked first aid kit available during working hours.",
		Permits:  []string{},
	},
	Procedure: []ProcedureStep{
		{Title: "Preparation", Description: "Confirm drawings, isolate services and segregate the work area."},
		{Title: "Installation", Description: "Measure, cut and joint pipework to the approved layout, supporting at specified centres."},
		{Title: "Testing", Description: "Pressure test the installation and record results."},
		{Title: "Completion", Description: "Reinstate the area, remove waste and hand over test records."},
	},
	HazardRegister: []Hazard{
		{Hazard: "Manual handling", Cause: "Lifting lengths of pipe and materials", Effect: "Musculoskeletal injury", Control: "Team lifts, mechanical aids, manual handling training"},
		{Hazard: "Sharp edges", Cause: "Cut pipe ends and tools", Effect: "Cuts and lacerations", Control: "Deburr pipe ends, wear cut resistant gloves"},
		{Hazard: "Slips and trips", Cause: "Materials and offcuts on walkways", Effect: "Falls and bruising", Control: "Good housekeeping, clear walkways"},
	},
	EmergencyPlan: EmergencyPlan{
		AssemblyPoint:   "Main site entrance",
		NearestHospital: "To be confirmed at site induction",
		Procedures: []string{
			"Raise the alarm and stop work",
			"Evacuate to the assembly point",
			"Call emergency services and inform the site supervisor",
		},
		Contacts: []Contact{
			{Name: "Emergency Services", Role: "Fire / Ambulance / Police", Phone: "999"},
		},
	},
	RiskAssessment: []RiskEntry{
		{
			Activity: "Handling pipe and materials", Hazard: "Manual handling injury",
			Who: []string{"Operatives"}, Likelihood: 3, Severity: 3, Risk: 9,
			Controls:           "Team lifts, mechanical aids, keep loads close to the body",
			ResidualLikelihood: intp(2), ResidualSeverity: intp(2), ResidualRisk: intp(4),
		},
		{
			Activity: "Cutting pipe", Hazard: "Cuts from sharp edges and tools",
			Who: []string{"Operatives"}, Likelihood: 3, Severity: 2, Risk: 6,
			Controls:           "Deburr ends, cut resistant gloves, tools in good condition",
			ResidualLikelihood: intp(1), ResidualSeverity: intp(2), ResidualRisk: intp(2),
		},
		{
			Activity: "Working in occupied areas", Hazard: "Slips, trips and falls",
			Who: []string{"Operatives", "Public", "Other trades"}, Likelihood: 3, Severity: 3, Risk: 9,
			Controls:           "Segregate the area, keep walkways clear, daily housekeeping",
			ResidualLikelihood: intp(1), ResidualSeverity: intp(3), ResidualRisk: intp(3),
		},
	},
}
