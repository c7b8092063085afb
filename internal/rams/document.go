package rams

// Document is a Risk Assessment and Method Statement. Every section is always
// present once a document has been normalized; nested optional values are
// the only fields a consumer needs to nil-check.
type Document struct {
	Project            Project            `json:"project"`
	Activities         []string           `json:"activities"`
	Responsibilities   []Responsibility   `json:"responsibilities"`
	MaterialsEquipment MaterialsEquipment `json:"materials_equipment"`
	PPE                []PPEItem          `json:"ppe"`
	HealthSafety       HealthSafety       `json:"health_safety"`
	Procedure          []ProcedureStep    `json:"procedure"`
	HazardRegister     []Hazard           `json:"hazard_register"`
	EmergencyPlan      EmergencyPlan      `json:"emergency_plan"`
	RiskAssessment     []RiskEntry        `json:"risk_assessment"`
}

type Project struct {
	Title      string `json:"title"`
	Location   string `json:"location"`
	Client     string `json:"client"`
	PreparedBy string `json:"prepared_by"`
	Date       string `json:"date"`
	ReviewDate string `json:"review_date"`
	Scope      string `json:"scope"`
}

type Responsibility struct {
	Role        string `json:"role"`
	Description string `json:"description"`
}

// MaterialsEquipment groups the consumables and kit required on site.
type MaterialsEquipment struct {
	Pipes    []string `json:"pipes"`
	Fittings []string `json:"fittings"`
	Tools    []string `json:"tools"`
	PPE      []string `json:"ppe"`
}

// PPEItem is one line of the detailed PPE schedule.
type PPEItem struct {
	Item     string `json:"item"`
	Standard string `json:"standard"`
	Use      string `json:"use"`
}

type HealthSafety struct {
	Requirements []string `json:"requirements"`
	Welfare      string   `json:"welfare"`
	FirstAid     string   `json:"first_aid"`
	Permits      []string `json:"permits"`
}

type ProcedureStep struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Hazard struct {
	Hazard  string `json:"hazard"`
	Cause   string `json:"cause"`
	Effect  string `json:"effect"`
	Control string `json:"control"`
}

type EmergencyPlan struct {
	AssemblyPoint   string    `json:"assembly_point"`
	NearestHospital string    `json:"nearest_hospital"`
	Procedures      []string  `json:"procedures"`
	Contacts        []Contact `json:"contacts"`
}

type Contact struct {
	Name  string `json:"name"`
	Role  string `json:"role"`
	Phone string `json:"phone"`
}

// RiskEntry is one row of the risk assessment. Risk and ResidualRisk are
// derived values and are always recomputed locally by ScoreEntry.
type RiskEntry struct {
	Activity           string   `json:"activity"`
	Hazard             string   `json:"hazard"`
	Who                []string `json:"who"`
	Likelihood         int      `json:"likelihood"`
	Severity           int      `json:"severity"`
	Risk               int      `json:"risk"`
	Controls           string   `json:"controls"`
	ResidualLikelihood *int     `json:"residual_likelihood,omitempty"`
	ResidualSeverity   *int     `json:"residual_severity,omitempty"`
	ResidualRisk       *int     `json:"residual_risk,omitempty"`
}

// Clone returns a deep copy that shares no slices or pointers with d.
func (d Document) Clone() Document {
	out := d
	out.Activities = cloneStrings(d.Activities)
	out.Responsibilities = cloneSlice(d.Responsibilities)
	out.MaterialsEquipment = MaterialsEquipment{
		Pipes:    cloneStrings(d.MaterialsEquipment.Pipes),
		Fittings: cloneStrings(d.MaterialsEquipment.Fittings),
		Tools:    cloneStrings(d.MaterialsEquipment.Tools),
		PPE:      cloneStrings(d.MaterialsEquipment.PPE),
	}
	out.PPE = cloneSlice(d.PPE)
	out.HealthSafety.Requirements = cloneStrings(d.HealthSafety.Requirements)
	out.HealthSafety.Permits = cloneStrings(d.HealthSafety.Permits)
	out.Procedure = cloneSlice(d.Procedure)
	out.HazardRegister = cloneSlice(d.HazardRegister)
	out.EmergencyPlan.Procedures = cloneStrings(d.EmergencyPlan.Procedures)
	out.EmergencyPlan.Contacts = cloneSlice(d.EmergencyPlan.Contacts)
	if d.RiskAssessment != nil {
		out.RiskAssessment = make([]RiskEntry, len(d.RiskAssessment))
		for i, e := range d.RiskAssessment {
			out.RiskAssessment[i] = e.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the entry.
func (e RiskEntry) Clone() RiskEntry {
	out := e
	out.Who = cloneStrings(e.Who)
	out.ResidualLikelihood = cloneInt(e.ResidualLikelihood)
	out.ResidualSeverity = cloneInt(e.ResidualSeverity)
	out.ResidualRisk = cloneInt(e.ResidualRisk)
	return out
}

func cloneStrings(in []string) []string { return cloneSlice(in) }

// cloneSlice copies in, preserving the difference between nil and empty.
func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	return append(make([]T, 0, len(in)), in...)
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// ensureCollections replaces nil collections with empty ones so rendered
// JSON never carries null for a list.
func (d *Document) ensureCollections() {
	if d.Activities == nil {
		d.Activities = []string{}
	}
	if d.Responsibilities == nil {
		d.Responsibilities = []Responsibility{}
	}
	m := &d.MaterialsEquipment
	if m.Pipes == nil {
		m.Pipes = []string{}
	}
	if m.Fittings == nil {
		m.Fittings = []string{}
	}
	if m.Tools == nil {
		m.Tools = []string{}
	}
	if m.PPE == nil {
		m.PPE = []string{}
	}
	if d.PPE == nil {
		d.PPE = []PPEItem{}
	}
	if d.HealthSafety.Requirements == nil {
		d.HealthSafety.Requirements = []string{}
	}
	if d.HealthSafety.Permits == nil {
		d.HealthSafety.Permits = []string{}
	}
	if d.Procedure == nil {
		d.Procedure = []ProcedureStep{}
	}
	if d.HazardRegister == nil {
		d.HazardRegister = []Hazard{}
	}
	if d.EmergencyPlan.Procedures == nil {
		d.EmergencyPlan.Procedures = []string{}
	}
	if d.EmergencyPlan.Contacts == nil {
		d.EmergencyPlan.Contacts = []Contact{}
	}
	if d.RiskAssessment == nil {
		d.RiskAssessment = []RiskEntry{}
	}
	for i := range d.RiskAssessment {
		if d.RiskAssessment[i].Who == nil {
			d.RiskAssessment[i].Who = []string{}
		}
	}
}
