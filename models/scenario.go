package models

// ApplicationType distinguishes first applications from reapplications
type ApplicationType string

const (
	ApplicationFirstTime     ApplicationType = "first_time"
	ApplicationReapplication ApplicationType = "reapplication"
)

// Scenario names a classified situation that changes guidance and tone
type Scenario string

const (
	ScenarioReapplication    Scenario = "reapplication"
	ScenarioSponsored        Scenario = "sponsored"
	ScenarioSelfEmployed     Scenario = "self_employed"
	ScenarioTouristFirstTime Scenario = "tourist_first_time"
	ScenarioBusiness         Scenario = "business"
	ScenarioMedical          Scenario = "medical"
	ScenarioStudy            Scenario = "study"
	ScenarioStrongTies       Scenario = "strong_ties"
	ScenarioWeaknesses       Scenario = "weaknesses"
)

// ScenarioFlags is the per-request classification result.
// Flags are not mutually exclusive.
type ScenarioFlags struct {
	ApplicationType  ApplicationType `json:"application_type"`
	Sponsored        bool            `json:"sponsored"`
	SelfEmployed     bool            `json:"self_employed"`
	Medical          bool            `json:"medical"`
	Business         bool            `json:"business"`
	TouristFirstTime bool            `json:"tourist_first_time"`
	Study            bool            `json:"study"`
	PriorRefusals    bool            `json:"prior_refusals"`
	StrongTies       bool            `json:"strong_ties"`
	HasWeaknesses    bool            `json:"has_weaknesses"`
}

// IsReapplication reports whether the application follows a previous one
func (f ScenarioFlags) IsReapplication() bool {
	return f.ApplicationType == ApplicationReapplication
}

// Active returns the set scenarios in a fixed order
func (f ScenarioFlags) Active() []Scenario {
	active := make([]Scenario, 0, 9)
	if f.IsReapplication() {
		active = append(active, ScenarioReapplication)
	}
	if f.Sponsored {
		active = append(active, ScenarioSponsored)
	}
	if f.SelfEmployed {
		active = append(active, ScenarioSelfEmployed)
	}
	if f.TouristFirstTime {
		active = append(active, ScenarioTouristFirstTime)
	}
	if f.Business {
		active = append(active, ScenarioBusiness)
	}
	if f.Medical {
		active = append(active, ScenarioMedical)
	}
	if f.Study {
		active = append(active, ScenarioStudy)
	}
	if f.StrongTies {
		active = append(active, ScenarioStrongTies)
	}
	if f.HasWeaknesses {
		active = append(active, ScenarioWeaknesses)
	}
	return active
}
