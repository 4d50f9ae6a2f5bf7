package model

// VisaType is the category of visa a dossier applies for.
type VisaType string

const (
	VisaTourist       VisaType = "tourist"
	VisaStudent       VisaType = "student"
	VisaWork          VisaType = "work"
	VisaBusiness      VisaType = "business"
	VisaTransit       VisaType = "transit"
	VisaFamilyReunion VisaType = "family_reunion"
	VisaMedical       VisaType = "medical"
	VisaInvestment    VisaType = "investment"
)

var visaTypes = []VisaType{
	VisaTourist,
	VisaStudent,
	VisaWork,
	VisaBusiness,
	VisaTransit,
	VisaFamilyReunion,
	VisaMedical,
	VisaInvestment,
}

var visaTypeLabels = map[VisaType]string{
	VisaTourist:       "Tourist Visa",
	VisaStudent:       "Student Visa",
	VisaWork:          "Work Visa",
	VisaBusiness:      "Business Visa",
	VisaTransit:       "Transit Visa",
	VisaFamilyReunion: "Family Reunion Visa",
	VisaMedical:       "Medical Visa",
	VisaInvestment:    "Investment Visa",
}

// AllVisaTypes returns every visa type in declaration order.
func AllVisaTypes() []VisaType {
	out := make([]VisaType, len(visaTypes))
	copy(out, visaTypes)
	return out
}

func (v VisaType) Valid() bool {
	_, ok := visaTypeLabels[v]
	return ok
}

func (v VisaType) Label() string { return visaTypeLabels[v] }

// VisaTypeOptions lists visa types with their label.
func VisaTypeOptions() []Option {
	out := make([]Option, 0, len(visaTypes))
	for _, v := range visaTypes {
		out = append(out, Option{Value: string(v), Label: v.Label()})
	}
	return out
}
