package types

type Demographics struct {
	Age    *int   `json:"age,omitempty"`
	Gender string `json:"gender,omitempty"`
	Name   string `json:"name,omitempty"`
}

type ClinicalInterpretation struct {
	PrimaryConcern      string       `json:"primary_concern"`
	UrgencyLevel        string       `json:"urgency_level"`
	PotentialDiagnoses  []string     `json:"potential_diagnoses"`
	Recommendations     []string     `json:"recommendations"`
	PatientDemographics Demographics `json:"patient_demographics"`
	ClinicalContext     string       `json:"clinical_context"`
	RequiredAssessments []string     `json:"required_assessments"`
	MedicalSpecialty    string       `json:"medical_specialty"`
	QueryComplexity     float64      `json:"query_complexity"`
}

type DataRequirements struct {
	PatientIdentification []string `json:"patient_identification"`
	ClinicalData          []string `json:"clinical_data"`
	TemporalData          []string `json:"temporal_data"`
}
