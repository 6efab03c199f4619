package types

type Intent string

const (
	IntentFindPatients        Intent = "find_patients"
	IntentFindConditions      Intent = "find_conditions"
	IntentFindObservations    Intent = "find_observations"
	IntentFindMedications     Intent = "find_medications"
	IntentEmergency           Intent = "emergency"
	IntentScheduleAppointment Intent = "schedule_appointment"
	IntentGeneralInquiry      Intent = "general_inquiry"
)

func (i Intent) Valid() bool {
	switch i {
	case IntentFindPatients, IntentFindConditions, IntentFindObservations, IntentFindMedications,
		IntentEmergency, IntentScheduleAppointment, IntentGeneralInquiry:
		return true
	}
	return false
}
