package booking

// Request is a booking as submitted by the appointment form or a chat channel.
type Request struct {
	ClinicID        string `json:"clinicId" validate:"omitempty,uuid"`
	DoctorID        string `json:"doctorId" validate:"required,uuid"`
	PatientPhone    string `json:"patientPhone" validate:"required,phone"`
	PatientName     string `json:"patientName" validate:"max=200"`
	AppointmentDate string `json:"appointmentDate" validate:"required,ymd"`
	StartTime       string `json:"startTime" validate:"required,hhmm"`
	EndTime         string `json:"endTime" validate:"omitempty,hhmm"`
	Type            string `json:"type" validate:"max=200"`
	Notes           string `json:"notes" validate:"max=4000"`
	ConversationID  string `json:"conversationId" validate:"max=200"`
	Source          string `json:"source" validate:"omitempty,oneof=manual whatsapp google_calendar"`
}
