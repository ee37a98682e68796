package i18n

import "fmt"

// Key names a caller-facing message. Keys ending in "field" take the field
// name as their only argument.
type Key string

const (
	ClinicRequired    Key = "clinic_required"
	ClinicNotFound    Key = "clinic_not_found"
	DoctorNotFound    Key = "doctor_not_found"
	DoctorOtherClinic Key = "doctor_other_clinic"
	DoctorInactive    Key = "doctor_inactive"
	SlotTaken         Key = "slot_taken"
	DateRequired      Key = "date_required"
	EndAfterStart     Key = "end_after_start"
	EndByMidnight     Key = "end_by_midnight"
	InvalidPhone      Key = "invalid_phone"
	InvalidSource     Key = "invalid_source"
	InvalidJSON       Key = "invalid_json"
	MethodNotAllowed  Key = "method_not_allowed"
	Internal          Key = "internal"

	DateField        Key = "date_field"
	TimeField        Key = "time_field"
	RequiredField    Key = "required_field"
	UUIDField        Key = "uuid_field"
	PhoneField       Key = "phone_field"
	TooLongField     Key = "too_long_field"
	UnsupportedField Key = "unsupported_field"
	InvalidField     Key = "invalid_field"

	LoadClinicFailed        Key = "load_clinic_failed"
	LoadDoctorFailed        Key = "load_doctor_failed"
	ListDoctorsFailed       Key = "list_doctors_failed"
	LoadAppointmentsFailed  Key = "load_appointments_failed"
	ResolveDurationFailed   Key = "resolve_duration_failed"
	ResolvePatientFailed    Key = "resolve_patient_failed"
	CreateAppointmentFailed Key = "create_appointment_failed"
)

var messages = map[string]map[Key]string{
	"en": {
		ClinicRequired:    "clinicId is required",
		ClinicNotFound:    "clinic not found",
		DoctorNotFound:    "doctor not found",
		DoctorOtherClinic: "doctor not found in clinic",
		DoctorInactive:    "doctor is not active",
		SlotTaken:         "That time slot is no longer available. Please choose another time.",
		DateRequired:      "date is required",
		EndAfterStart:     "endTime must be after startTime",
		EndByMidnight:     "appointment must end by midnight",
		InvalidPhone:      "patientPhone is not a valid phone number",
		InvalidSource:     "source has an unsupported value",
		InvalidJSON:       "invalid json body",
		MethodNotAllowed:  "method not allowed",
		Internal:          "internal error",

		DateField:        "%s must be a valid date (YYYY-MM-DD)",
		TimeField:        "%s must be a valid time (HH:MM)",
		RequiredField:    "%s is required",
		UUIDField:        "%s must be a valid UUID",
		PhoneField:       "%s must contain only digits, spaces, dashes, dots, parentheses and a leading +",
		TooLongField:     "%s is too long",
		UnsupportedField: "%s has an unsupported value",
		InvalidField:     "%s is invalid",

		LoadClinicFailed:        "failed to load clinic",
		LoadDoctorFailed:        "failed to load doctor",
		ListDoctorsFailed:       "failed to list doctors",
		LoadAppointmentsFailed:  "failed to load appointments",
		ResolveDurationFailed:   "failed to resolve service duration",
		ResolvePatientFailed:    "failed to resolve patient",
		CreateAppointmentFailed: "failed to create appointment",
	},
	"es": {
		ClinicRequired:    "clinicId es obligatorio",
		ClinicNotFound:    "clínica no encontrada",
		DoctorNotFound:    "médico no encontrado",
		DoctorOtherClinic: "el médico no pertenece a esta clínica",
		DoctorInactive:    "el médico no está activo",
		SlotTaken:         "Ese horario ya no está disponible. Por favor elige otro.",
		DateRequired:      "la fecha es obligatoria",
		EndAfterStart:     "endTime debe ser posterior a startTime",
		EndByMidnight:     "la cita debe terminar antes de la medianoche",
		InvalidPhone:      "patientPhone no es un número de teléfono válido",
		InvalidSource:     "source tiene un valor no admitido",
		InvalidJSON:       "cuerpo json inválido",
		MethodNotAllowed:  "método no permitido",
		Internal:          "error interno",

		DateField:        "%s debe ser una fecha válida (AAAA-MM-DD)",
		TimeField:        "%s debe ser una hora válida (HH:MM)",
		RequiredField:    "%s es obligatorio",
		UUIDField:        "%s debe ser un UUID válido",
		PhoneField:       "%s solo puede contener dígitos, espacios, guiones, puntos, paréntesis y un + inicial",
		TooLongField:     "%s es demasiado largo",
		UnsupportedField: "%s tiene un valor no admitido",
		InvalidField:     "%s no es válido",

		LoadClinicFailed:        "no se pudo cargar la clínica",
		LoadDoctorFailed:        "no se pudo cargar el médico",
		ListDoctorsFailed:       "no se pudo listar los médicos",
		LoadAppointmentsFailed:  "no se pudieron cargar las citas",
		ResolveDurationFailed:   "no se pudo determinar la duración del servicio",
		ResolvePatientFailed:    "no se pudo registrar al paciente",
		CreateAppointmentFailed: "no se pudo crear la cita",
	},
	"pt": {
		ClinicRequired:    "clinicId é obrigatório",
		ClinicNotFound:    "clínica não encontrada",
		DoctorNotFound:    "médico não encontrado",
		DoctorOtherClinic: "o médico não pertence a esta clínica",
		DoctorInactive:    "o médico não está ativo",
		SlotTaken:         "Esse horário não está mais disponível. Por favor escolha outro.",
		DateRequired:      "a data é obrigatória",
		EndAfterStart:     "endTime deve ser posterior a startTime",
		EndByMidnight:     "a consulta deve terminar antes da meia-noite",
		InvalidPhone:      "patientPhone não é um número de telefone válido",
		InvalidSource:     "source tem um valor não suportado",
		InvalidJSON:       "corpo json inválido",
		MethodNotAllowed:  "método não permitido",
		Internal:          "erro interno",

		DateField:        "%s deve ser uma data válida (AAAA-MM-DD)",
		TimeField:        "%s deve ser um horário válido (HH:MM)",
		RequiredField:    "%s é obrigatório",
		UUIDField:        "%s deve ser um UUID válido",
		PhoneField:       "%s deve conter apenas dígitos, espaços, hífens, pontos, parênteses e um + inicial",
		TooLongField:     "%s é muito longo",
		UnsupportedField: "%s tem um valor não suportado",
		InvalidField:     "%s é inválido",

		LoadClinicFailed:        "falha ao carregar a clínica",
		LoadDoctorFailed:        "falha ao carregar o médico",
		ListDoctorsFailed:       "falha ao listar os médicos",
		LoadAppointmentsFailed:  "falha ao carregar as consultas",
		ResolveDurationFailed:   "falha ao determinar a duração do serviço",
		ResolvePatientFailed:    "falha ao registrar o paciente",
		CreateAppointmentFailed: "falha ao criar a consulta",
	},
}

// Message renders key in the language of locale. Keys missing from a
// language fall back to English.
func Message(locale string, key Key, args ...any) string {
	tmpl, ok := messages[Language(locale)][key]
	if !ok {
		tmpl, ok = messages[Default][key]
	}
	if !ok {
		return string(key)
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}
