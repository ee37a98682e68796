package conversation

import (
	"context"
	"time"

	"github.com/md-rashed-zaman/clinicbook/libs/outbox"
)

const EventConversationResolved = "booking.conversation.resolved.v1"

// Resolver hands a booked conversation back to the messaging service by
// publishing a resolved event through the outbox.
type Resolver struct {
	exec   outbox.Execer
	outbox *outbox.Repository
	now    func() time.Time
}

func NewResolver(exec outbox.Execer, outboxRepo *outbox.Repository) *Resolver {
	return &Resolver{exec: exec, outbox: outboxRepo, now: time.Now}
}

type resolvedPayload struct {
	ConversationID string `json:"conversation_id"`
	ClinicID       string `json:"clinic_id"`
	PatientID      string `json:"patient_id"`
	AppointmentID  string `json:"appointment_id"`
	ResolvedAt     string `json:"resolved_at"`
}

// Resolve marks the conversation resolved and links it to the patient.
func (r *Resolver) Resolve(ctx context.Context, conversationID, clinicID, patientID, appointmentID string) error {
	evt, err := outbox.NewEvent("conversation", conversationID, EventConversationResolved, resolvedPayload{
		ConversationID: conversationID,
		ClinicID:       clinicID,
		PatientID:      patientID,
		AppointmentID:  appointmentID,
		ResolvedAt:     r.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return r.outbox.Insert(ctx, r.exec, evt)
}
