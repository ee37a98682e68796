package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/segmentio/kafka-go"

	"github.com/md-rashed-zaman/clinicbook/libs/db"
	"github.com/md-rashed-zaman/clinicbook/libs/kafkax"
	"github.com/md-rashed-zaman/clinicbook/libs/outbox"
	"github.com/md-rashed-zaman/clinicbook/services/notification-service/internal/inbox"
	"github.com/md-rashed-zaman/clinicbook/services/notification-service/internal/sms"
	"github.com/md-rashed-zaman/clinicbook/services/notification-service/internal/storage"
)

const (
	EventReminderDue        = "scheduler.reminder.due.v1"
	EventNotificationSent   = "notification.sent.v1"
	EventNotificationFailed = "notification.failed.v1"
)

type Handler struct {
	conn   db.Conn
	inbox  *inbox.Repository
	store  *storage.Repository
	outbox *outbox.Repository
	sender sms.Sender
	logger *slog.Logger
	now    func() time.Time
}

func NewHandler(conn db.Conn, inboxRepo *inbox.Repository, store *storage.Repository, outboxRepo *outbox.Repository, sender sms.Sender, logger *slog.Logger) *Handler {
	return &Handler{
		conn:   conn,
		inbox:  inboxRepo,
		store:  store,
		outbox: outboxRepo,
		sender: sender,
		logger: logger,
		now:    time.Now,
	}
}

type notificationPayload struct {
	ReminderID    string `json:"reminder_id"`
	AppointmentID string `json:"appointment_id"`
	ClinicID      string `json:"clinic_id"`
	Channel       string `json:"channel"`
	ProviderID    string `json:"provider_id,omitempty"`
	Error         string `json:"error,omitempty"`
	At            string `json:"at"`
}

// Handle sends one due reminder. The inbox claim, the notification row and
// the sent or failed event commit together; a redelivered event is skipped.
// Malformed payloads are logged and dropped.
func (h *Handler) Handle(ctx context.Context, msg kafka.Message) error {
	meta := kafkax.ExtractEventMeta(msg)

	var due ReminderDue
	if err := json.Unmarshal(msg.Value, &due); err != nil {
		h.logger.Error("invalid reminder payload", "err", err, "event_id", meta.EventID)
		return nil
	}
	if due.ReminderID == "" || due.AppointmentID == "" || due.PatientPhone == "" {
		h.logger.Error("missing reminder fields", "event_id", meta.EventID, "reminder_id", due.ReminderID)
		return nil
	}
	if meta.EventID == "" {
		meta.EventID = "reminder:" + due.ReminderID
	}

	return db.InTx(ctx, h.conn, func(tx pgx.Tx) error {
		fresh, err := h.inbox.Record(ctx, tx, meta.EventID, meta.EventType)
		if err != nil {
			return err
		}
		if !fresh {
			h.logger.Info("duplicate event ignored", "event_id", meta.EventID, "reminder_id", due.ReminderID)
			return nil
		}

		n := storage.Notification{
			ReminderID:    due.ReminderID,
			AppointmentID: due.AppointmentID,
			ClinicID:      due.ClinicID,
			Channel:       h.sender.Channel(),
			Recipient:     due.PatientPhone,
			Body:          Render(due),
			Status:        "sent",
			ProviderID:    h.sender.ProviderID(),
		}
		if err := h.sender.Send(ctx, n.Recipient, n.Body); err != nil {
			n.Status, n.ProviderID, n.Error = "failed", "", err.Error()
			h.logger.Error("reminder send failed", "err", err, "reminder_id", due.ReminderID)
		}
		if err := h.store.Insert(ctx, tx, n); err != nil {
			return err
		}

		eventType := EventNotificationSent
		if n.Status == "failed" {
			eventType = EventNotificationFailed
		}
		evt, err := outbox.NewEvent("notification", due.AppointmentID, eventType, notificationPayload{
			ReminderID:    n.ReminderID,
			AppointmentID: n.AppointmentID,
			ClinicID:      n.ClinicID,
			Channel:       n.Channel,
			ProviderID:    n.ProviderID,
			Error:         n.Error,
			At:            h.now().UTC().Format(time.RFC3339),
		})
		if err != nil {
			return err
		}
		if err := h.outbox.Insert(ctx, tx, evt); err != nil {
			return err
		}
		h.logger.Info("reminder processed", "reminder_id", due.ReminderID, "kind", due.Kind, "status", n.Status)
		return nil
	})
}
