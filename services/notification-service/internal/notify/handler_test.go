package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/segmentio/kafka-go"

	"github.com/md-rashed-zaman/clinicbook/libs/kafkax"
	"github.com/md-rashed-zaman/clinicbook/libs/outbox"
	"github.com/md-rashed-zaman/clinicbook/services/notification-service/internal/inbox"
	"github.com/md-rashed-zaman/clinicbook/services/notification-service/internal/sms"
	"github.com/md-rashed-zaman/clinicbook/services/notification-service/internal/storage"
)

type fakeSender struct {
	err  error
	sent []string
}

func (f *fakeSender) Send(_ context.Context, to, body string) error {
	f.sent = append(f.sent, to+"|"+body)
	return f.err
}

func (f *fakeSender) Channel() string { return sms.ChannelWhatsApp }

func (f *fakeSender) ProviderID() string { return "fake" }

func sampleDue() ReminderDue {
	return ReminderDue{
		ReminderID:    "r1",
		AppointmentID: "appt-1",
		Kind:          "24h",
		Date:          "2026-03-02",
		StartTime:     "10:00",
		ClinicID:      "clinic-1",
		ClinicName:    "Sorriso",
		Locale:        "pt-BR",
		DoctorName:    "Dr. Ana",
		PatientName:   "Maria",
		PatientPhone:  "5511987654321",
	}
}

func dueMessage(t *testing.T, due ReminderDue) kafka.Message {
	t.Helper()
	raw, err := json.Marshal(due)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return kafkax.NewMessage(context.Background(), EventReminderDue,
		kafkax.EventMeta{EventID: "evt-1", EventType: EventReminderDue, AggregateID: due.ReminderID},
		raw, time.Now())
}

func newTestHandler(t *testing.T, sender *fakeSender) (*Handler, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(mock.Close)
	h := NewHandler(mock, inbox.NewRepository(), storage.NewRepository(), outbox.NewRepository(), sender,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	return h, mock
}

func TestRender(t *testing.T) {
	due := sampleDue()
	want := "Olá Maria, lembramos da sua consulta com Dr. Ana na Sorriso em segunda-feira, 2 de março de 2026 às 10:00."
	if got := Render(due); got != want {
		t.Fatalf("pt: got %q", got)
	}

	due.Locale = "en"
	due.PatientName = ""
	want = "Hi, this is a reminder of your appointment with Dr. Ana at Sorriso on Monday, March 2, 2026 at 10:00."
	if got := Render(due); got != want {
		t.Fatalf("en: got %q", got)
	}
}

func TestHandleSendsAndRecords(t *testing.T) {
	sender := &fakeSender{}
	h, mock := newTestHandler(t, sender)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO inbox_events").
		WithArgs("evt-1", EventReminderDue).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO notifications").
		WithArgs("r1", "appt-1", "clinic-1", sms.ChannelWhatsApp, "5511987654321", pgxmock.AnyArg(), "sent", "fake", "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO outbox_events").
		WithArgs("notification", "appt-1", EventNotificationSent, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	if err := h.Handle(context.Background(), dueMessage(t, sampleDue())); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected one send, got %d", len(sender.sent))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestHandleSkipsDuplicates(t *testing.T) {
	sender := &fakeSender{}
	h, mock := newTestHandler(t, sender)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO inbox_events").
		WithArgs("evt-1", EventReminderDue).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectCommit()

	if err := h.Handle(context.Background(), dueMessage(t, sampleDue())); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatal("duplicate must not be sent")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestHandleRecordsSendFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New("sms webhook returned 502")}
	h, mock := newTestHandler(t, sender)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO inbox_events").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO notifications").
		WithArgs("r1", "appt-1", "clinic-1", sms.ChannelWhatsApp, "5511987654321", pgxmock.AnyArg(), "failed", "", "sms webhook returned 502").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO outbox_events").
		WithArgs("notification", "appt-1", EventNotificationFailed, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	if err := h.Handle(context.Background(), dueMessage(t, sampleDue())); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestHandleDropsMalformed(t *testing.T) {
	h, mock := newTestHandler(t, &fakeSender{})

	if err := h.Handle(context.Background(), kafka.Message{Topic: EventReminderDue, Value: []byte("{")}); err != nil {
		t.Fatalf("expected malformed payload to be dropped, got %v", err)
	}
	due := sampleDue()
	due.PatientPhone = ""
	if err := h.Handle(context.Background(), dueMessage(t, due)); err != nil {
		t.Fatalf("expected incomplete payload to be dropped, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected db use: %v", err)
	}
}
