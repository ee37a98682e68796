package storage

import (
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/clinicbook/libs/db"
	"github.com/md-rashed-zaman/clinicbook/libs/outbox"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrSlotTaken is returned when the appointments exclusion constraint
	// rejects an overlapping insert.
	ErrSlotTaken = errors.New("slot already taken")
)

// Repository is the booking-service persistence layer over Postgres.
type Repository struct {
	conn   db.Conn
	outbox *outbox.Repository
	logger *slog.Logger
}

func NewRepository(conn db.Conn, outboxRepo *outbox.Repository, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{conn: conn, outbox: outboxRepo, logger: logger}
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrSlotTaken) || db.HasCode(err, db.CodeExclusionViolation)
}

// notFound maps "no row" and malformed ids to ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) || db.HasCode(err, db.CodeInvalidText) {
		return ErrNotFound
	}
	return err
}
