package inbox

import (
	"context"

	"github.com/md-rashed-zaman/clinicbook/libs/outbox"
)

type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

// Record claims eventID. It reports false when the event was already
// processed, so redelivered messages can be skipped.
func (r *Repository) Record(ctx context.Context, exec outbox.Execer, eventID, eventType string) (bool, error) {
	tag, err := exec.Exec(ctx, `
		INSERT INTO inbox_events (event_id, event_type)
		VALUES ($1, $2)
		ON CONFLICT (event_id) DO NOTHING
	`, eventID, eventType)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
