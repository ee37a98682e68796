package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/md-rashed-zaman/clinicbook/libs/db"
	"github.com/md-rashed-zaman/clinicbook/libs/outbox"
)

var workerTracer = otel.Tracer("clinicbook.scheduler.jobs")

const reasonCancelled = "appointment cancelled"

type Worker struct {
	conn        db.Conn
	repo        *Repository
	outbox      *outbox.Repository
	logger      *slog.Logger
	dispatched  *prometheus.CounterVec
	interval    time.Duration
	batchSize   int
	backoff     time.Duration
	maxAttempts int
	now         func() time.Time
}

type WorkerConfig struct {
	Interval    time.Duration
	BatchSize   int
	Backoff     time.Duration
	MaxAttempts int
	// Registerer receives the dispatch counter; nil disables it.
	Registerer prometheus.Registerer
}

// BatchResult counts what one pass did with the reminders it claimed.
type BatchResult struct {
	Sent      int
	Cancelled int
	Failed    int
}

func NewWorker(conn db.Conn, repo *Repository, outboxRepo *outbox.Repository, logger *slog.Logger, cfg WorkerConfig) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 1 * time.Minute
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	w := &Worker{
		conn:        conn,
		repo:        repo,
		outbox:      outboxRepo,
		logger:      logger,
		interval:    cfg.Interval,
		batchSize:   cfg.BatchSize,
		backoff:     cfg.Backoff,
		maxAttempts: cfg.MaxAttempts,
		now:         time.Now,
	}
	if cfg.Registerer != nil {
		w.dispatched = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicbook",
			Subsystem: "scheduler",
			Name:      "reminders_dispatched_total",
			Help:      "Reminders handled by the dispatcher, by outcome.",
		}, []string{"outcome"})
		cfg.Registerer.MustRegister(w.dispatched)
	}
	return w
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res, err := w.ProcessBatch(ctx)
			if err != nil {
				w.logger.Error("reminder batch failed", "err", err)
				continue
			}
			if res.Sent+res.Cancelled+res.Failed > 0 {
				w.logger.Info("reminder batch processed",
					"sent", res.Sent,
					"cancelled", res.Cancelled,
					"failed", res.Failed,
				)
			}
		}
	}
}

// ProcessBatch claims due reminders and, in the same transaction, enqueues a
// due event for each and marks it sent. Reminders of cancelled appointments
// are marked failed. When the transaction fails the claimed reminders get an
// attempt recorded and are retried after the backoff.
func (w *Worker) ProcessBatch(ctx context.Context) (BatchResult, error) {
	ctx, span := workerTracer.Start(ctx, "scheduler.dispatch_batch")
	defer span.End()

	now := w.now().UTC()
	var (
		res     BatchResult
		claimed []string
	)
	err := db.InTx(ctx, w.conn, func(tx pgx.Tx) error {
		res, claimed = BatchResult{}, nil
		due, err := w.repo.FetchDue(ctx, tx, now, w.batchSize)
		if err != nil {
			return err
		}

		var sent []string
		for _, rem := range due {
			claimed = append(claimed, rem.ID)
			if rem.AppointmentStatus == "cancelled" {
				if err := w.repo.MarkFailed(ctx, tx, rem.ID, reasonCancelled); err != nil {
					return err
				}
				res.Cancelled++
				continue
			}

			evt, err := dueEvent(rem)
			if err != nil {
				if err := w.fail(ctx, tx, rem, err.Error(), now); err != nil {
					return err
				}
				res.Failed++
				continue
			}
			if err := w.outbox.Insert(ctx, tx, evt); err != nil {
				return err
			}
			sent = append(sent, rem.ID)
		}
		res.Sent = len(sent)
		return w.repo.MarkSent(ctx, tx, sent, now)
	})
	if err != nil {
		span.RecordError(err)
		if rerr := w.repo.RecordAttempt(ctx, w.conn, claimed, w.maxAttempts, now.Add(w.backoff), err.Error()); rerr != nil {
			w.logger.Error("record reminder attempt failed", "err", rerr, "reminders", len(claimed))
		}
		return BatchResult{}, err
	}

	span.SetAttributes(
		attribute.Int("clinicbook.reminders.sent", res.Sent),
		attribute.Int("clinicbook.reminders.cancelled", res.Cancelled),
		attribute.Int("clinicbook.reminders.failed", res.Failed),
	)
	w.count("sent", res.Sent)
	w.count("cancelled", res.Cancelled)
	w.count("failed", res.Failed)
	return res, nil
}

func (w *Worker) fail(ctx context.Context, tx pgx.Tx, rem DueReminder, reason string, now time.Time) error {
	if err := w.repo.MarkFailed(ctx, tx, rem.ID, reason); err != nil {
		return err
	}
	evt, err := failedEvent(rem, reason, now)
	if err != nil {
		return err
	}
	w.logger.Warn("reminder failed", "reminder_id", rem.ID, "appointment_id", rem.AppointmentID, "reason", reason)
	return w.outbox.Insert(ctx, tx, evt)
}

func (w *Worker) count(outcome string, n int) {
	if w.dispatched == nil || n == 0 {
		return
	}
	w.dispatched.WithLabelValues(outcome).Add(float64(n))
}
