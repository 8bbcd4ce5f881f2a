package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const writeTimeout = 5 * time.Second

// Recorder appends audit records without ever blocking or failing the request
// that triggered them.
type Recorder struct {
	repo      Repository
	retention time.Duration
}

// RecorderOption is a function that configures a Recorder
type RecorderOption func(*Recorder)

// WithRetention sets how long records are kept before purge eligibility
func WithRetention(retention time.Duration) RecorderOption {
	return func(r *Recorder) {
		r.retention = retention
	}
}

// NewRecorder creates a new audit Recorder
func NewRecorder(repo Repository, options ...RecorderOption) *Recorder {
	r := &Recorder{
		repo:      repo,
		retention: DefaultRetention,
	}
	for _, option := range options {
		option(r)
	}
	return r
}

// Record appends an entry on a detached goroutine. Write failures are logged
// and swallowed; the primary request never observes them. The write runs on
// its own context so a finished request cannot cancel it mid-flight.
func (r *Recorder) Record(entry Entry) {
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("Audit write panicked", "panic", rec, "action", entry.Action)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		if err := r.RecordSync(ctx, entry); err != nil {
			slog.Error("Failed to write audit record", "action", entry.Action, "actor_id", entry.ActorID, "err", err)
		}
	}()
}

// RecordSync appends an entry and reports the error. Used by Record and by
// callers that need confirmation (none on the request path).
func (r *Recorder) RecordSync(ctx context.Context, entry Entry) error {
	_, err := r.repo.Create(ctx, entry)
	return err
}

// List returns an organization's records for reporting endpoints.
func (r *Recorder) List(ctx context.Context, organizationID uuid.UUID, limit, offset int) ([]Record, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return r.repo.ListByOrganization(ctx, organizationID, limit, offset)
}

// PurgeExpired removes records past the retention window.
func (r *Recorder) PurgeExpired(ctx context.Context) error {
	purged, err := r.repo.DeleteOlderThan(ctx, time.Now().UTC().Add(-r.retention))
	if err != nil {
		return err
	}
	if purged > 0 {
		slog.Info("Purged audit records", "count", purged)
	}
	return nil
}
