package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// notifyingRepo signals every Create so tests can wait for detached writes.
type notifyingRepo struct {
	*InMemRepository
	created chan struct{}
	fail    bool
}

func newNotifyingRepo() *notifyingRepo {
	return &notifyingRepo{
		InMemRepository: NewInMemRepository(),
		created:         make(chan struct{}, 16),
	}
}

func (r *notifyingRepo) Create(ctx context.Context, entry Entry) (*Record, error) {
	defer func() { r.created <- struct{}{} }()
	if r.fail {
		return nil, errors.New("storage down")
	}
	return r.InMemRepository.Create(ctx, entry)
}

func testEntry(orgID uuid.UUID) Entry {
	return Entry{
		ActorID:        uuid.New(),
		OrganizationID: orgID,
		Action:         "update_project",
		EntityType:     "project",
		EntityID:       uuid.New().String(),
		IPAddress:      "203.0.113.7",
		UserAgent:      "test-agent",
	}
}

func TestRecordDetached(t *testing.T) {
	repo := newNotifyingRepo()
	recorder := NewRecorder(repo)
	orgID := uuid.New()

	recorder.Record(testEntry(orgID))

	select {
	case <-repo.created:
	case <-time.After(time.Second):
		t.Fatal("detached audit write never ran")
	}

	records, err := recorder.List(context.Background(), orgID, 10, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "update_project", records[0].Action)
	assert.False(t, records[0].CreatedAt.IsZero())
}

func TestRecordSwallowsFailures(t *testing.T) {
	repo := newNotifyingRepo()
	repo.fail = true
	recorder := NewRecorder(repo)

	// must not panic and must not surface the storage error anywhere
	recorder.Record(testEntry(uuid.New()))

	select {
	case <-repo.created:
	case <-time.After(time.Second):
		t.Fatal("detached audit write never ran")
	}
}

func TestRecordSyncReportsError(t *testing.T) {
	repo := newNotifyingRepo()
	repo.fail = true
	recorder := NewRecorder(repo)

	err := recorder.RecordSync(context.Background(), testEntry(uuid.New()))
	assert.Error(t, err)
}

func TestPurgeExpired(t *testing.T) {
	repo := NewInMemRepository()
	recorder := NewRecorder(repo, WithRetention(time.Hour))
	ctx := context.Background()
	orgID := uuid.New()

	_, err := repo.Create(ctx, testEntry(orgID))
	require.NoError(t, err)
	// backdate the record past retention
	repo.mu.Lock()
	repo.records[0].CreatedAt = time.Now().UTC().Add(-2 * time.Hour)
	repo.mu.Unlock()

	_, err = repo.Create(ctx, testEntry(orgID))
	require.NoError(t, err)

	require.NoError(t, recorder.PurgeExpired(ctx))

	records, err := recorder.List(ctx, orgID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
