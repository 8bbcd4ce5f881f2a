package identity

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mhdnifad/Aurora-Ops-sub000/pkg/utils"
)

// InMemRepository is an in-memory implementation of Repository for tests.
// Email uniqueness is enforced under the same mutex hold as the insert,
// mirroring the unique index in the Postgres schema.
type InMemRepository struct {
	mu         sync.Mutex
	identities map[uuid.UUID]*Identity
}

// NewInMemRepository creates a new in-memory identity repository
func NewInMemRepository() *InMemRepository {
	return &InMemRepository{
		identities: make(map[uuid.UUID]*Identity),
	}
}

func (r *InMemRepository) Create(ctx context.Context, params CreateParams) (*Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := utils.NormalizeEmail(params.Email)
	for _, existing := range r.identities {
		if existing.DeletedAt == nil && existing.Email == email {
			return nil, ErrEmailTaken{Email: params.Email}
		}
	}

	now := time.Now().UTC()
	identity := &Identity{
		ID:           uuid.New(),
		Email:        email,
		Name:         params.Name,
		PasswordHash: params.PasswordHash,
		Active:       true,
		Superadmin:   params.Superadmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.identities[identity.ID] = identity

	copied := *identity
	return &copied, nil
}

func (r *InMemRepository) GetByID(ctx context.Context, id uuid.UUID) (*Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	identity, ok := r.identities[id]
	if !ok || identity.DeletedAt != nil {
		return nil, ErrNotFound
	}
	copied := *identity
	return &copied, nil
}

func (r *InMemRepository) GetByEmail(ctx context.Context, email string) (*Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	normalized := utils.NormalizeEmail(email)
	for _, identity := range r.identities {
		if identity.DeletedAt == nil && identity.Email == normalized {
			copied := *identity
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (r *InMemRepository) Update(ctx context.Context, params UpdateParams) (*Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	identity, ok := r.identities[params.ID]
	if !ok || identity.DeletedAt != nil {
		return nil, ErrNotFound
	}

	email := utils.NormalizeEmail(params.Email)
	for id, existing := range r.identities {
		if id != params.ID && existing.DeletedAt == nil && existing.Email == email {
			return nil, ErrEmailTaken{Email: params.Email}
		}
	}

	identity.Email = email
	identity.Name = params.Name
	identity.UpdatedAt = time.Now().UTC()

	copied := *identity
	return &copied, nil
}

func (r *InMemRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	identity, ok := r.identities[id]
	if !ok || identity.DeletedAt != nil {
		return ErrNotFound
	}
	identity.PasswordHash = passwordHash
	identity.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *InMemRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	identity, ok := r.identities[id]
	if !ok || identity.DeletedAt != nil {
		return ErrNotFound
	}
	now := time.Now().UTC()
	identity.Active = false
	identity.DeletedAt = &now
	identity.UpdatedAt = now
	return nil
}
