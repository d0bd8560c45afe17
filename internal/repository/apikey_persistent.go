package repository

import (
	"context"
	"time"

	"github.com/inferpipe/inferpipe/internal/auth"
	"github.com/inferpipe/inferpipe/internal/db"
)

// PersistentAPIKeyRepository reads and writes API keys directly in
// PostgreSQL. Keys gate authentication, so there is no memory fallback: a
// database outage must not silently accept stale credentials.
type PersistentAPIKeyRepository struct {
	db *db.DB
}

func NewPersistentAPIKeyRepository(database *db.DB) *PersistentAPIKeyRepository {
	return &PersistentAPIKeyRepository{db: database}
}

func (r *PersistentAPIKeyRepository) Create(ctx context.Context, key *auth.APIKey) error {
	return r.db.CreateAPIKey(ctx, key)
}

func (r *PersistentAPIKeyRepository) GetByHash(ctx context.Context, hash string) (*auth.APIKey, error) {
	return r.db.GetAPIKeyByHash(ctx, hash)
}

func (r *PersistentAPIKeyRepository) TouchLastUsed(ctx context.Context, id string, at time.Time) error {
	return r.db.TouchAPIKey(ctx, id, at)
}
