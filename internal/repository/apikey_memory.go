package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/inferpipe/inferpipe/internal/auth"
	memstore "github.com/inferpipe/inferpipe/internal/repository/memory"
	"github.com/inferpipe/inferpipe/internal/workflow"
)

// MemoryAPIKeyRepository stores API keys in memory, keyed by hash for the
// hot auth-lookup path.
type MemoryAPIKeyRepository struct {
	store *memstore.Store[*auth.APIKey]
}

func NewMemoryAPIKeyRepository() *MemoryAPIKeyRepository {
	return &MemoryAPIKeyRepository{
		store: memstore.New(func(k *auth.APIKey) string { return k.KeyHash }),
	}
}

func (r *MemoryAPIKeyRepository) Create(ctx context.Context, key *auth.APIKey) error {
	return r.store.Set(ctx, key)
}

func (r *MemoryAPIKeyRepository) GetByHash(ctx context.Context, hash string) (*auth.APIKey, error) {
	key, err := r.store.Get(ctx, hash)
	if errors.Is(err, memstore.ErrNotFound) {
		return nil, fmt.Errorf("%w: api key", workflow.ErrNotFound)
	}
	return key, err
}

func (r *MemoryAPIKeyRepository) TouchLastUsed(ctx context.Context, id string, at time.Time) error {
	keys, err := r.store.Filter(ctx, func(k *auth.APIKey) bool { return k.ID == id })
	if err != nil || len(keys) == 0 {
		return fmt.Errorf("%w: api key %s", workflow.ErrNotFound, id)
	}
	keys[0].LastUsedAt = &at
	return r.store.Set(ctx, keys[0])
}
