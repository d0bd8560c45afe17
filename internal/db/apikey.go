package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/inferpipe/inferpipe/internal/auth"
	"github.com/inferpipe/inferpipe/internal/workflow"
)

// CreateAPIKey stores a new API key row.
func (d *DB) CreateAPIKey(ctx context.Context, k *auth.APIKey) error {
	scopesJSON, _ := json.Marshal(k.Scopes)

	_, err := d.Pool.ExecContext(ctx,
		`INSERT INTO api_keys (id, owner_id, name, key_hash, scopes, is_active, last_used_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		k.ID, k.OwnerID, k.Name, k.KeyHash, scopesJSON, k.IsActive, k.LastUsedAt, k.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert api key: %w", err)
	}
	return nil
}

// GetAPIKeyByHash retrieves an API key by its hash.
func (d *DB) GetAPIKeyByHash(ctx context.Context, hash string) (*auth.APIKey, error) {
	k := &auth.APIKey{}
	var scopesJSON []byte

	err := d.Pool.QueryRowContext(ctx,
		`SELECT id, owner_id, name, key_hash, scopes, is_active, last_used_at, created_at
		 FROM api_keys WHERE key_hash = $1`, hash,
	).Scan(&k.ID, &k.OwnerID, &k.Name, &k.KeyHash, &scopesJSON, &k.IsActive, &k.LastUsedAt, &k.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: api key", workflow.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get api key: %w", err)
	}

	json.Unmarshal(scopesJSON, &k.Scopes)
	return k, nil
}

// TouchAPIKey records the key's last use.
func (d *DB) TouchAPIKey(ctx context.Context, id string, at time.Time) error {
	_, err := d.Pool.ExecContext(ctx,
		`UPDATE api_keys SET last_used_at = $1 WHERE id = $2`, at, id,
	)
	if err != nil {
		return fmt.Errorf("touch api key: %w", err)
	}
	return nil
}
