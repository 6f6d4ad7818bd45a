package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ganot/timeflow/internal/repository"
)

// APIKeyRepository stores hashed bearer tokens
type APIKeyRepository struct {
	db *DB
}

// NewAPIKeyRepository creates a new APIKeyRepository
func NewAPIKeyRepository(db *DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// Create registers token for ownerID
func (r *APIKeyRepository) Create(ctx context.Context, ownerID, token, description string) error {
	if ownerID == "" || token == "" {
		return repository.ErrInvalidInput
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO api_keys (key_hash, owner_id, created_at, description) VALUES (?, ?, ?, ?)`,
		HashToken(token), ownerID, time.Now().UTC(), description)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create api key: %w", err)
	}
	return nil
}

// ResolveOwner returns the owner of token and records its use
func (r *APIKeyRepository) ResolveOwner(ctx context.Context, token string) (string, error) {
	hash := HashToken(token)
	var ownerID string
	err := r.db.QueryRowContext(ctx, `SELECT owner_id FROM api_keys WHERE key_hash = ?`, hash).Scan(&ownerID)
	if err == sql.ErrNoRows || (err == nil && ownerID == "") {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve api key: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `UPDATE api_keys SET last_used = ? WHERE key_hash = ?`, time.Now().UTC(), hash); err != nil {
		return "", fmt.Errorf("failed to touch api key: %w", err)
	}
	return ownerID, nil
}

// HashToken returns the stored form of a bearer token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
