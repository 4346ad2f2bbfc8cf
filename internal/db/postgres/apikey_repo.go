package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"proxyd/internal/core/domain"
)

type APIKeyRepository struct {
	db *sqlx.DB
}

func NewAPIKeyRepository(db *sqlx.DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

func (r *APIKeyRepository) Create(ctx context.Context, k *domain.APIKey) error {
	const op = "postgres.CreateAPIKey"
	query := `
		INSERT INTO api_keys (key, description, is_active)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query, k.Key, k.Description, k.IsActive).
		Scan(&k.ID, &k.CreatedAt)
	if err != nil {
		return domain.E(domain.KindPersistence, op, "inserting api key", err)
	}
	return nil
}

func (r *APIKeyRepository) GetByID(ctx context.Context, id int64) (*domain.APIKey, error) {
	const op = "postgres.GetAPIKey"
	var k domain.APIKey
	err := r.db.GetContext(ctx, &k, `SELECT * FROM api_keys WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.E(domain.KindNotFound, op, fmt.Sprintf("api key %d not found", id), nil)
		}
		return nil, domain.E(domain.KindPersistence, op, "loading api key", err)
	}
	return &k, nil
}

func (r *APIKeyRepository) GetByKey(ctx context.Context, key string) (*domain.APIKey, error) {
	const op = "postgres.GetAPIKeyByValue"
	var k domain.APIKey
	err := r.db.GetContext(ctx, &k, `SELECT * FROM api_keys WHERE key = $1`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.E(domain.KindNotFound, op, "api key not found", nil)
		}
		return nil, domain.E(domain.KindPersistence, op, "loading api key", err)
	}
	return &k, nil
}

func (r *APIKeyRepository) List(ctx context.Context) ([]domain.APIKey, error) {
	const op = "postgres.ListAPIKeys"
	keys := []domain.APIKey{}
	err := r.db.SelectContext(ctx, &keys, `SELECT * FROM api_keys ORDER BY id`)
	if err != nil {
		return nil, domain.E(domain.KindPersistence, op, "listing api keys", err)
	}
	return keys, nil
}

func (r *APIKeyRepository) Delete(ctx context.Context, id int64) error {
	const op = "postgres.DeleteAPIKey"
	res, err := r.db.ExecContext(ctx, `DELETE FROM api_keys WHERE id = $1`, id)
	if err != nil {
		return domain.E(domain.KindPersistence, op, "deleting api key", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.E(domain.KindNotFound, op, fmt.Sprintf("api key %d not found", id), nil)
	}
	return nil
}

func (r *APIKeyRepository) Count(ctx context.Context) (int64, error) {
	const op = "postgres.CountAPIKeys"
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM api_keys`); err != nil {
		return 0, domain.E(domain.KindPersistence, op, "counting api keys", err)
	}
	return n, nil
}
