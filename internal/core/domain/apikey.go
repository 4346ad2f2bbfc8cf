package domain

import (
	"context"
	"time"
)

// APIKey is an opaque bearer credential for the proxy management surface.
type APIKey struct {
	ID          int64     `json:"id" db:"id"`
	Key         string    `json:"key" db:"key"`
	Description string    `json:"description" db:"description"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type APIKeyRepository interface {
	Create(ctx context.Context, k *APIKey) error
	GetByID(ctx context.Context, id int64) (*APIKey, error)
	GetByKey(ctx context.Context, key string) (*APIKey, error)
	List(ctx context.Context) ([]APIKey, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}
