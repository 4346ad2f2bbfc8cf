package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"proxyd/internal/core/domain"
)

type ProxyRepository struct {
	db *sqlx.DB
}

func NewProxyRepository(db *sqlx.DB) *ProxyRepository {
	return &ProxyRepository{db: db}
}

func (r *ProxyRepository) Create(ctx context.Context, p *domain.Proxy) error {
	const op = "postgres.CreateProxy"
	query := `
		INSERT INTO proxies (old_ip, old_port, new_domain, https_enabled, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		p.OldIP, p.OldPort, p.NewDomain, p.HTTPSEnabled, p.IsActive,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.E(domain.KindPersistence, op, "inserting proxy", err)
	}
	return nil
}

func (r *ProxyRepository) GetByID(ctx context.Context, id int64) (*domain.Proxy, error) {
	const op = "postgres.GetProxy"
	var p domain.Proxy
	err := r.db.GetContext(ctx, &p, `SELECT * FROM proxies WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.E(domain.KindNotFound, op, fmt.Sprintf("proxy %d not found", id), nil)
		}
		return nil, domain.E(domain.KindPersistence, op, "loading proxy", err)
	}
	return &p, nil
}

func (r *ProxyRepository) List(ctx context.Context) ([]domain.Proxy, error) {
	const op = "postgres.ListProxies"
	proxies := []domain.Proxy{}
	err := r.db.SelectContext(ctx, &proxies, `SELECT * FROM proxies ORDER BY id`)
	if err != nil {
		return nil, domain.E(domain.KindPersistence, op, "listing proxies", err)
	}
	return proxies, nil
}

func (r *ProxyRepository) Update(ctx context.Context, p *domain.Proxy) error {
	const op = "postgres.UpdateProxy"
	query := `
		UPDATE proxies
		SET old_ip = $1, old_port = $2, new_domain = $3, https_enabled = $4,
		    is_active = $5, updated_at = NOW()
		WHERE id = $6
	`
	res, err := r.db.ExecContext(ctx, query,
		p.OldIP, p.OldPort, p.NewDomain, p.HTTPSEnabled, p.IsActive, p.ID,
	)
	if err != nil {
		return domain.E(domain.KindPersistence, op, "updating proxy", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.E(domain.KindNotFound, op, fmt.Sprintf("proxy %d not found", p.ID), nil)
	}
	return nil
}

func (r *ProxyRepository) Delete(ctx context.Context, id int64) error {
	const op = "postgres.DeleteProxy"
	res, err := r.db.ExecContext(ctx, `DELETE FROM proxies WHERE id = $1`, id)
	if err != nil {
		return domain.E(domain.KindPersistence, op, "deleting proxy", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.E(domain.KindNotFound, op, fmt.Sprintf("proxy %d not found", id), nil)
	}
	return nil
}

func (r *ProxyRepository) DomainTaken(ctx context.Context, domainName string, excludeID int64) (bool, error) {
	const op = "postgres.DomainTaken"
	var taken bool
	query := `SELECT EXISTS (SELECT 1 FROM proxies WHERE new_domain = $1 AND id <> $2)`
	if err := r.db.GetContext(ctx, &taken, query, domainName, excludeID); err != nil {
		return false, domain.E(domain.KindPersistence, op, "checking domain", err)
	}
	return taken, nil
}
