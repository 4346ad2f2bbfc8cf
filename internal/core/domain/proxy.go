package domain

import (
	"context"
	"time"
)

// Proxy is a managed binding from a public domain to an upstream address,
// materialized as an nginx virtual host.
type Proxy struct {
	ID           int64     `json:"id" db:"id"`
	OldIP        string    `json:"old_ip" db:"old_ip"`
	OldPort      int       `json:"old_port" db:"old_port"`
	NewDomain    string    `json:"new_domain" db:"new_domain"`
	HTTPSEnabled bool      `json:"https_enabled" db:"https_enabled"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// ProxyPatch carries the fields of a partial update. A nil field keeps the
// value already persisted.
type ProxyPatch struct {
	OldIP        *string
	OldPort      *int
	NewDomain    *string
	HTTPSEnabled *bool
	IsActive     *bool
}

// Apply overlays the set fields onto p.
func (pp ProxyPatch) Apply(p *Proxy) {
	if pp.OldIP != nil {
		p.OldIP = *pp.OldIP
	}
	if pp.OldPort != nil {
		p.OldPort = *pp.OldPort
	}
	if pp.NewDomain != nil {
		p.NewDomain = *pp.NewDomain
	}
	if pp.HTTPSEnabled != nil {
		p.HTTPSEnabled = *pp.HTTPSEnabled
	}
	if pp.IsActive != nil {
		p.IsActive = *pp.IsActive
	}
}

// ProxyRepository is the transactional record store for Proxy rows.
type ProxyRepository interface {
	Create(ctx context.Context, p *Proxy) error
	GetByID(ctx context.Context, id int64) (*Proxy, error)
	List(ctx context.Context) ([]Proxy, error)
	Update(ctx context.Context, p *Proxy) error
	Delete(ctx context.Context, id int64) error

	// DomainTaken reports whether another row already claims the domain.
	// The on-disk config keys on the domain name, so two rows sharing one
	// can never be reconciled coherently.
	DomainTaken(ctx context.Context, domainName string, excludeID int64) (bool, error)
}

// ProxyPublisher exclusively owns the on-disk vhost representation of one
// domain and makes the running daemon observe changes to it.
type ProxyPublisher interface {
	Publish(ctx context.Context, p *Proxy, includeTLS bool) error
	Unpublish(ctx context.Context, domainName string) error

	// Update is unpublish-then-publish with the new data; there is no
	// in-place diffing of vhost files.
	Update(ctx context.Context, p *Proxy, includeTLS bool) error
}

// CertificateManager drives an external certificate authority for one
// domain. Both calls block until the CA interaction completes; revoking a
// certificate that was never obtained is an error, not a no-op.
type CertificateManager interface {
	Obtain(ctx context.Context, domainName string) error
	Revoke(ctx context.Context, domainName string) error
}

// ProxyService is the reconciliation surface consumed by the HTTP layer.
type ProxyService interface {
	Create(ctx context.Context, p *Proxy) (*Proxy, error)
	Get(ctx context.Context, id int64) (*Proxy, error)
	List(ctx context.Context) ([]Proxy, error)
	Update(ctx context.Context, id int64, patch ProxyPatch) (*Proxy, error)
	Delete(ctx context.Context, id int64) error
}
