package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"proxyd/internal/core/domain"
)

// Reconciler translates each mutating operation on a Proxy into an ordered
// set of store, filesystem, and certificate-authority side effects.
//
// The store commit always precedes the external side effects; a failure in
// a later stage is surfaced to the caller but never rolled back against the
// store. The retained row is the durable marker of incomplete
// reconciliation.
type Reconciler struct {
	proxies   domain.ProxyRepository
	publisher domain.ProxyPublisher
	certs     domain.CertificateManager
	locks     *DomainLocks
	logger    *slog.Logger
}

func NewReconciler(
	proxies domain.ProxyRepository,
	publisher domain.ProxyPublisher,
	certs domain.CertificateManager,
	logger *slog.Logger,
) *Reconciler {
	return &Reconciler{
		proxies:   proxies,
		publisher: publisher,
		certs:     certs,
		locks:     NewDomainLocks(),
		logger:    logger,
	}
}

func validateProxy(op string, p *domain.Proxy) error {
	switch {
	case strings.TrimSpace(p.OldIP) == "":
		return domain.E(domain.KindValidation, op, "old_ip is required", nil)
	case p.OldPort < 1 || p.OldPort > 65535:
		return domain.E(domain.KindValidation, op, fmt.Sprintf("old_port %d is outside 1-65535", p.OldPort), nil)
	case strings.TrimSpace(p.NewDomain) == "":
		return domain.E(domain.KindValidation, op, "new_domain is required", nil)
	}
	return nil
}

// Create persists the row, publishes the vhost, and, when HTTPS is
// requested, obtains a certificate and re-publishes with the TLS server
// block now that the certificate exists on disk.
func (r *Reconciler) Create(ctx context.Context, p *domain.Proxy) (*domain.Proxy, error) {
	const op = "reconciler.Create"
	log := r.opLogger("create", p.NewDomain)

	if err := validateProxy(op, p); err != nil {
		return nil, err
	}

	unlock := r.locks.Lock(p.NewDomain)
	defer unlock()

	taken, err := r.proxies.DomainTaken(ctx, p.NewDomain, 0)
	if err != nil {
		return nil, domain.E(domain.KindPersistence, op, "checking domain uniqueness", err)
	}
	if taken {
		return nil, domain.E(domain.KindValidation, op, fmt.Sprintf("domain %s is already managed", p.NewDomain), nil)
	}

	p.IsActive = true
	if err := r.proxies.Create(ctx, p); err != nil {
		return nil, domain.E(domain.KindPersistence, op, "persisting proxy", err)
	}
	log = log.With(slog.Int64("proxy_id", p.ID))
	log.Info("proxy persisted")

	if err := r.publisher.Publish(ctx, p, false); err != nil {
		log.Error("publish failed, row retained unpublished", slog.Any("error", err))
		return nil, err
	}
	log.Info("vhost published")

	if p.HTTPSEnabled {
		if err := r.certs.Obtain(ctx, p.NewDomain); err != nil {
			log.Error("certificate issuance failed, vhost stays plaintext", slog.Any("error", err))
			return nil, err
		}
		if err := r.publisher.Publish(ctx, p, true); err != nil {
			log.Error("tls re-publish failed", slog.Any("error", err))
			return nil, err
		}
		log.Info("certificate obtained")
	}

	return p, nil
}

func (r *Reconciler) Get(ctx context.Context, id int64) (*domain.Proxy, error) {
	return r.proxies.GetByID(ctx, id)
}

func (r *Reconciler) List(ctx context.Context) ([]domain.Proxy, error) {
	return r.proxies.List(ctx)
}

// Update merges the patch over the persisted row and reconciles the vhost
// and certificate against the prior persisted state. The https transition
// is decided on the prior-vs-merged edge of the flag, never against the
// patch itself.
func (r *Reconciler) Update(ctx context.Context, id int64, patch domain.ProxyPatch) (*domain.Proxy, error) {
	const op = "reconciler.Update"

	prior, err := r.proxies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	merged := *prior
	patch.Apply(&merged)

	unlock := r.locks.Lock(prior.NewDomain, merged.NewDomain)
	defer unlock()

	// re-read under the lock; a concurrent mutation may have landed
	// between the first load and lock acquisition
	prior, err = r.proxies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	merged = *prior
	patch.Apply(&merged)

	if err := validateProxy(op, &merged); err != nil {
		return nil, err
	}

	log := r.opLogger("update", merged.NewDomain).With(slog.Int64("proxy_id", id))

	domainChanged := merged.NewDomain != prior.NewDomain
	if domainChanged {
		taken, err := r.proxies.DomainTaken(ctx, merged.NewDomain, id)
		if err != nil {
			return nil, domain.E(domain.KindPersistence, op, "checking domain uniqueness", err)
		}
		if taken {
			return nil, domain.E(domain.KindValidation, op, fmt.Sprintf("domain %s is already managed", merged.NewDomain), nil)
		}
	}

	if err := r.proxies.Update(ctx, &merged); err != nil {
		return nil, domain.E(domain.KindPersistence, op, "persisting proxy", err)
	}
	log.Info("proxy persisted")

	if domainChanged {
		if err := r.publisher.Unpublish(ctx, prior.NewDomain); err != nil {
			log.Error("unpublish of previous domain failed", slog.String("previous_domain", prior.NewDomain), slog.Any("error", err))
			return nil, err
		}
		if prior.HTTPSEnabled {
			if err := r.certs.Revoke(ctx, prior.NewDomain); err != nil {
				log.Error("revocation for previous domain failed", slog.String("previous_domain", prior.NewDomain), slog.Any("error", err))
				return nil, err
			}
		}
	}

	// a certificate is held for the merged domain only if the prior state
	// had HTTPS on that same domain
	hadCert := prior.HTTPSEnabled && !domainChanged

	if merged.IsActive {
		if err := r.publisher.Update(ctx, &merged, merged.HTTPSEnabled && hadCert); err != nil {
			log.Error("vhost update failed", slog.Any("error", err))
			return nil, err
		}
		log.Info("vhost updated")
	} else {
		if err := r.publisher.Unpublish(ctx, merged.NewDomain); err != nil {
			log.Error("unpublish failed", slog.Any("error", err))
			return nil, err
		}
		log.Info("vhost unpublished, proxy deactivated")
	}

	switch {
	case merged.HTTPSEnabled && !hadCert:
		if err := r.certs.Obtain(ctx, merged.NewDomain); err != nil {
			log.Error("certificate issuance failed, vhost stays plaintext", slog.Any("error", err))
			return nil, err
		}
		if merged.IsActive {
			if err := r.publisher.Publish(ctx, &merged, true); err != nil {
				log.Error("tls re-publish failed", slog.Any("error", err))
				return nil, err
			}
		}
		log.Info("certificate obtained")
	case !merged.HTTPSEnabled && hadCert:
		// the plaintext vhost is already in place, so nginx no longer
		// references the certificate being revoked
		if err := r.certs.Revoke(ctx, merged.NewDomain); err != nil {
			log.Error("certificate revocation failed", slog.Any("error", err))
			return nil, err
		}
		log.Info("certificate revoked")
	}

	return &merged, nil
}

// Delete tears down the vhost and certificate before removing the row. The
// row goes last so a crash mid-sequence leaves it behind as the durable
// marker of incomplete cleanup.
func (r *Reconciler) Delete(ctx context.Context, id int64) error {
	const op = "reconciler.Delete"

	p, err := r.proxies.GetByID(ctx, id)
	if err != nil {
		return err
	}

	unlock := r.locks.Lock(p.NewDomain)
	defer unlock()

	p, err = r.proxies.GetByID(ctx, id)
	if err != nil {
		return err
	}

	log := r.opLogger("delete", p.NewDomain).With(slog.Int64("proxy_id", id))

	if err := r.publisher.Unpublish(ctx, p.NewDomain); err != nil {
		// stale files must not block certificate revocation; the retained
		// row records the inconsistency
		log.Error("unpublish failed, continuing teardown", slog.Any("error", err))
	}

	if p.HTTPSEnabled {
		if err := r.certs.Revoke(ctx, p.NewDomain); err != nil {
			log.Error("certificate revocation failed, row retained", slog.Any("error", err))
			return err
		}
		log.Info("certificate revoked")
	}

	if err := r.proxies.Delete(ctx, id); err != nil {
		return domain.E(domain.KindPersistence, op, "deleting proxy row", err)
	}
	log.Info("proxy deleted")
	return nil
}

func (r *Reconciler) opLogger(opName, domainName string) *slog.Logger {
	return r.logger.With(
		slog.String("trace_id", uuid.NewString()),
		slog.String("op", opName),
		slog.String("domain", domainName),
	)
}
