package adapters

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-acme/lego/v4/certificate"
	"github.com/go-acme/lego/v4/challenge/http01"
	"github.com/go-acme/lego/v4/lego"
	"github.com/go-acme/lego/v4/registration"

	"proxyd/internal/core/domain"
)

type acmeUser struct {
	email        string
	registration *registration.Resource
	key          crypto.PrivateKey
}

func (u *acmeUser) GetEmail() string                        { return u.email }
func (u *acmeUser) GetRegistration() *registration.Resource { return u.registration }
func (u *acmeUser) GetPrivateKey() crypto.PrivateKey        { return u.key }

// webrootProvider satisfies the lego HTTP-01 challenge interface by writing
// token files under the webroot that the published vhost serves for
// /.well-known/acme-challenge/.
type webrootProvider struct {
	root string
}

func (p webrootProvider) Present(domainName, token, keyAuth string) error {
	path := filepath.Join(p.root, http01.ChallengePath(token))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating challenge directory: %w", err)
	}
	return os.WriteFile(path, []byte(keyAuth), 0o644)
}

func (p webrootProvider) CleanUp(domainName, token, keyAuth string) error {
	return os.Remove(filepath.Join(p.root, http01.ChallengePath(token)))
}

// AcmeManager is the built-in alternative to shelling out to certbot: it
// speaks ACME directly and stores the issued material in the certbot live
// layout so the rendered TLS server blocks work unchanged.
type AcmeManager struct {
	email         string
	directoryURL  string
	challengeRoot string
	certDir       string
	logger        *slog.Logger

	mu     sync.Mutex
	client *lego.Client
}

func NewAcmeManager(email, directoryURL, challengeRoot, certDir string, logger *slog.Logger) *AcmeManager {
	return &AcmeManager{
		email:         email,
		directoryURL:  directoryURL,
		challengeRoot: challengeRoot,
		certDir:       certDir,
		logger:        logger,
	}
}

// acmeClient lazily registers the ACME account on first use and reuses the
// client afterwards.
func (m *AcmeManager) acmeClient() (*lego.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil {
		return m.client, nil
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating account key: %w", err)
	}
	user := &acmeUser{email: m.email, key: key}

	cfg := lego.NewConfig(user)
	if m.directoryURL != "" {
		cfg.CADirURL = m.directoryURL
	}

	client, err := lego.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating lego client: %w", err)
	}
	if err := client.Challenge.SetHTTP01Provider(webrootProvider{root: m.challengeRoot}); err != nil {
		return nil, fmt.Errorf("setting http-01 provider: %w", err)
	}

	reg, err := client.Registration.Register(registration.RegisterOptions{TermsOfServiceAgreed: true})
	if err != nil {
		return nil, fmt.Errorf("registering ACME account: %w", err)
	}
	user.registration = reg

	m.client = client
	return client, nil
}

func (m *AcmeManager) domainDir(domainName string) string {
	return filepath.Join(m.certDir, domainName)
}

func (m *AcmeManager) Obtain(ctx context.Context, domainName string) error {
	const op = "acme.Obtain"
	m.logger.Info("requesting certificate", slog.String("domain", domainName))

	client, err := m.acmeClient()
	if err != nil {
		return domain.E(domain.KindCertIssuance, op, "initializing ACME client", err)
	}

	certs, err := client.Certificate.Obtain(certificate.ObtainRequest{
		Domains: []string{domainName},
		Bundle:  true,
	})
	if err != nil {
		return domain.E(domain.KindCertIssuance, op, "obtaining certificate for "+domainName, err)
	}

	dir := m.domainDir(domainName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return domain.E(domain.KindCertIssuance, op, "creating "+dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, "fullchain.pem"), certs.Certificate, 0o644); err != nil {
		return domain.E(domain.KindCertIssuance, op, "storing certificate chain", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "privkey.pem"), certs.PrivateKey, 0o600); err != nil {
		return domain.E(domain.KindCertIssuance, op, "storing private key", err)
	}

	m.logger.Info("certificate obtained", slog.String("domain", domainName))
	return nil
}

func (m *AcmeManager) Revoke(ctx context.Context, domainName string) error {
	const op = "acme.Revoke"

	chain, err := os.ReadFile(filepath.Join(m.domainDir(domainName), "fullchain.pem"))
	if err != nil {
		// no stored certificate: revoking the unknown is an error, matching
		// the CA client contract
		return domain.E(domain.KindCertRevocation, op, "no certificate on record for "+domainName, err)
	}

	client, err := m.acmeClient()
	if err != nil {
		return domain.E(domain.KindCertRevocation, op, "initializing ACME client", err)
	}
	if err := client.Certificate.Revoke(chain); err != nil {
		return domain.E(domain.KindCertRevocation, op, "revoking certificate for "+domainName, err)
	}
	if err := os.RemoveAll(m.domainDir(domainName)); err != nil {
		return domain.E(domain.KindCertRevocation, op, "removing stored certificate", err)
	}

	m.logger.Info("certificate revoked", slog.String("domain", domainName))
	return nil
}
