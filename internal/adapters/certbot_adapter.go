package adapters

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"proxyd/internal/core/domain"
)

// CertbotClient obtains and revokes certificates by shelling out to
// certbot with its nginx plugin. Calls block until certbot exits; a
// non-zero exit surfaces the captured diagnostic output.
type CertbotClient struct {
	bin    string
	email  string
	runner CommandRunner
	logger *slog.Logger
}

func NewCertbotClient(bin, email string, runner CommandRunner, logger *slog.Logger) *CertbotClient {
	if bin == "" {
		bin = "/usr/bin/certbot"
	}
	return &CertbotClient{bin: bin, email: email, runner: runner, logger: logger}
}

func (c *CertbotClient) Obtain(ctx context.Context, domainName string) error {
	const op = "certbot.Obtain"
	c.logger.Info("requesting certificate", slog.String("domain", domainName))

	out, err := c.runner.Run(ctx, c.bin,
		"certonly", "--nginx",
		"-d", domainName,
		"--non-interactive", "--agree-tos",
		"--email", c.email,
	)
	if err != nil {
		return domain.E(domain.KindCertIssuance, op,
			fmt.Sprintf("certbot failed for %s: %s", domainName, strings.TrimSpace(out)), err)
	}
	return nil
}

func (c *CertbotClient) Revoke(ctx context.Context, domainName string) error {
	const op = "certbot.Revoke"
	c.logger.Info("revoking certificate", slog.String("domain", domainName))

	// certbot itself rejects revocation of an unknown cert-name; no
	// existence pre-check happens here
	out, err := c.runner.Run(ctx, c.bin,
		"revoke",
		"--cert-name", domainName,
		"--non-interactive",
	)
	if err != nil {
		return domain.E(domain.KindCertRevocation, op,
			fmt.Sprintf("certbot failed for %s: %s", domainName, strings.TrimSpace(out)), err)
	}
	return nil
}
