package adapters

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"proxyd/internal/core/domain"
)

// NginxAdapter materializes vhost files under the sites-available directory
// and activates them with symlinks in sites-enabled, Debian nginx layout.
// It exclusively owns both directories for the domains it manages.
type NginxAdapter struct {
	renderer     Renderer
	availableDir string
	enabledDir   string
	reloadCmd    []string
	runner       CommandRunner
	logger       *slog.Logger
}

func NewNginxAdapter(
	renderer Renderer,
	availableDir, enabledDir string,
	reloadCmd []string,
	runner CommandRunner,
	logger *slog.Logger,
) *NginxAdapter {
	if len(reloadCmd) == 0 {
		reloadCmd = []string{"nginx", "-s", "reload"}
	}
	return &NginxAdapter{
		renderer:     renderer,
		availableDir: availableDir,
		enabledDir:   enabledDir,
		reloadCmd:    reloadCmd,
		runner:       runner,
		logger:       logger,
	}
}

func (a *NginxAdapter) confPaths(domainName string) (available, enabled string) {
	name := domainName + ".conf"
	return filepath.Join(a.availableDir, name), filepath.Join(a.enabledDir, name)
}

// Publish renders the vhost, writes it to sites-available, links it into
// sites-enabled, and triggers a reload. A stale enabled link left behind by
// a failed delete is replaced, so re-publish is idempotent.
func (a *NginxAdapter) Publish(ctx context.Context, p *domain.Proxy, includeTLS bool) error {
	const op = "nginx.Publish"

	text, err := a.renderer.Render(p, includeTLS)
	if err != nil {
		return domain.E(domain.KindConfigWrite, op, "rendering vhost for "+p.NewDomain, err)
	}

	available, enabled := a.confPaths(p.NewDomain)
	if err := os.WriteFile(available, []byte(text), 0o644); err != nil {
		return domain.E(domain.KindConfigWrite, op, "writing "+available, err)
	}

	if err := os.Remove(enabled); err != nil && !os.IsNotExist(err) {
		return domain.E(domain.KindActivation, op, "clearing stale link "+enabled, err)
	}
	if err := os.Symlink(available, enabled); err != nil {
		return domain.E(domain.KindActivation, op, "linking "+enabled, err)
	}

	a.reload(ctx, p.NewDomain)
	return nil
}

// Unpublish removes the enabled link and the available file. Absence of
// either is not an error; the reload runs regardless so the daemon drops
// anything that was removed.
func (a *NginxAdapter) Unpublish(ctx context.Context, domainName string) error {
	const op = "nginx.Unpublish"

	available, enabled := a.confPaths(domainName)
	for _, path := range []string{enabled, available} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return domain.E(domain.KindConfigWrite, op, "removing "+path, err)
		}
	}

	a.reload(ctx, domainName)
	return nil
}

// Update is unpublish-then-publish with the new data; vhost files are
// never diffed in place.
func (a *NginxAdapter) Update(ctx context.Context, p *domain.Proxy, includeTLS bool) error {
	if err := a.Unpublish(ctx, p.NewDomain); err != nil {
		return err
	}
	return a.Publish(ctx, p, includeTLS)
}

// reload is best-effort: nginx keeps serving the previous configuration
// until the next successful reload, so failures are logged, not surfaced.
func (a *NginxAdapter) reload(ctx context.Context, domainName string) {
	out, err := a.runner.Run(ctx, a.reloadCmd[0], a.reloadCmd[1:]...)
	if err != nil {
		a.logger.Error("nginx reload failed",
			slog.String("domain", domainName),
			slog.String("output", out),
			slog.Any("error", err),
		)
	}
}
