package adapters

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proxyd/internal/core/domain"
)

type fakeRunner struct {
	calls [][]string
	out   string
	err   error
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return f.out, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAdapter(t *testing.T) (*NginxAdapter, string, string, *fakeRunner) {
	t.Helper()
	available := t.TempDir()
	enabled := t.TempDir()
	runner := &fakeRunner{}
	a := NewNginxAdapter(Renderer{}, available, enabled, nil, runner, discardLogger())
	return a, available, enabled, runner
}

func TestPublish_WritesConfigAndLink(t *testing.T) {
	a, available, enabled, runner := newTestAdapter(t)

	require.NoError(t, a.Publish(context.Background(), testProxy(), false))

	confPath := filepath.Join(available, "app.example.com.conf")
	content, err := os.ReadFile(confPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "proxy_pass http://10.0.0.5:8080;")

	linkPath := filepath.Join(enabled, "app.example.com.conf")
	info, err := os.Lstat(linkPath)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink, "enabled entry must be a symlink")

	target, err := os.Readlink(linkPath)
	require.NoError(t, err)
	assert.Equal(t, confPath, target)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"nginx", "-s", "reload"}, runner.calls[0])
}

func TestPublish_Idempotent(t *testing.T) {
	a, available, enabled, _ := newTestAdapter(t)

	require.NoError(t, a.Publish(context.Background(), testProxy(), false))
	first, err := os.ReadFile(filepath.Join(available, "app.example.com.conf"))
	require.NoError(t, err)

	// second publish must replace, not fail on, the existing link
	require.NoError(t, a.Publish(context.Background(), testProxy(), false))
	second, err := os.ReadFile(filepath.Join(available, "app.example.com.conf"))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))

	entries, err := os.ReadDir(enabled)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "exactly one enabled reference per domain")
}

func TestPublish_ReplacesStaleLink(t *testing.T) {
	a, available, enabled, _ := newTestAdapter(t)

	// a dangling link left behind by a failed delete
	stale := filepath.Join(enabled, "app.example.com.conf")
	require.NoError(t, os.Symlink(filepath.Join(available, "gone.conf"), stale))

	require.NoError(t, a.Publish(context.Background(), testProxy(), false))

	target, err := os.Readlink(stale)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(available, "app.example.com.conf"), target)
}

func TestPublish_WriteFailure(t *testing.T) {
	enabled := t.TempDir()
	runner := &fakeRunner{}
	a := NewNginxAdapter(Renderer{}, filepath.Join(t.TempDir(), "missing"), enabled, nil, runner, discardLogger())

	err := a.Publish(context.Background(), testProxy(), false)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindConfigWrite), "expected config write error, got %v", err)
	assert.Empty(t, runner.calls, "no reload after a failed write")
}

func TestUnpublish_RemovesBoth(t *testing.T) {
	a, available, enabled, runner := newTestAdapter(t)

	require.NoError(t, a.Publish(context.Background(), testProxy(), false))
	require.NoError(t, a.Unpublish(context.Background(), "app.example.com"))

	for _, dir := range []string{available, enabled} {
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries, "publish followed by unpublish must leave %s empty", dir)
	}

	assert.Len(t, runner.calls, 2, "unpublish reloads even after removing files")
}

func TestUnpublish_AbsentIsNoError(t *testing.T) {
	a, _, _, runner := newTestAdapter(t)

	require.NoError(t, a.Unpublish(context.Background(), "never.published.example.com"))
	assert.Len(t, runner.calls, 1, "reload still runs")
}

func TestUpdate_RewritesConfig(t *testing.T) {
	a, available, enabled, _ := newTestAdapter(t)

	require.NoError(t, a.Publish(context.Background(), testProxy(), false))

	changed := testProxy()
	changed.OldIP = "10.0.0.9"
	changed.OldPort = 9090
	require.NoError(t, a.Update(context.Background(), changed, false))

	content, err := os.ReadFile(filepath.Join(available, "app.example.com.conf"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "proxy_pass http://10.0.0.9:9090;")
	assert.NotContains(t, string(content), "10.0.0.5")

	entries, err := os.ReadDir(enabled)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestPublish_ReloadFailureSwallowed(t *testing.T) {
	available := t.TempDir()
	enabled := t.TempDir()
	runner := &fakeRunner{out: "nginx: [error] invalid PID", err: errors.New("exit status 1")}
	a := NewNginxAdapter(Renderer{}, available, enabled, nil, runner, discardLogger())

	// the daemon keeps serving the old config; file-level changes stand
	require.NoError(t, a.Publish(context.Background(), testProxy(), false))

	_, err := os.Stat(filepath.Join(available, "app.example.com.conf"))
	assert.NoError(t, err)
}
