package adapters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proxyd/internal/core/domain"
)

func testProxy() *domain.Proxy {
	return &domain.Proxy{
		ID:        1,
		OldIP:     "10.0.0.5",
		OldPort:   8080,
		NewDomain: "app.example.com",
		IsActive:  true,
	}
}

func TestRender_PlaintextBlock(t *testing.T) {
	text, err := Renderer{}.Render(testProxy(), false)
	require.NoError(t, err)

	assert.Contains(t, text, "listen 80;")
	assert.Contains(t, text, "server_name app.example.com;")
	assert.Contains(t, text, "proxy_pass http://10.0.0.5:8080;")
	assert.Contains(t, text, "proxy_set_header Host $host;")
	assert.Contains(t, text, "proxy_set_header X-Real-IP $remote_addr;")
	assert.Contains(t, text, "proxy_set_header X-Forwarded-For $proxy_add_x_forwarded_for;")
	assert.Contains(t, text, "proxy_set_header X-Forwarded-Proto $scheme;")

	assert.NotContains(t, text, "listen 443")
	assert.NotContains(t, text, "acme-challenge")
}

func TestRender_Deterministic(t *testing.T) {
	r := Renderer{}
	first, err := r.Render(testProxy(), false)
	require.NoError(t, err)
	second, err := r.Render(testProxy(), false)
	require.NoError(t, err)

	assert.Equal(t, first, second, "unchanged proxy must render byte-identical text")
}

func TestRender_DistinctUpstreams(t *testing.T) {
	r := Renderer{}
	a, err := r.Render(testProxy(), false)
	require.NoError(t, err)

	other := testProxy()
	other.OldPort = 9090
	b, err := r.Render(other, false)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestRender_TLSBlock(t *testing.T) {
	text, err := Renderer{}.Render(testProxy(), true)
	require.NoError(t, err)

	assert.Contains(t, text, "listen 80;", "plaintext block is always emitted")
	assert.Contains(t, text, "listen 443 ssl;")
	assert.Contains(t, text, "ssl_certificate /etc/letsencrypt/live/app.example.com/fullchain.pem;")
	assert.Contains(t, text, "ssl_certificate_key /etc/letsencrypt/live/app.example.com/privkey.pem;")
}

func TestRender_CustomCertDir(t *testing.T) {
	text, err := Renderer{CertDir: "/var/lib/proxyd/certs"}.Render(testProxy(), true)
	require.NoError(t, err)

	assert.Contains(t, text, "ssl_certificate /var/lib/proxyd/certs/app.example.com/fullchain.pem;")
}

func TestRender_ChallengeLocation(t *testing.T) {
	text, err := Renderer{ChallengeRoot: "/var/www/acme"}.Render(testProxy(), false)
	require.NoError(t, err)

	assert.Contains(t, text, "location /.well-known/acme-challenge/ {")
	assert.Contains(t, text, "root /var/www/acme;")
}
