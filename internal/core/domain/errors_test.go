package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	base := E(KindConfigWrite, "nginx.Publish", "writing vhost", errors.New("permission denied"))

	assert.Equal(t, KindConfigWrite, KindOf(base))
	assert.Equal(t, KindConfigWrite, KindOf(fmt.Errorf("create: %w", base)))
	assert.Equal(t, KindUnexpected, KindOf(errors.New("plain")))

	assert.True(t, IsKind(base, KindConfigWrite))
	assert.False(t, IsKind(base, KindNotFound))
	assert.False(t, IsKind(nil, KindNotFound))
}

func TestErrorMessage(t *testing.T) {
	err := E(KindCertIssuance, "certbot.Obtain", "certbot failed for app.example.com", errors.New("DNS problem"))
	assert.Contains(t, err.Error(), "certbot.Obtain")
	assert.Contains(t, err.Error(), "certbot failed for app.example.com")
	assert.Contains(t, err.Error(), "DNS problem")
	assert.ErrorContains(t, err, "DNS problem")
}

func TestPatchApply(t *testing.T) {
	p := Proxy{OldIP: "10.0.0.5", OldPort: 8080, NewDomain: "app.example.com", HTTPSEnabled: false, IsActive: true}

	enabled := true
	port := 9090
	ProxyPatch{HTTPSEnabled: &enabled, OldPort: &port}.Apply(&p)

	assert.Equal(t, "10.0.0.5", p.OldIP)
	assert.Equal(t, 9090, p.OldPort)
	assert.Equal(t, "app.example.com", p.NewDomain)
	assert.True(t, p.HTTPSEnabled)
	assert.True(t, p.IsActive)
}
