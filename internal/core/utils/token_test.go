package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAPIKeyToken(t *testing.T) {
	token, err := NewAPIKeyToken()
	require.NoError(t, err)

	// 32 bytes of base64url without padding
	assert.Len(t, token, 43)
	assert.False(t, strings.ContainsAny(token, "+/="), "token must be URL-safe: %s", token)

	other, err := NewAPIKeyToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}
