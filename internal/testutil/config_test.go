package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/guarzo/crosslist/internal/connector"
)

func TestGetTestToken(t *testing.T) {
	t.Setenv("TEST_VAR", "env-value")
	assert.Equal(t, "env-value", GetTestToken("TEST_VAR", "default-value"))
	assert.Equal(t, "default-value", GetTestToken("UNSET_VAR", "default-value"))
}

func TestIsTestMode(t *testing.T) {
	t.Setenv("TEST_MODE", "")
	assert.True(t, IsTestMode(), "defaults to true")

	t.Setenv("TEST_MODE", "true")
	assert.True(t, IsTestMode())

	t.Setenv("TEST_MODE", "false")
	assert.False(t, IsTestMode())
}

func TestTestCredentials(t *testing.T) {
	t.Setenv(TestEtsyAPIKey, "custom-key")

	creds := TestCredentials()
	assert.True(t, creds.Credentials(connector.PlatformEbay).Has("client_id", "client_secret"))
	assert.Equal(t, "custom-key", creds.Credentials(connector.PlatformEtsy).Get("api_key"))
	assert.Nil(t, creds.Credentials(connector.PlatformDepop))
}

func TestGetTestBaseURL(t *testing.T) {
	tests := []struct {
		platform string
		expected string
	}{
		{"ebay", "https://api.ebay.test"},
		{"etsy", "https://openapi.etsy.test"},
		{"depop", "https://www.depop.test"},
		{"unknown", "https://api.test.local"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, GetTestBaseURL(tt.platform), tt.platform)
	}
}
