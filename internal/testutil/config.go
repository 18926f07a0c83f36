package testutil

import (
	"os"
	"strconv"

	"github.com/guarzo/crosslist/internal/connector"
)

const (
	// Test credential environment variables
	TestEbayClientID     = "TEST_EBAY_CLIENT_ID"
	TestEbayClientSecret = "TEST_EBAY_CLIENT_SECRET"
	TestEtsyAPIKey       = "TEST_ETSY_API_KEY"

	// Default test values when environment variables are not set
	DefaultTestToken = "test-token"
	DefaultTestKey   = "test-key"
)

// GetTestToken returns a test token from environment variable or default
func GetTestToken(envVar, defaultValue string) string {
	if token := os.Getenv(envVar); token != "" {
		return token
	}
	return defaultValue
}

// IsTestMode returns true if we're running in test mode
func IsTestMode() bool {
	testMode := os.Getenv("TEST_MODE")
	if testMode == "" {
		return true
	}

	enabled, _ := strconv.ParseBool(testMode)
	return enabled
}

// TestCredentials returns credentials for every platform that needs them
func TestCredentials() connector.StaticCredentials {
	return connector.StaticCredentials{
		connector.PlatformEbay: {
			"client_id":     GetTestToken(TestEbayClientID, DefaultTestKey),
			"client_secret": GetTestToken(TestEbayClientSecret, DefaultTestToken),
		},
		connector.PlatformEtsy: {
			"api_key": GetTestToken(TestEtsyAPIKey, DefaultTestKey),
		},
	}
}

// GetTestBaseURL returns a test base URL for the given platform
func GetTestBaseURL(platform string) string {
	switch platform {
	case "ebay":
		return "https://api.ebay.test"
	case "etsy":
		return "https://openapi.etsy.test"
	case "depop":
		return "https://www.depop.test"
	default:
		return "https://api.test.local"
	}
}
