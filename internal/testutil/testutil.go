package testutil

import (
	"infinity-mcp/internal/models"
)

// MockConfig creates a mock configuration for testing without requiring
// real credentials.
func MockConfig(baseURL string) models.Config {
	return models.Config{
		BaseURL:          baseURL,
		ClientID:         "test-client-id",
		AccessKey:        "test-access-key",
		Port:             "8080",
		RequestRateLimit: 100,
		RequestRateBurst: 10,
	}
}
