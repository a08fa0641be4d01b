package models

import "github.com/go-playground/validator/v10"

// Config holds the server configuration parameters
type Config struct {
	// Infinity Portal connection settings
	BaseURL   string `validate:"required,url"` // API gateway URL
	ClientID  string // API client ID; may be supplied per tool call instead
	AccessKey string // API access key; may be supplied per tool call instead

	// HTTP transport settings (used with --http)
	HTTPMode bool
	Host     string
	Port     string `validate:"required"`

	// Debug enables request logging on the outbound HTTP client
	Debug bool

	// Rate limiting configuration
	RequestRateLimit float64 `validate:"gt=0"`  // Maximum requests per second
	RequestRateBurst int     `validate:"gte=1"` // Maximum burst capacity for requests
}

// Validate checks the structural constraints on the configuration.
// Credentials are intentionally not required here: callers may provide
// them per tool call.
func (c Config) Validate() error {
	return validator.New().Struct(c)
}
