package client

// Config holds configuration for the remote inventory service.
type Config struct {
	// BaseURL is the root URL of the inventory service.
	BaseURL string `mapstructure:"base_url" default:"http://127.0.0.1:5000"`
	// TimeoutSeconds is the per-request timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"15"`
	// MaxRetries is the number of retries for idempotent reads.
	MaxRetries int `mapstructure:"max_retries" default:"3"`
	// RateLimit caps outgoing requests per second. Zero disables the limit.
	RateLimit float64 `mapstructure:"rate_limit" default:"20"`
	// Burst is the number of requests allowed above RateLimit at once.
	Burst int `mapstructure:"burst" default:"10"`
	// UserAgent is sent with every request.
	UserAgent string `mapstructure:"user_agent" default:"hardware-manager"`
}
