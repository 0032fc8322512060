package server

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Config holds configuration for the console HTTP server.
type Config struct {
	// Host is the interface the console listens on.
	Host string `mapstructure:"host" default:"127.0.0.1"`
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the console API. Empty disables the check.
	ApiKey string `mapstructure:"api_key" default:""`
	// RequestTimeoutSeconds bounds each console request, including its remote round trip.
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds" default:"30"`
	// RefreshSchedule is the cron spec for re-fetching the inventory while the console
	// runs (e.g. "@every 1m"). Empty disables background refreshes.
	RefreshSchedule string `mapstructure:"refresh_schedule" default:"@every 1m"`
}

// Address returns the listen address.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// RequestTimeout returns the per-request timeout, defaulting to 30 seconds.
func (c Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// ValidateSchedule parses RefreshSchedule with the standard cron parser.
func (c Config) ValidateSchedule() error {
	if c.RefreshSchedule == "" {
		return nil
	}
	if _, err := cron.ParseStandard(c.RefreshSchedule); err != nil {
		return fmt.Errorf("server.refresh_schedule %q: %w", c.RefreshSchedule, err)
	}
	return nil
}
