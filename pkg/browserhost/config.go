package browserhost

import (
	"errors"
	"time"
)

// Config holds the remote browser hosting credentials and client limits.
type Config struct {
	APIKey         string        `env:"BROWSER_HOST_API_KEY"`
	ProjectID      string        `env:"BROWSER_HOST_PROJECT_ID"`
	BaseURL        string        `env:"BROWSER_HOST_BASE_URL" envDefault:"https://api.browserbase.com"`
	RequestsPerSec float64       `env:"BROWSER_HOST_RPS" envDefault:"2"`
	Burst          int           `env:"BROWSER_HOST_BURST" envDefault:"4"`
	RequestTimeout time.Duration `env:"BROWSER_HOST_REQUEST_TIMEOUT" envDefault:"30s"`
	SessionTimeout time.Duration `env:"BROWSER_HOST_SESSION_TIMEOUT" envDefault:"10m"`
}

// Validate reports missing credentials.
func (c Config) Validate() error {
	var errs []error
	if c.APIKey == "" {
		errs = append(errs, ErrMissingAPIKey)
	}
	if c.ProjectID == "" {
		errs = append(errs, ErrMissingProjectID)
	}
	return errors.Join(errs...)
}
