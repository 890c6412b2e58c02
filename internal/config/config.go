// Package config defines econ-calendar configuration and how it is loaded.
//
// Values are layered from built-in defaults, an optional YAML file and
// ECONCAL_-prefixed environment variables. Command-line flags are applied on
// top by the cli package.
package config

import (
	"fmt"
	"time"

	"github.com/pfrederiksen/econ-calendar/internal/partition"
	"github.com/pfrederiksen/econ-calendar/internal/registry"
	"github.com/pfrederiksen/econ-calendar/internal/scraper"
	"github.com/pfrederiksen/econ-calendar/internal/session"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// CalendarURL is the page the browser visits to obtain session cookies.
	CalendarURL string `koanf:"calendar_url"`
	// EndpointURL is the calendar filter endpoint that returns table fragments.
	EndpointURL string `koanf:"endpoint_url"`

	// SessionTTL bounds how long harvested cookies are reused.
	SessionTTL time.Duration `koanf:"session_ttl"`
	Headless   bool          `koanf:"headless"`
	UserAgent  string        `koanf:"user_agent"`

	DaysPerChunk int `koanf:"days_per_chunk"`
	RowCapHint   int `koanf:"row_cap_hint"`

	// DelayMin and DelayMax bound the randomised pause between chunk requests.
	DelayMin time.Duration `koanf:"delay_min"`
	DelayMax time.Duration `koanf:"delay_max"`

	MaxAttempts    int           `koanf:"max_attempts"`
	BackoffInitial time.Duration `koanf:"backoff_initial"`
	BackoffMax     time.Duration `koanf:"backoff_max"`
	RequestTimeout time.Duration `koanf:"request_timeout"`

	TimezoneID int      `koanf:"timezone_id"`
	TimeFilter string   `koanf:"time_filter"`
	Countries  []int    `koanf:"countries"`
	Categories []string `koanf:"categories"`
	Importance []int    `koanf:"importance"`

	// FallbackMode selects when the holiday extractor runs: empty or always.
	FallbackMode string `koanf:"fallback_mode"`

	// DataDir holds the snapshot used for new-event detection.
	DataDir string `koanf:"data_dir"`
	// MetricsFile, when set, receives a Prometheus textfile after each run.
	MetricsFile string `koanf:"metrics_file"`
	// OTLPEndpoint enables trace export when set.
	OTLPEndpoint string `koanf:"otlp_endpoint"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		CalendarURL:    session.CalendarURL,
		EndpointURL:    scraper.EndpointURL,
		SessionTTL:     session.DefaultTTL,
		Headless:       true,
		UserAgent:      session.DefaultUserAgent,
		DaysPerChunk:   partition.DefaultDaysPerChunk,
		RowCapHint:     partition.DefaultRowCapHint,
		DelayMin:       1 * time.Second,
		DelayMax:       3 * time.Second,
		MaxAttempts:    3,
		BackoffInitial: 2 * time.Second,
		BackoffMax:     30 * time.Second,
		RequestTimeout: scraper.Timeout,
		TimezoneID:     registry.DefaultTimezoneID,
		TimeFilter:     scraper.DefaultTimeFilter,
		Importance:     []int{1, 2, 3},
		FallbackMode:   string(scraper.FallbackWhenEmpty),
		DataDir:        "~/.local/share/econ-calendar",
	}
}

// Validate reports the first setting that cannot drive a run.
func (c *Config) Validate() error {
	switch {
	case c.DaysPerChunk <= 0:
		return fmt.Errorf("%w: days_per_chunk must be positive, got %d", ErrInvalidConfig, c.DaysPerChunk)
	case c.MaxAttempts <= 0:
		return fmt.Errorf("%w: max_attempts must be positive, got %d", ErrInvalidConfig, c.MaxAttempts)
	case c.DelayMin < 0 || c.DelayMax < 0:
		return fmt.Errorf("%w: delays must not be negative", ErrInvalidConfig)
	case c.DelayMin > c.DelayMax:
		return fmt.Errorf("%w: delay_min %s exceeds delay_max %s", ErrInvalidConfig, c.DelayMin, c.DelayMax)
	case c.BackoffInitial < 0 || c.BackoffMax < 0:
		return fmt.Errorf("%w: backoff durations must not be negative", ErrInvalidConfig)
	case c.RequestTimeout <= 0:
		return fmt.Errorf("%w: request_timeout must be positive", ErrInvalidConfig)
	}
	if _, ok := scraper.ParseFallbackMode(c.FallbackMode); !ok {
		return fmt.Errorf("%w: unknown fallback_mode %q", ErrInvalidConfig, c.FallbackMode)
	}
	if _, ok := registry.TimezoneName(c.TimezoneID); !ok {
		return fmt.Errorf("%w: unknown timezone_id %d", ErrInvalidConfig, c.TimezoneID)
	}
	for _, imp := range c.Importance {
		if imp < 1 || imp > 3 {
			return fmt.Errorf("%w: importance %d outside 1..3", ErrInvalidConfig, imp)
		}
	}
	return nil
}
