package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// offsetRe matches a numeric UTC offset like "+02:00" or "-05:30".
var offsetRe = regexp.MustCompile(`^[+-]\d{2}:\d{2}$`)

// Config holds all service settings, populated once from environment
// variables at startup and passed by reference to every component.
type Config struct {
	// Traffic data API.
	APIURL        string        `envconfig:"TRAFIKKDATA_API" default:"https://trafikkdata-api.atlas.vegvesen.no/graphql"`
	ClientContact string        `envconfig:"X_CLIENT" default:"your.contact@company.no"`
	APITimeout    time.Duration `envconfig:"API_TIMEOUT" default:"60s"`

	// Object store (required).
	StorageAccount string `envconfig:"AZURE_STORAGE_ACCOUNT" required:"true"`
	Container      string `envconfig:"AZURE_CONTAINER" required:"true"`
	AccountKey     string `envconfig:"AZURE_ACCOUNT_KEY" required:"true"`

	// Frost weather API. An empty client id disables the rain stage.
	FrostClientID string        `envconfig:"FROST_CLIENT_ID"`
	FrostTimeout  time.Duration `envconfig:"FROST_TIMEOUT" default:"30s"`

	// Ingest window and throttling.
	BackfillStart Date    `envconfig:"BACKFILL_START" default:"2025-09-20"`
	VolumeFrom    string  `envconfig:"VOLUME_FROM"`
	VolumeTo      string  `envconfig:"VOLUME_TO"`
	TimeOffset    string  `envconfig:"TIME_OFFSET" default:"+02:00"`
	MaxPoints     int     `envconfig:"MAX_POINTS" default:"100"`
	SleepSecs     float64 `envconfig:"RATE_LIMIT_SLEEP_SECS" default:"0.1"`

	// Run-completion notification. Empty broker list disables the notifier.
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string   `envconfig:"KAFKA_COMPLETION_TOPIC" default:"bronze-ingest-runs"`

	// Operational endpoints and logging.
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"json"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// Date is a calendar date decoded from YYYY-MM-DD.
type Date struct {
	time.Time
}

// Decode implements envconfig.Decoder.
func (d *Date) Decode(value string) error {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return fmt.Errorf("invalid date %q (want YYYY-MM-DD)", value)
	}
	d.Time = t.UTC()
	return nil
}

// Load reads configuration from environment variables, applying defaults
// where unset. Missing required variables or invalid values fail here,
// before any other component runs.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	cfg.FrostClientID = strings.TrimSpace(cfg.FrostClientID)
	cfg.VolumeFrom = strings.TrimSpace(cfg.VolumeFrom)
	cfg.VolumeTo = strings.TrimSpace(cfg.VolumeTo)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.MaxPoints <= 0 {
		return errors.New("MAX_POINTS must be positive")
	}
	if c.SleepSecs < 0 {
		return errors.New("RATE_LIMIT_SLEEP_SECS must not be negative")
	}
	if !offsetRe.MatchString(c.TimeOffset) {
		return fmt.Errorf("invalid TIME_OFFSET %q (want e.g. +02:00)", c.TimeOffset)
	}
	if (c.VolumeFrom == "") != (c.VolumeTo == "") {
		return errors.New("VOLUME_FROM and VOLUME_TO must be set together")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

// RainEnabled reports whether the precipitation stage may run.
func (c *Config) RainEnabled() bool {
	return c.FrostClientID != ""
}

// NotifierEnabled reports whether run-completion events are published.
func (c *Config) NotifierEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// SleepBetweenPoints is the client-side rate-limit pause between sequential
// volume queries.
func (c *Config) SleepBetweenPoints() time.Duration {
	return time.Duration(c.SleepSecs * float64(time.Second))
}
