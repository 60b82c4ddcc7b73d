// Package config loads the application settings: a YAML file, then .env and process
// environment overrides. Every field has a working default, so a missing file is fine.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"fre_viewer/pkg/core/agent"
	"fre_viewer/pkg/core/catalog"
	"fre_viewer/pkg/core/ingest"
	"fre_viewer/pkg/core/portal"
)

// DefaultPath is read when FRE_CONFIG is unset.
const DefaultPath = "config/fre.yaml"

// Summarizer backends selectable with summary.backend.
const (
	BackendNone       = "none"
	BackendExtractive = "extractive"
	BackendLLM        = "llm"
)

type Config struct {
	Catalog     CatalogConfig `yaml:"catalog"`
	Portal      PortalConfig  `yaml:"portal"`
	Summary     SummaryConfig `yaml:"summary"`
	Server      ServerConfig  `yaml:"server"`
	DatabaseURL string        `yaml:"database_url"`
}

type CatalogConfig struct {
	URL                  string `yaml:"url"`
	Member               string `yaml:"member"`
	Encoding             string `yaml:"encoding"`
	Delimiter            string `yaml:"delimiter"`
	EnrichmentURL        string `yaml:"enrichment_url"`
	EnrichmentMember     string `yaml:"enrichment_member"`
	EnrichmentNameColumn string `yaml:"enrichment_name_column"`
}

type PortalConfig struct {
	Sections       portal.SectionTable `yaml:"sections"`
	ContentFieldID string              `yaml:"content_field_id"`
	Timeout        string              `yaml:"timeout"` // Go duration, e.g. "30s"
	UserAgent      string              `yaml:"user_agent"`
	RateLimit      float64             `yaml:"rate_limit"` // requests per second, 0 = unlimited
	RateBurst      int                 `yaml:"rate_burst"`
}

type SummaryConfig struct {
	Backend    string       `yaml:"backend"` // none | extractive | llm
	Sentences  int          `yaml:"sentences"`
	MaxChars   int          `yaml:"max_chars"`
	PromptsDir string       `yaml:"prompts_dir"`
	CacheDir   string       `yaml:"cache_dir"`
	LLM        agent.Config `yaml:"llm"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Catalog: CatalogConfig{
			URL:       catalog.DefaultSourceURL,
			Encoding:  "latin1",
			Delimiter: ";",
		},
		Portal: PortalConfig{
			Sections:       portal.DefaultSectionTable(),
			ContentFieldID: portal.DefaultContentFieldID,
			Timeout:        ingest.DefaultTimeout.String(),
			UserAgent:      ingest.UserAgent,
		},
		Summary: SummaryConfig{
			Backend:    BackendExtractive,
			Sentences:  5,
			PromptsDir: "resources",
			LLM:        agent.Config{ActiveProvider: "gemini"},
		},
		Server: ServerConfig{Port: "8080"},
	}
}

// Load reads .env (if present), the YAML file at path (FRE_CONFIG or DefaultPath when
// empty) and environment overrides, then validates the result.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[Config] Ignoring .env: %v", err)
	}

	if path == "" {
		path = os.Getenv("FRE_CONFIG")
	}
	explicit := path != ""
	if path == "" {
		path = DefaultPath
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		log.Printf("[Config] %s not found, using defaults", path)
	default:
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	setString(&c.Catalog.URL, "FRE_CATALOG_URL")
	setString(&c.Catalog.EnrichmentURL, "FRE_ENRICHMENT_URL")
	setString(&c.Portal.Timeout, "FRE_HTTP_TIMEOUT")
	setString(&c.Summary.Backend, "FRE_SUMMARY_BACKEND")
	setString(&c.Summary.LLM.ActiveProvider, "FRE_PROVIDER")
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.Server.Port, "PORT")
}

// fillDefaults restores zero values a partial YAML file may have left behind.
func (c *Config) fillDefaults() {
	def := Default()
	if c.Catalog.URL == "" {
		c.Catalog.URL = def.Catalog.URL
	}
	if c.Catalog.Delimiter == "" {
		c.Catalog.Delimiter = def.Catalog.Delimiter
	}
	if c.Portal.Sections.BaseURL == "" && len(c.Portal.Sections.Sections) == 0 {
		c.Portal.Sections = def.Portal.Sections
	}
	if c.Portal.Sections.BaseURL == "" {
		c.Portal.Sections.BaseURL = def.Portal.Sections.BaseURL
	}
	if c.Portal.Timeout == "" {
		c.Portal.Timeout = def.Portal.Timeout
	}
	if c.Summary.Backend == "" {
		c.Summary.Backend = def.Summary.Backend
	}
	if c.Server.Port == "" {
		c.Server.Port = def.Server.Port
	}
}

// Validate reports the first unusable setting.
func (c Config) Validate() error {
	if _, err := c.HTTPTimeout(); err != nil {
		return err
	}
	if _, err := c.CatalogDelimiter(); err != nil {
		return err
	}
	if err := c.Portal.Sections.Validate(); err != nil {
		return fmt.Errorf("portal.sections: %w", err)
	}
	switch c.Summary.Backend {
	case BackendNone, BackendExtractive, BackendLLM:
	default:
		return fmt.Errorf("summary.backend: unknown backend %q", c.Summary.Backend)
	}
	if c.Portal.RateLimit < 0 {
		return fmt.Errorf("portal.rate_limit must not be negative")
	}
	return nil
}

// HTTPTimeout parses portal.timeout. A bare number is taken as seconds.
func (c Config) HTTPTimeout() (time.Duration, error) {
	raw := strings.TrimSpace(c.Portal.Timeout)
	if secs, err := strconv.Atoi(raw); err == nil {
		raw = strconv.Itoa(secs) + "s"
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("portal.timeout: invalid duration %q", c.Portal.Timeout)
	}
	return d, nil
}

// CatalogDelimiter returns catalog.delimiter as a single rune.
func (c Config) CatalogDelimiter() (rune, error) {
	d := c.Catalog.Delimiter
	if d == `\t` {
		return '\t', nil
	}
	if utf8.RuneCountInString(d) != 1 {
		return 0, fmt.Errorf("catalog.delimiter: expected one character, got %q", d)
	}
	r, _ := utf8.DecodeRuneInString(d)
	return r, nil
}

// LoaderOptions converts the catalog section into catalog.Options.
func (c Config) LoaderOptions() catalog.Options {
	delim, _ := c.CatalogDelimiter()
	return catalog.Options{
		URL:                  c.Catalog.URL,
		Member:               c.Catalog.Member,
		Encoding:             c.Catalog.Encoding,
		Delimiter:            delim,
		EnrichmentURL:        c.Catalog.EnrichmentURL,
		EnrichmentMember:     c.Catalog.EnrichmentMember,
		EnrichmentNameColumn: c.Catalog.EnrichmentNameColumn,
	}
}

// ClientOptions converts the portal section into ingest client options.
func (c Config) ClientOptions() []ingest.ClientOption {
	timeout, _ := c.HTTPTimeout()
	opts := []ingest.ClientOption{
		ingest.WithTimeout(timeout),
		ingest.WithUserAgent(c.Portal.UserAgent),
	}
	if c.Portal.RateLimit > 0 {
		burst := c.Portal.RateBurst
		if burst <= 0 {
			burst = 1
		}
		opts = append(opts, ingest.WithRateLimit(c.Portal.RateLimit, burst))
	}
	return opts
}
