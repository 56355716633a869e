// Package config loads configuration for the domain-lead-pipeline services from
// an optional YAML file, then layers environment variables on top.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/5n10/domain-lead-pipeline/internal/logging"
)

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Host string `yaml:"host" env:"SERVER_HOST"`
	Port int    `yaml:"port" env:"SERVER_PORT"`
}

// DatabaseConfig controls persistence.
type DatabaseConfig struct {
	DSN             string `yaml:"dsn" env:"DATABASE_DSN"`
	MaxOpenConns    int    `yaml:"max_open_conns" env:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int    `yaml:"max_idle_conns" env:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime_seconds" env:"DATABASE_CONN_MAX_LIFETIME"`
	MigrateOnStart  bool   `yaml:"migrate_on_start" env:"DATABASE_MIGRATE_ON_START"`
}

// AuthConfig controls the single API-key gate every mutating request passes through.
type AuthConfig struct {
	APIKey          string `yaml:"api_key" env:"AUTH_API_KEY"`
	BypassLoopback  bool   `yaml:"bypass_loopback" env:"AUTH_BYPASS_LOOPBACK"`
	HeaderName      string `yaml:"header_name" env:"AUTH_HEADER_NAME"`
}

// RDAPConfig controls the RDAP client.
type RDAPConfig struct {
	BaseURL string `yaml:"base_url" env:"RDAP_BASE_URL"`
}

// DNSConfig controls authoritative DNS resolution.
type DNSConfig struct {
	Timeout  time.Duration `yaml:"timeout" env:"DNS_TIMEOUT"`
	CheckWWW bool          `yaml:"check_www" env:"DNS_CHECK_WWW"`
}

// HTTPProbeConfig controls the multi-scheme HTTP(+TCP) probe.
type HTTPProbeConfig struct {
	UserAgent      string        `yaml:"user_agent" env:"HTTP_PROBE_USER_AGENT"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"HTTP_PROBE_CONNECT_TIMEOUT"`
	TotalTimeout   time.Duration `yaml:"total_timeout" env:"HTTP_PROBE_TOTAL_TIMEOUT"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes" env:"HTTP_PROBE_MAX_BODY_BYTES"`
	EnableTCP      bool          `yaml:"enable_tcp" env:"HTTP_PROBE_ENABLE_TCP"`
	TCPPorts       []int         `yaml:"tcp_ports"`
}

// VerifierConfig holds generic per-verifier pacing/batch limits, keyed by source.
type VerifierConfig struct {
	BatchSize       int           `yaml:"batch_size"`
	MinScore        int           `yaml:"min_score"`
	PacingInterval  time.Duration `yaml:"pacing_interval"`
	RateLimitStreak int           `yaml:"rate_limit_streak"`
}

// LLMProviderConfig names one OpenAI-compatible (or local model server)
// backend the LLM-over-search verifier can fall back through.
type LLMProviderConfig struct {
	Name     string `yaml:"name"`
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
}

// LLMConfig configures the LLM-over-search verifier's provider fallback order.
type LLMConfig struct {
	Primary  LLMProviderConfig `yaml:"primary"`
	Fallback LLMProviderConfig `yaml:"fallback"`
	Timeout  time.Duration     `yaml:"timeout" env:"LLM_TIMEOUT"`
}

// MetaSearchConfig points at the operator-provided SearXNG-shaped aggregator
// the meta-search and LLM-over-search verifiers both query.
type MetaSearchConfig struct {
	BaseURL string        `yaml:"base_url" env:"METASEARCH_BASE_URL"`
	Timeout time.Duration `yaml:"timeout" env:"METASEARCH_TIMEOUT"`
}

// PlaceProviderConfig is one place-search API's endpoint and key.
type PlaceProviderConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
}

// PlacesConfig configures the two place-search API verifiers.
type PlacesConfig struct {
	GooglePlaces PlaceProviderConfig `yaml:"google_places"`
	Foursquare   PlaceProviderConfig `yaml:"foursquare"`
	Timeout      time.Duration       `yaml:"timeout" env:"PLACES_TIMEOUT"`
}

// ChainsConfig points at the SPARQL endpoint the chain/franchise name set is
// loaded from.
type ChainsConfig struct {
	SPARQLEndpoint string `yaml:"sparql_endpoint" env:"CHAINS_SPARQL_ENDPOINT"`
}

// SchedulerConfig controls the pipeline and verification background loops.
type SchedulerConfig struct {
	PipelineIntervalSeconds   int `yaml:"pipeline_interval_seconds" env:"SCHEDULER_PIPELINE_INTERVAL_SECONDS"`
	PauseWhenIdleSeconds      int `yaml:"pause_when_idle_seconds" env:"SCHEDULER_PAUSE_WHEN_IDLE_SECONDS"`
	PauseBetweenBatchSeconds  int `yaml:"pause_between_batch_seconds" env:"SCHEDULER_PAUSE_BETWEEN_BATCH_SECONDS"`
	PipelineStopTimeout       time.Duration `yaml:"pipeline_stop_timeout" env:"SCHEDULER_PIPELINE_STOP_TIMEOUT"`
	VerificationStopTimeout   time.Duration `yaml:"verification_stop_timeout" env:"SCHEDULER_VERIFICATION_STOP_TIMEOUT"`
}

// ExportConfig controls the CSV exporter and daily-target engine.
type ExportConfig struct {
	OutputDir          string `yaml:"output_dir" env:"EXPORT_OUTPUT_DIR"`
	DailyTargetCount   int    `yaml:"daily_target_count" env:"EXPORT_DAILY_TARGET_COUNT"`
	DailyPlatformPrefix string `yaml:"daily_platform_prefix" env:"EXPORT_DAILY_PLATFORM_PREFIX"`
	// DailyTargetCronExpr is a standard five-field cron expression (minute
	// hour dom month dow) naming when the daily-target export loop fires.
	DailyTargetCronExpr string `yaml:"daily_target_cron" env:"EXPORT_DAILY_TARGET_CRON"`
	AllowRecycling     bool   `yaml:"allow_recycling" env:"EXPORT_ALLOW_RECYCLING"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Logging   logging.Config  `yaml:"logging"`
	Auth      AuthConfig      `yaml:"auth"`
	RDAP      RDAPConfig      `yaml:"rdap"`
	DNS       DNSConfig       `yaml:"dns"`
	HTTPProbe HTTPProbeConfig `yaml:"http_probe"`
	Verifiers  map[string]VerifierConfig `yaml:"verifiers"`
	LLM        LLMConfig        `yaml:"llm"`
	MetaSearch MetaSearchConfig `yaml:"metasearch"`
	Places     PlacesConfig     `yaml:"places"`
	Chains     ChainsConfig     `yaml:"chains"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Export     ExportConfig     `yaml:"export"`
}

// New returns a configuration populated with the defaults this system ships with.
func New() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 3600,
			MigrateOnStart:  true,
		},
		Logging: logging.Config{Level: "info", Format: "text", Output: "stdout", FilePrefix: "domain-lead-pipeline"},
		Auth:    AuthConfig{HeaderName: "X-API-Key", BypassLoopback: true},
		RDAP:    RDAPConfig{BaseURL: "https://rdap.org/domain"},
		DNS:     DNSConfig{Timeout: 5 * time.Second, CheckWWW: true},
		HTTPProbe: HTTPProbeConfig{
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
			ConnectTimeout: 2 * time.Second,
			TotalTimeout:   10 * time.Second,
			MaxBodyBytes:   200 * 1024,
			TCPPorts:       []int{80, 443},
		},
		Verifiers: map[string]VerifierConfig{
			"domain_guess": {BatchSize: 25, PacingInterval: 0, RateLimitStreak: 3},
			"searxng":      {BatchSize: 25, PacingInterval: 300 * time.Millisecond, RateLimitStreak: 3},
			"llm":          {BatchSize: 10, PacingInterval: 0, RateLimitStreak: 3},
			"ddg":          {BatchSize: 25, PacingInterval: 1500 * time.Millisecond, RateLimitStreak: 3},
			"google_search": {BatchSize: 15, PacingInterval: 4 * time.Second, RateLimitStreak: 3},
			"google_places": {BatchSize: 25, PacingInterval: 150 * time.Millisecond, RateLimitStreak: 3},
			"foursquare":   {BatchSize: 25, PacingInterval: 150 * time.Millisecond, RateLimitStreak: 3},
		},
		LLM: LLMConfig{
			Primary: LLMProviderConfig{Name: "openai", Model: "gpt-4o-mini"},
			Timeout: 30 * time.Second,
		},
		MetaSearch: MetaSearchConfig{
			BaseURL: "http://localhost:8888/search",
			Timeout: 10 * time.Second,
		},
		Places: PlacesConfig{
			GooglePlaces: PlaceProviderConfig{Endpoint: "https://places.googleapis.com/v1/places:searchText"},
			Foursquare:   PlaceProviderConfig{Endpoint: "https://api.foursquare.com/v3/places/search"},
			Timeout:      10 * time.Second,
		},
		Chains: ChainsConfig{SPARQLEndpoint: "https://query.wikidata.org/sparql"},
		Scheduler: SchedulerConfig{
			PipelineIntervalSeconds:  900,
			PauseWhenIdleSeconds:     60,
			PauseBetweenBatchSeconds: 5,
			PipelineStopTimeout:      30 * time.Second,
			VerificationStopTimeout:  60 * time.Second,
		},
		Export: ExportConfig{
			OutputDir:           "exports",
			DailyTargetCount:    100,
			DailyPlatformPrefix: "daily",
			DailyTargetCronExpr: "0 3 * * *",
			AllowRecycling:      true,
		},
	}
}

// Load loads configuration from an optional YAML file then applies environment overrides.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := New()

	path := strings.TrimSpace(os.Getenv("CONFIG_FILE"))
	if path == "" {
		path = "configs/config.yaml"
	}
	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}

	if err := envdecode.Decode(cfg); err != nil && err != envdecode.ErrNoTargetFieldsAreSet {
		return nil, fmt.Errorf("decode env: %w", err)
	}

	if dsn := strings.TrimSpace(os.Getenv("DATABASE_URL")); dsn != "" {
		cfg.Database.DSN = dsn
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// ConnMaxLifetimeDuration returns the configured connection lifetime as a duration.
func (d DatabaseConfig) ConnMaxLifetimeDuration() time.Duration {
	if d.ConnMaxLifetime <= 0 {
		return time.Hour
	}
	return time.Duration(d.ConnMaxLifetime) * time.Second
}
