// Package config loads and validates the YAML configuration recognized
// by cmd/lorch, grounded on the teacher's internal/config package: a
// single Config struct decoded with gopkg.in/yaml.v3's KnownFields
// strictness, environment-variable expansion, then defaults and
// validation applied in separate passes. The teacher's channel/plugin/
// skills/marketplace/RAG config sections have no SPEC_FULL.md component
// to bind to, so this package is a from-scratch struct for this domain
// rather than a trim of the original — see DESIGN.md.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for the case-orchestration
// service.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Auth         AuthConfig         `yaml:"auth"`
	LLM          LLMConfig          `yaml:"llm"`
	ObjectStore  ObjectStoreConfig  `yaml:"object_store"`
	Ticketing    TicketingConfig    `yaml:"ticketing"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
	Logging      LoggingConfig      `yaml:"logging"`
	Audit        AuditConfig        `yaml:"audit"`
	Tracing      TracingConfig      `yaml:"tracing"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host     string `yaml:"host"`
	HTTPPort int    `yaml:"http_port"`
}

// DatabaseConfig configures the Postgres/CockroachDB connection backing
// internal/storage and internal/billing.
type DatabaseConfig struct {
	URL             string        `yaml:"url"`
	MaxConnections  int           `yaml:"max_connections"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// AuthConfig configures the bearer/API-key auth collaborator.
type AuthConfig struct {
	JWTSecret   string         `yaml:"jwt_secret"`
	TokenExpiry time.Duration  `yaml:"token_expiry"`
	APIKeys     []APIKeyConfig `yaml:"api_keys"`
}

// APIKeyConfig maps one static API key to the end user it authenticates,
// mirrored from the teacher's AuthConfig.APIKeys shape.
type APIKeyConfig struct {
	Key    string `yaml:"key"`
	UserID string `yaml:"user_id"`
	Email  string `yaml:"email"`
	Name   string `yaml:"name"`
}

// LLMConfig configures the Assistant and Reasoner LLM clients.
type LLMConfig struct {
	Assistant LLMProviderConfig `yaml:"assistant"`
	Reasoner  LLMProviderConfig `yaml:"reasoner"`
}

// LLMProviderConfig is one provider's connection settings, mirrored from
// the teacher's LLMProviderConfig.
type LLMProviderConfig struct {
	Provider     string        `yaml:"provider"` // "anthropic" | "gemini"
	APIKey       string        `yaml:"api_key"`
	DefaultModel string        `yaml:"default_model"`
	BaseURL      string        `yaml:"base_url"`
	Timeout      time.Duration `yaml:"timeout"`
}

// ObjectStoreConfig configures internal/objectstore's local-disk+
// signed-URL backend.
type ObjectStoreConfig struct {
	BaseDir   string        `yaml:"base_dir"`
	PublicURL string        `yaml:"public_url"`
	HMACKey   string        `yaml:"hmac_key"`
	SignedTTL time.Duration `yaml:"signed_ttl"`
}

// TicketingConfig configures internal/ticketing's Slack-backed collaborator.
type TicketingConfig struct {
	SlackToken     string `yaml:"slack_token"`
	SlackChannelID string `yaml:"slack_channel_id"`
}

// OrchestratorConfig carries every tunable spec.md §6 names.
type OrchestratorConfig struct {
	MaxNodesPerRequest   int `yaml:"max_nodes_per_request"`
	DeadlineSlackSeconds int `yaml:"deadline_slack_seconds"`

	// ResearchSummaryLimit is a pointer so the default pass can tell an
	// unset field (nil — apply the default of 10) apart from a config file
	// that explicitly sets it to 0 (meaning: research must never call the
	// knowledge base; see internal/tools.ResearchQueryTool.Execute).
	ResearchSummaryLimit        *int `yaml:"research_summary_limit"`
	ConsiderationPruneThreshold int  `yaml:"consideration_prune_threshold"`
	AssistantContextBudgetBytes int `yaml:"assistant_context_budget_bytes"`
	RetryAttemptsTransient      int `yaml:"retry_attempts_transient"`

	// SupportedUserLanguages lists the languages the Assistant is allowed
	// to reply in; Romanian is always implicitly supported.
	SupportedUserLanguages []string `yaml:"supported_user_languages"`
}

// LoggingConfig configures the slog handler, mirrored from the teacher's
// LoggingConfig (level/format only — no sink fan-out in this service).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" | "text"
}

// AuditConfig configures the internal/audit operational telemetry logger
// wired into the Tool Registry's Executor, separate from the domain-data
// agent_interactions.log journal casestore.Adapter maintains.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`  // "debug" | "info" | "warn" | "error"
	Format  string `yaml:"format"` // "json" | "logfmt" | "text"
	Output  string `yaml:"output"` // "stdout" | "stderr" | "file:/path"
}

// TracingConfig configures internal/observability's OpenTelemetry tracer.
// An empty Endpoint yields a no-op tracer — tracing is opt-in.
type TracingConfig struct {
	Endpoint       string  `yaml:"endpoint"`
	SamplingRate   float64 `yaml:"sampling_rate"`
	Environment    string  `yaml:"environment"`
	EnableInsecure bool    `yaml:"enable_insecure"`
}

// Load reads path, expands environment variables, decodes strictly (unknown
// keys are an error, same as the teacher's decoder.KnownFields(true)),
// applies defaults, and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	decoder := yaml.NewDecoder(strings.NewReader(expanded))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.HTTPPort == 0 {
		cfg.Server.HTTPPort = 8080
	}

	if cfg.Database.MaxConnections == 0 {
		cfg.Database.MaxConnections = 25
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 5 * time.Minute
	}

	if cfg.Auth.TokenExpiry == 0 {
		cfg.Auth.TokenExpiry = 24 * time.Hour
	}

	if cfg.LLM.Assistant.Provider == "" {
		cfg.LLM.Assistant.Provider = "anthropic"
	}
	if cfg.LLM.Assistant.Timeout == 0 {
		cfg.LLM.Assistant.Timeout = 30 * time.Second
	}
	if cfg.LLM.Reasoner.Provider == "" {
		cfg.LLM.Reasoner.Provider = "gemini"
	}
	if cfg.LLM.Reasoner.Timeout == 0 {
		cfg.LLM.Reasoner.Timeout = 30 * time.Second
	}

	if cfg.ObjectStore.BaseDir == "" {
		cfg.ObjectStore.BaseDir = "./data/objects"
	}
	if cfg.ObjectStore.SignedTTL == 0 {
		cfg.ObjectStore.SignedTTL = 1 * time.Hour
	}

	applyOrchestratorDefaults(&cfg.Orchestrator)

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Audit.Level == "" {
		cfg.Audit.Level = "info"
	}
	if cfg.Audit.Format == "" {
		cfg.Audit.Format = "json"
	}
	if cfg.Audit.Output == "" {
		cfg.Audit.Output = "stdout"
	}

	if cfg.Tracing.SamplingRate == 0 {
		cfg.Tracing.SamplingRate = 1.0
	}
	if cfg.Tracing.Environment == "" {
		cfg.Tracing.Environment = "production"
	}
}

// applyOrchestratorDefaults fills in spec.md §6's defaults for every field
// left unset, so a config file need only override what it means to change.
func applyOrchestratorDefaults(cfg *OrchestratorConfig) {
	if cfg.MaxNodesPerRequest == 0 {
		cfg.MaxNodesPerRequest = 20
	}
	if cfg.DeadlineSlackSeconds == 0 {
		cfg.DeadlineSlackSeconds = 20
	}
	if cfg.ResearchSummaryLimit == nil {
		defaultLimit := 10
		cfg.ResearchSummaryLimit = &defaultLimit
	}
	if cfg.ConsiderationPruneThreshold == 0 {
		cfg.ConsiderationPruneThreshold = 20
	}
	if cfg.AssistantContextBudgetBytes == 0 {
		cfg.AssistantContextBudgetBytes = 65_536
	}
	if cfg.RetryAttemptsTransient == 0 {
		cfg.RetryAttemptsTransient = 3
	}
	if len(cfg.SupportedUserLanguages) == 0 {
		cfg.SupportedUserLanguages = []string{"ro"}
	}
}

func validate(cfg *Config) error {
	var issues []string

	if strings.TrimSpace(cfg.Database.URL) == "" {
		issues = append(issues, "database.url is required")
	}
	if cfg.Orchestrator.MaxNodesPerRequest <= 0 {
		issues = append(issues, "orchestrator.max_nodes_per_request must be > 0")
	}
	if cfg.Orchestrator.DeadlineSlackSeconds <= 0 {
		issues = append(issues, "orchestrator.deadline_slack_seconds must be > 0")
	}
	if cfg.LLM.Assistant.Provider != "anthropic" && cfg.LLM.Assistant.Provider != "gemini" {
		issues = append(issues, `llm.assistant.provider must be "anthropic" or "gemini"`)
	}
	if cfg.LLM.Reasoner.Provider != "anthropic" && cfg.LLM.Reasoner.Provider != "gemini" {
		issues = append(issues, `llm.reasoner.provider must be "anthropic" or "gemini"`)
	}

	if len(issues) > 0 {
		return fmt.Errorf("config: invalid configuration: %s", strings.Join(issues, "; "))
	}
	return nil
}
