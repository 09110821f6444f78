package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
database:
  url: "postgres://localhost/lexorch"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Orchestrator.MaxNodesPerRequest != 20 {
		t.Errorf("MaxNodesPerRequest = %d, want 20", cfg.Orchestrator.MaxNodesPerRequest)
	}
	if cfg.Orchestrator.DeadlineSlackSeconds != 20 {
		t.Errorf("DeadlineSlackSeconds = %d, want 20", cfg.Orchestrator.DeadlineSlackSeconds)
	}
	if cfg.Orchestrator.ConsiderationPruneThreshold != 20 {
		t.Errorf("ConsiderationPruneThreshold = %d, want 20", cfg.Orchestrator.ConsiderationPruneThreshold)
	}
	if cfg.Orchestrator.AssistantContextBudgetBytes != 65_536 {
		t.Errorf("AssistantContextBudgetBytes = %d, want 65536", cfg.Orchestrator.AssistantContextBudgetBytes)
	}
	if cfg.Orchestrator.ResearchSummaryLimit == nil || *cfg.Orchestrator.ResearchSummaryLimit != 10 {
		t.Errorf("ResearchSummaryLimit = %v, want pointer to 10", cfg.Orchestrator.ResearchSummaryLimit)
	}
	if cfg.LLM.Assistant.Provider != "anthropic" {
		t.Errorf("LLM.Assistant.Provider = %q, want anthropic", cfg.LLM.Assistant.Provider)
	}
	if cfg.LLM.Reasoner.Provider != "gemini" {
		t.Errorf("LLM.Reasoner.Provider = %q, want gemini", cfg.LLM.Reasoner.Provider)
	}
	if cfg.Server.HTTPPort != 8080 {
		t.Errorf("Server.HTTPPort = %d, want 8080", cfg.Server.HTTPPort)
	}
	if cfg.Audit.Level != "info" || cfg.Audit.Format != "json" || cfg.Audit.Output != "stdout" {
		t.Errorf("Audit = %+v, want info/json/stdout defaults", cfg.Audit)
	}
	if cfg.Tracing.SamplingRate != 1.0 {
		t.Errorf("Tracing.SamplingRate = %v, want 1.0", cfg.Tracing.SamplingRate)
	}
	if cfg.Tracing.Environment != "production" {
		t.Errorf("Tracing.Environment = %q, want production", cfg.Tracing.Environment)
	}
	if cfg.Tracing.Endpoint != "" {
		t.Errorf("Tracing.Endpoint = %q, want empty (tracing opt-in, no-op tracer)", cfg.Tracing.Endpoint)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
database:
  url: "postgres://localhost/lexorch"
orchestrator:
  max_nodes_per_request: 5
  supported_user_languages: ["ro", "en"]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Orchestrator.MaxNodesPerRequest != 5 {
		t.Errorf("MaxNodesPerRequest = %d, want 5", cfg.Orchestrator.MaxNodesPerRequest)
	}
	if len(cfg.Orchestrator.SupportedUserLanguages) != 2 {
		t.Errorf("SupportedUserLanguages = %v, want 2 entries", cfg.Orchestrator.SupportedUserLanguages)
	}
}

func TestLoadPreservesExplicitZeroResearchSummaryLimit(t *testing.T) {
	path := writeTempConfig(t, `
database:
  url: "postgres://localhost/lexorch"
orchestrator:
  research_summary_limit: 0
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Orchestrator.ResearchSummaryLimit == nil {
		t.Fatal("ResearchSummaryLimit = nil, want a pointer to an explicit 0")
	}
	if *cfg.Orchestrator.ResearchSummaryLimit != 0 {
		t.Errorf("ResearchSummaryLimit = %d, want explicit 0 to survive defaulting", *cfg.Orchestrator.ResearchSummaryLimit)
	}
}

func TestLoadRejectsMissingDatabaseURL(t *testing.T) {
	path := writeTempConfig(t, `
server:
  http_port: 9090
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for a missing database.url")
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeTempConfig(t, `
database:
  url: "postgres://localhost/lexorch"
totally_unknown_section:
  foo: bar
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an unknown top-level config key")
	}
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("LEXORCH_TEST_DB_URL", "postgres://env-expanded/lexorch")
	path := writeTempConfig(t, `
database:
  url: "${LEXORCH_TEST_DB_URL}"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.URL != "postgres://env-expanded/lexorch" {
		t.Errorf("Database.URL = %q, want env-expanded value", cfg.Database.URL)
	}
}
