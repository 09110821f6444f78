// Package main provides the CLI entry point for lorch, the legal-case
// orchestration service. lorch drives one end-user case at a time through
// the Node Library / Orchestrator state machine of SPEC_FULL.md, exposing
// a single HTTP surface (the Agent endpoint and the billing webhook) to
// the channel or client application that owns the end-user relationship.
//
// # Basic Usage
//
// Start the server:
//
//	lorch serve --config lorch.yaml
//
// # Environment Variables
//
//   - LORCH_CONFIG: Path to configuration file (default: lorch.yaml)
//   - ANTHROPIC_API_KEY: Assistant LLM credential
//   - GEMINI_API_KEY: Reasoner LLM credential
//   - SLACK_BOT_TOKEN: ticketing escalation channel credential
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/lexorch/agent/internal/audit"
	"github.com/lexorch/agent/internal/auth"
	"github.com/lexorch/agent/internal/billing"
	"github.com/lexorch/agent/internal/casestore"
	"github.com/lexorch/agent/internal/config"
	"github.com/lexorch/agent/internal/handler"
	"github.com/lexorch/agent/internal/llm"
	"github.com/lexorch/agent/internal/nodes"
	"github.com/lexorch/agent/internal/objectstore"
	"github.com/lexorch/agent/internal/observability"
	"github.com/lexorch/agent/internal/orchestrator"
	"github.com/lexorch/agent/internal/storage"
	"github.com/lexorch/agent/internal/ticketing"
	"github.com/lexorch/agent/internal/tools"
)

// Build information, populated by ldflags during build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "lorch",
		Short:        "lorch - legal case orchestration service",
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}
	rootCmd.AddCommand(buildServeCmd())
	return rootCmd
}

func buildServeCmd() *cobra.Command {
	var configPath string
	var debug bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Agent HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath, debug)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", envOr("LORCH_CONFIG", "lorch.yaml"), "Path to YAML configuration file")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug-level logging")
	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// runServe loads configuration, wires every collaborator named in
// SPEC_FULL.md, and serves the Agent HTTP surface until a shutdown signal
// arrives, grounded on the teacher's cmd/nexus/handlers_serve.go runServe.
func runServe(ctx context.Context, configPath string, debug bool) error {
	if debug {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	slog.Info("starting lorch", "version", version, "commit", commit, "config", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	tracer, shutdownTracer := observability.NewTracer(observability.TraceConfig{
		ServiceName:    "lorch",
		ServiceVersion: version,
		Environment:    cfg.Tracing.Environment,
		Endpoint:       cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SamplingRate,
		EnableInsecure: cfg.Tracing.EnableInsecure,
	})
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			slog.Warn("tracer shutdown failed", "error", err)
		}
	}()

	deps, err := wireDependencies(ctx, cfg, db)
	if err != nil {
		return fmt.Errorf("wire dependencies: %w", err)
	}
	defer deps.auditLogger.Close()

	mux := http.NewServeMux()
	deps.httpHandler.Mount(mux, deps.authService)
	mux.Handle("GET /metrics", promhttp.Handler())

	tracedMux := http.NewServeMux()
	tracedMux.Handle("/", traceMiddleware(tracer, mux))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort)
	server := &http.Server{
		Addr:              addr,
		Handler:           tracedMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("lorch agent server listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	slog.Info("shutdown signal received, initiating graceful shutdown")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	slog.Info("lorch stopped cleanly")
	return nil
}

// traceMiddleware starts one OTel span per inbound HTTP request, named
// after the request method and path, and ends it when the handler returns;
// the response status code is not recorded on the span.
func traceMiddleware(tracer *observability.Tracer, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.TraceHTTPRequest(r.Context(), r.Method, r.URL.Path)
		defer span.End()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func openDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	maxConns := cfg.Database.MaxConnections
	if maxConns <= 0 {
		maxConns = 25
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return db, nil
}

// serverDeps bundles the wired collaborators runServe needs to hold onto
// past wiring (the HTTP mux handler and the audit logger's Close).
type serverDeps struct {
	httpHandler *handler.HTTPHandler
	authService *auth.Service
	auditLogger *audit.Logger
}

// wireDependencies constructs every collaborator named in SPEC_FULL.md and
// returns the assembled HTTP handler, mirrored from the teacher's
// gateway.NewManagedServer wiring sequence but flattened into one function
// since this service has a single HTTP surface rather than a channel
// fan-out.
func wireDependencies(ctx context.Context, cfg *config.Config, db *sql.DB) (*serverDeps, error) {
	metrics := observability.NewMetrics()

	// --- storage layer ---
	caseStore := storage.NewCasePostgresStore(db)
	partyStore := storage.NewPartyPostgresStore(db)
	partyResolver := storage.NewPartyResolver(partyStore)
	partyValueReader := storage.NewPartyValueReader(partyStore)
	knowledgeBase := storage.NewKnowledgeBaseStore(db)
	webhookStore := storage.NewWebhookEventStore(db)

	caseAdapter := casestore.NewAdapter(caseStore)
	caseLock := casestore.NewLock(casestore.DefaultLeaseGrace)

	// --- object store ---
	objStore, err := objectstore.New(objectstore.Config{
		Root:      cfg.ObjectStore.BaseDir,
		PublicURL: cfg.ObjectStore.PublicURL,
		SignKey:   cfg.ObjectStore.HMACKey,
		URLTTL:    cfg.ObjectStore.SignedTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("object store: %w", err)
	}

	// --- LLM clients ---
	assistantClient, err := llm.NewAssistantClient(llm.AssistantConfig{
		APIKey:       cfg.LLM.Assistant.APIKey,
		BaseURL:      cfg.LLM.Assistant.BaseURL,
		DefaultModel: cfg.LLM.Assistant.DefaultModel,
	})
	if err != nil {
		return nil, fmt.Errorf("assistant client: %w", err)
	}
	reasonerClient, err := llm.NewReasonerClient(ctx, llm.ReasonerConfig{
		APIKey:       cfg.LLM.Reasoner.APIKey,
		DefaultModel: cfg.LLM.Reasoner.DefaultModel,
	})
	if err != nil {
		return nil, fmt.Errorf("reasoner client: %w", err)
	}
	reasonerConsultant := llm.NewReasonerConsultant(reasonerClient)

	// --- billing / ticketing / auth / audit ---
	billingClient := billing.New(db)
	slackTicketing := ticketing.NewSlackTicketing(cfg.Ticketing.SlackToken, cfg.Ticketing.SlackChannelID)

	authService := auth.NewService(auth.Config{
		JWTSecret:   cfg.Auth.JWTSecret,
		TokenExpiry: cfg.Auth.TokenExpiry,
		APIKeys:     toAuthAPIKeys(cfg.Auth.APIKeys),
	})

	auditLogger, err := audit.NewLogger(audit.Config{
		Enabled:          cfg.Audit.Enabled,
		Level:            audit.Level(cfg.Audit.Level),
		Format:           audit.OutputFormat(cfg.Audit.Format),
		Output:           cfg.Audit.Output,
		IncludeToolInput: true,
		MaxFieldSize:     4096,
		SampleRate:       1.0,
		BufferSize:       1000,
		FlushInterval:    5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("audit logger: %w", err)
	}

	// --- tool registry ---
	registry := tools.NewRegistry()
	registry.Register(tools.NewGetCaseContextTool(caseAdapter))
	registry.Register(tools.NewUpdateCaseContextTool(caseAdapter))
	registry.Register(tools.NewCheckQuotaTool(billingClient))
	registry.Register(tools.NewConsultReasonerTool(reasonerConsultant, partyValueReader))
	registry.Register(tools.NewGenerateDraftTool(caseAdapter, partyResolver, objStore))
	registry.Register(tools.NewOpenSupportTicketTool(slackTicketing, caseAdapter))
	registry.Register(tools.NewGetPartyIDByReferenceTool(caseAdapter, partyStore))
	registry.Register(tools.NewResearchQueryTool(knowledgeBase, *cfg.Orchestrator.ResearchSummaryLimit))

	executor := tools.NewExecutor(registry, tools.DefaultExecutorConfig())
	executor.SetAuditLogger(auditLogger)

	// --- node library / orchestrator ---
	nodeDeps := &nodes.Deps{
		Assistant:   assistantClient,
		Reasoner:    reasonerClient,
		Tools:       executor,
		Adapter:     caseAdapter,
		PartyValues: partyValueReader,
		Config: nodes.Config{
			ResearchSummaryLimit:        *cfg.Orchestrator.ResearchSummaryLimit,
			ConsiderationPruneThreshold: cfg.Orchestrator.ConsiderationPruneThreshold,
			AssistantContextBudgetBytes: cfg.Orchestrator.AssistantContextBudgetBytes,
			RetryAttemptsTransient:      cfg.Orchestrator.RetryAttemptsTransient,
		},
	}
	nodeRegistry := nodes.Wire(nodeDeps)

	orch := orchestrator.New(nodeRegistry, orchestrator.Config{
		MaxNodesPerRequest:   cfg.Orchestrator.MaxNodesPerRequest,
		DeadlineSlackSeconds: cfg.Orchestrator.DeadlineSlackSeconds,
	})
	orch.SetEventCallback(func(ev *orchestrator.Event) {
		slog.Info("orchestrator event", "type", ev.Type, "node", ev.Node, "detail", ev.Detail)
		switch ev.Type {
		case orchestrator.EventLoopBudgetExhausted:
			metrics.RecordLoopBudgetExhausted()
		case orchestrator.EventNodeCompleted, orchestrator.EventReplied, orchestrator.EventSuspended:
			metrics.RecordNodeExecution(ev.Node, string(ev.Type), 0)
		}
	})

	// --- request handler / HTTP surface ---
	h := handler.New(caseAdapter, caseLock, orch, slackTicketing, slog.Default())
	h.SetMetrics(metrics)
	httpHandler := handler.NewHTTPHandler(h, billingClient, webhookStore, slog.Default())
	httpHandler.SetMetrics(metrics)

	return &serverDeps{httpHandler: httpHandler, authService: authService, auditLogger: auditLogger}, nil
}

func toAuthAPIKeys(keys []config.APIKeyConfig) []auth.APIKeyConfig {
	out := make([]auth.APIKeyConfig, 0, len(keys))
	for _, k := range keys {
		out = append(out, auth.APIKeyConfig{Key: k.Key, UserID: k.UserID, Email: k.Email, Name: k.Name})
	}
	return out
}
