package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lexorch/agent/internal/auth"
	"github.com/lexorch/agent/internal/observability"
	"github.com/lexorch/agent/internal/storage"
	"github.com/lexorch/agent/pkg/models"
)

const maxMessageBodyBytes = 8 * 1024 // spec.md §6: message body <= 8 KB

// HTTPHandler exposes the Request Handler over the Agent HTTP endpoint and
// the payment webhook of spec.md §6, grounded on the teacher's stdlib
// http.ServeMux wiring (internal/gateway/http_server.go) rather than a
// router framework — the teacher never pulls one in either.
type HTTPHandler struct {
	handler  *Handler
	billing  billingCrediter
	webhooks *storage.WebhookEventStore
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// billingCrediter is the narrow slice of billing.Client the webhook needs.
type billingCrediter interface {
	CreditPayment(ctx context.Context, ownerID string, tier models.Tier, credits int) error
}

// NewHTTPHandler wires a Handler to HTTP, plus the billing collaborator
// and idempotency store the payment webhook needs.
func NewHTTPHandler(h *Handler, billingClient billingCrediter, webhooks *storage.WebhookEventStore, logger *slog.Logger) *HTTPHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPHandler{handler: h, billing: billingClient, webhooks: webhooks, logger: logger}
}

// SetMetrics attaches a Prometheus instrumentation surface; every mounted
// route records its latency and status code on it when set.
func (hh *HTTPHandler) SetMetrics(metrics *observability.Metrics) {
	hh.metrics = metrics
}

// Mount registers the agent-messages and billing-webhook routes on mux,
// wrapping the former in bearer/API-key validation and both in HTTP metrics
// instrumentation.
func (hh *HTTPHandler) Mount(mux *http.ServeMux, authService *auth.Service) {
	messages := http.HandlerFunc(hh.handleAgentMessage)
	mux.Handle("POST /cases/{case_id}/agent/messages",
		hh.instrument("/cases/{case_id}/agent/messages", httpAuthMiddleware(authService, hh.logger)(messages)))
	mux.Handle("POST /webhooks/billing", hh.instrument("/webhooks/billing", http.HandlerFunc(hh.handleBillingWebhook)))
}

// statusRecorder captures the status code a handler wrote, for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument wraps next with lorch_http_request_duration_seconds/
// lorch_http_requests_total recording, a no-op when no Metrics is attached.
func (hh *HTTPHandler) instrument(path string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hh.metrics == nil {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		hh.metrics.RecordHTTPRequest(r.Method, path, strconv.Itoa(rec.status), time.Since(start).Seconds())
	})
}

// httpAuthMiddleware validates the Agent HTTP endpoint's bearer token or
// API key and attaches the resolved user to the request context, mirrored
// from the teacher's web.AuthMiddleware without pulling in the web
// package's UI/session dependencies this API surface doesn't need.
func httpAuthMiddleware(service *auth.Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if service == nil || !service.Enabled() {
				next.ServeHTTP(w, r)
				return
			}

			if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
				token := strings.TrimSpace(authHeader[len("bearer "):])
				if user, err := service.ValidateJWT(token); err == nil {
					next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
					return
				} else if logger != nil {
					logger.Warn("jwt validation failed", "error", err)
				}
			}

			apiKey := r.Header.Get("X-API-Key")
			if apiKey != "" {
				if user, err := service.ValidateAPIKey(apiKey); err == nil {
					next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
					return
				} else if logger != nil {
					logger.Warn("api key validation failed", "error", err)
				}
			}

			writeError(w, http.StatusUnauthorized, "authentication required")
		})
	}
}

type agentMessageRequest struct {
	Message string `json:"message"`
}

func (hh *HTTPHandler) handleAgentMessage(w http.ResponseWriter, r *http.Request) {
	caseID := r.PathValue("case_id")
	if strings.TrimSpace(caseID) == "" {
		writeError(w, http.StatusBadRequest, "case_id is required")
		return
	}

	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxMessageBodyBytes)
	var body agentMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(body.Message) == "" {
		writeError(w, http.StatusBadRequest, "message must not be empty")
		return
	}

	resp, err := hh.handler.Handle(r.Context(), caseID, user.ID, Event{Kind: "user_message", Text: body.Message})
	hh.respond(w, caseID, resp, err)
}

func (hh *HTTPHandler) respond(w http.ResponseWriter, caseID string, resp *Response, err error) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		writeError(w, http.StatusForbidden, "not authorized for this case")
		return
	case errors.Is(err, ErrBusy):
		writeJSON(w, http.StatusOK, map[string]any{"status": "busy"})
		return
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "case not found")
		return
	case err != nil:
		hh.logger.Error("agent message handling failed", "case_id", caseID, "error", err)
		writeError(w, http.StatusInternalServerError, "unexpected error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// billingWebhookPayload is the inbound shape from the billing collaborator
// (spec.md §6): a payment confirmation carrying enough to both credit
// quota and resume the waiting case.
type billingWebhookPayload struct {
	EventID string      `json:"event_id"`
	CaseID  string      `json:"case_id"`
	OwnerID string      `json:"owner_id"`
	Tier    models.Tier `json:"tier"`
	Credits int         `json:"credits"`
}

// handleBillingWebhook implements spec.md §6's payment webhook: idempotent
// on event_id, then resumes the Request Handler with
// resume(reason=payment_completed, payload={case_id, tier}).
func (hh *HTTPHandler) handleBillingWebhook(w http.ResponseWriter, r *http.Request) {
	var payload billingWebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid webhook payload: "+err.Error())
		return
	}
	if payload.EventID == "" || payload.CaseID == "" || payload.OwnerID == "" {
		writeError(w, http.StatusBadRequest, "event_id, case_id, and owner_id are required")
		return
	}

	firstSeen, err := hh.webhooks.MarkProcessed(r.Context(), payload.EventID)
	if err != nil {
		hh.logger.Error("failed to record webhook idempotency", "event_id", payload.EventID, "error", err)
		writeError(w, http.StatusInternalServerError, "unexpected error")
		return
	}
	if !firstSeen {
		writeJSON(w, http.StatusOK, map[string]any{"status": "success", "idempotent": true})
		return
	}

	if err := hh.billing.CreditPayment(r.Context(), payload.OwnerID, payload.Tier, payload.Credits); err != nil {
		hh.logger.Error("failed to credit payment", "case_id", payload.CaseID, "error", err)
		writeError(w, http.StatusInternalServerError, "unexpected error")
		return
	}

	resp, err := hh.handler.Handle(r.Context(), payload.CaseID, payload.OwnerID, Event{
		Kind:         "resume",
		ResumeReason: "payment_completed",
		ResumePayload: map[string]any{
			"case_id": payload.CaseID,
			"tier":    int(payload.Tier),
		},
	})
	hh.respond(w, payload.CaseID, resp, err)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"status": "error", "message": message})
}
