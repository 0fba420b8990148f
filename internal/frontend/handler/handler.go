// ============================================================================
// lox - Lox language front end
// ============================================================================
//
// Package:     handler
// Description: HTTP API for the front-end service: health, scan, parse,
//              run history and the WebSocket live endpoint
// Author:      msto63
// Created:     2025-12-06
// Modified:    2026-10-19
// License:     MIT
// ============================================================================

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	mdwerror "github.com/msto63/lox/foundation/core/error"
	mdwlog "github.com/msto63/lox/foundation/core/log"
	"github.com/msto63/lox/internal/frontend/service"
	"github.com/msto63/lox/internal/store"
	"github.com/msto63/lox/pkg/core/health"
)

// RunLister exposes recorded runs; *store.Store implements it
type RunLister interface {
	ListRuns(ctx context.Context, filter store.RunFilter) ([]*store.Run, error)
}

// RequestIDHeader carries the request ID in both directions
const RequestIDHeader = "X-Request-ID"

// SourceRequest is the body of POST /v1/scan and /v1/parse
type SourceRequest struct {
	Source *string `json:"source"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// RunsResponse is the body of GET /v1/runs
type RunsResponse struct {
	Runs  []*store.Run `json:"runs"`
	Total int          `json:"total"`
}

// Config holds handler configuration
type Config struct {
	// Upper bound for request bodies, including JSON framing
	MaxBodyBytes int64
	// Default number of runs returned by /v1/runs
	DefaultRunLimit int
}

// DefaultConfig returns default handler configuration
func DefaultConfig() Config {
	return Config{
		MaxBodyBytes:    2 << 20,
		DefaultRunLimit: 20,
	}
}

// Handler handles HTTP requests for the front-end service
type Handler struct {
	service *service.Service
	runs    RunLister
	health  *health.Registry
	ws      *WebSocketHandler
	logger  *mdwlog.Logger
	config  Config
}

// NewHandler creates the HTTP handler. runs may be nil when history
// recording is disabled.
func NewHandler(cfg Config, svc *service.Service, runs RunLister, registry *health.Registry, logger *mdwlog.Logger) *Handler {
	if logger == nil {
		logger = mdwlog.GetDefault()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultConfig().MaxBodyBytes
	}
	if cfg.DefaultRunLimit <= 0 {
		cfg.DefaultRunLimit = DefaultConfig().DefaultRunLimit
	}

	return &Handler{
		service: svc,
		runs:    runs,
		health:  registry,
		ws:      NewWebSocketHandler(svc, cfg.MaxBodyBytes, logger),
		logger:  logger.WithField("component", "http-handler"),
		config:  cfg,
	}
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
	w.Header().Set("Access-Control-Expose-Headers", RequestIDHeader)

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	start := time.Now()
	path := strings.TrimSuffix(r.URL.Path, "/")

	switch path {
	case "/healthz":
		h.handleHealth(w, r)
	case "/v1/scan":
		h.handleScan(w, r)
	case "/v1/parse":
		h.handleParse(w, r)
	case "/v1/runs":
		h.handleRuns(w, r)
	case "/v1/ws":
		h.ws.ServeHTTP(w, r)
		return
	default:
		h.writeError(w, http.StatusNotFound, "not_found", "Endpoint not found", "")
	}

	h.logger.Debug("HTTP request", mdwlog.Fields{
		"method":      r.Method,
		"path":        path,
		"duration_ms": time.Since(start).Milliseconds(),
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use GET", "")
		return
	}

	if h.health == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": string(health.StatusHealthy)})
		return
	}

	report := h.health.CheckWithTimeout(5 * time.Second)
	code := http.StatusOK
	if !report.Healthy() {
		code = http.StatusServiceUnavailable
	}
	h.writeJSON(w, code, report)
}

func (h *Handler) handleScan(w http.ResponseWriter, r *http.Request) {
	source, ok := h.readSource(w, r)
	if !ok {
		return
	}

	resp, err := h.service.Scan(r.Context(), service.Request{Source: source, Origin: "http", RequestID: requestID(w, r)})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp.Map())
}

func (h *Handler) handleParse(w http.ResponseWriter, r *http.Request) {
	source, ok := h.readSource(w, r)
	if !ok {
		return
	}

	resp, err := h.service.Parse(r.Context(), service.Request{Source: source, Origin: "http", RequestID: requestID(w, r)})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp.Map())
}

// requestID returns the caller's X-Request-ID or a new one, and echoes
// it on the response
func requestID(w http.ResponseWriter, r *http.Request) string {
	id := r.Header.Get(RequestIDHeader)
	if id == "" {
		id = uuid.New().String()
	}
	w.Header().Set(RequestIDHeader, id)
	return id
}

func (h *Handler) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use GET", "")
		return
	}
	if h.runs == nil {
		h.writeError(w, http.StatusServiceUnavailable, "service_unavailable", "Run history is disabled", "")
		return
	}

	q := r.URL.Query()
	filter := store.RunFilter{
		Kind:       store.RunKind(q.Get("kind")),
		Origin:     q.Get("origin"),
		FailedOnly: q.Get("failed") == "true",
		Limit:      h.config.DefaultRunLimit,
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			h.writeError(w, http.StatusBadRequest, "invalid_request", "limit must be a positive integer", raw)
			return
		}
		filter.Limit = limit
	}

	runs, err := h.runs.ListRuns(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if runs == nil {
		runs = []*store.Run{}
	}
	h.writeJSON(w, http.StatusOK, RunsResponse{Runs: runs, Total: len(runs)})
}

// readSource decodes a SourceRequest; on failure it writes the error
// response and returns false
func (h *Handler) readSource(w http.ResponseWriter, r *http.Request) (string, bool) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use POST", "")
		return "", false
	}

	var req SourceRequest
	body := http.MaxBytesReader(w, r.Body, h.config.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "too_large", "Request body too large", "")
			return "", false
		}
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON", err.Error())
		return "", false
	}
	if req.Source == nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "source is required", "")
		return "", false
	}
	return *req.Source, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case mdwerror.HasCode(err, mdwerror.CodeInvalidInput):
		h.writeError(w, http.StatusBadRequest, "invalid_input", "Source rejected", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.writeError(w, http.StatusServiceUnavailable, "canceled", "Request canceled", err.Error())
	default:
		h.logger.ErrorWithErr("request failed", err)
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Request failed", err.Error())
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.WarnWithErr("failed to write response", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message, details string) {
	resp := ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	}
	h.writeJSON(w, status, resp)
}
