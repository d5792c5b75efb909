package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angeloszaimis/frontend/internal/backend"
	"github.com/angeloszaimis/frontend/internal/metrics"
)

const (
	DataPath    = "/api/data"
	MessagePath = "/api/message"
	HealthPath  = "/health"

	maxMessageBytes = 1 << 20
)

// ErrorEnvelope is the body of every failed proxy call.
type ErrorEnvelope struct {
	Error string `json:"error"`
}

// HealthStatus is the frontend's liveness answer.
type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// ProxyHandler translates inbound requests into backend calls and the
// backend's replies (or failures) back into responses.
type ProxyHandler struct {
	logger           *slog.Logger
	backend          *backend.Backend
	metricsCollector *metrics.Collector
}

func NewProxyHandler(logger *slog.Logger, b *backend.Backend, collector *metrics.Collector) *ProxyHandler {
	return &ProxyHandler{
		logger:           logger,
		backend:          b,
		metricsCollector: collector,
	}
}

// Data proxies GET /api/data.
func (h *ProxyHandler) Data(w http.ResponseWriter, r *http.Request) {
	h.proxy(w, r, DataPath, func(ctx context.Context) (*backend.Response, error) {
		return h.backend.Get(ctx, DataPath)
	})
}

// Message proxies POST /api/message, forwarding the caller's JSON body as is.
func (h *ProxyHandler) Message(w http.ResponseWriter, r *http.Request) {
	body, err := readJSON(w, r)
	if err != nil {
		h.logger.Warn("Rejected message body",
			slog.String("from", extractClientIP(r)),
			slog.Any("err", err))
		writeJSON(w, http.StatusBadRequest, ErrorEnvelope{Error: fmt.Sprintf("Invalid JSON body: %v", err)})
		return
	}

	h.proxy(w, r, MessagePath, func(ctx context.Context) (*backend.Response, error) {
		return h.backend.Post(ctx, MessagePath, body)
	})
}

// Health always reports the frontend as healthy without touching the backend.
func (h *ProxyHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthStatus{Status: "healthy", Service: "frontend"})
}

func (h *ProxyHandler) proxy(w http.ResponseWriter, r *http.Request, route string, call func(context.Context) (*backend.Response, error)) {
	clientIP := extractClientIP(r)
	requestID := r.Header.Get(backend.RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set(backend.RequestIDHeader, requestID)

	h.logger.Info("Received request",
		slog.String("from", clientIP),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("request_id", requestID))

	h.metricsCollector.Emit(metrics.MetricEvent{
		Type:      metrics.EventRequestReceived,
		Timestamp: time.Now(),
		Route:     route,
	})

	// A caller hanging up does not abort the backend call; only the backend
	// timeout bounds it.
	ctx := backend.WithRequestID(context.WithoutCancel(r.Context()), requestID)

	start := time.Now()
	res, err := call(ctx)
	status := h.writeResult(w, route, requestID, res, err)

	h.metricsCollector.Emit(metrics.MetricEvent{
		Type:       metrics.EventResponseCompleted,
		Timestamp:  time.Now(),
		Route:      route,
		Duration:   time.Since(start),
		StatusCode: status,
	})
}

// writeResult is the single place where a backend result is mapped onto the
// response: the backend's body and status, or the error envelope with 500.
func (h *ProxyHandler) writeResult(w http.ResponseWriter, route, requestID string, res *backend.Response, err error) int {
	if err != nil {
		detail := err.Error()
		var ue *backend.UnreachableError
		if errors.As(err, &ue) {
			detail = ue.Detail()
		}

		h.logger.Warn("Backend call failed",
			slog.String("route", route),
			slog.String("request_id", requestID),
			slog.Any("err", err))

		h.metricsCollector.Emit(metrics.MetricEvent{
			Type:      metrics.EventBackendFailed,
			Timestamp: time.Now(),
			Route:     route,
		})

		writeJSON(w, http.StatusInternalServerError, ErrorEnvelope{
			Error: "Backend connection failed: " + detail,
		})
		return http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.StatusCode)
	w.Write(res.Body)
	return res.StatusCode
}

func readJSON(w http.ResponseWriter, r *http.Request) (json.RawMessage, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxMessageBytes))
	if err != nil {
		return nil, err
	}

	var body json.RawMessage
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, err
	}

	return body, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}

	host, _, _ := net.SplitHostPort(r.RemoteAddr)
	return host
}
