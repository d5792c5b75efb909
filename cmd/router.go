package main

import (
	"net/http"

	"github.com/angeloszaimis/frontend/internal/handler"
	"github.com/angeloszaimis/frontend/internal/metrics"
)

func setupRouter(proxyHandler *handler.ProxyHandler, pageHandler http.Handler, metricsCollector *metrics.Collector, backendURL string) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("GET /{$}", pageHandler)
	mux.HandleFunc("GET "+handler.DataPath, proxyHandler.Data)
	mux.HandleFunc("POST "+handler.MessagePath, proxyHandler.Message)
	mux.HandleFunc("GET "+handler.HealthPath, proxyHandler.Health)
	mux.HandleFunc("GET /metrics", metricsCollector.Handler(backendURL))

	return mux
}
