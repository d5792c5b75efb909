package metrics_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/frontend/internal/metrics"
)

var _ = Describe("Collector", func() {
	var (
		collector *metrics.Collector
		log       *slog.Logger
		ctx       context.Context
		cancel    context.CancelFunc
	)

	BeforeEach(func() {
		log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelError, // Suppress logs in tests
		}))
		ctx, cancel = context.WithCancel(context.Background())
		collector = metrics.NewCollector(100, log)
	})

	AfterEach(func() {
		cancel()
	})

	requestsOn := func(route string) func() int64 {
		return func() int64 {
			return collector.Snapshot(backendURL).Routes[route].Requests
		}
	}

	Describe("Start and event processing", func() {
		It("should process EventRequestReceived", func() {
			collector.Start(ctx)
			collector.Emit(metrics.MetricEvent{
				Type:      metrics.EventRequestReceived,
				Timestamp: time.Now(),
				Route:     "/api/data",
			})

			Eventually(requestsOn("/api/data")).Should(Equal(int64(1)))
		})

		It("should process EventBackendFailed", func() {
			collector.Start(ctx)
			collector.Emit(metrics.MetricEvent{
				Type:  metrics.EventBackendFailed,
				Route: "/api/message",
			})

			Eventually(func() int64 {
				return collector.Snapshot(backendURL).TotalFailures
			}).Should(Equal(int64(1)))
		})

		It("should process EventResponseCompleted", func() {
			collector.Start(ctx)
			collector.Emit(metrics.MetricEvent{
				Type:       metrics.EventResponseCompleted,
				Route:      "/api/data",
				Duration:   100 * time.Millisecond,
				StatusCode: 200,
			})

			Eventually(func() int64 {
				return collector.Snapshot(backendURL).Routes["/api/data"].StatusCodes[200]
			}).Should(Equal(int64(1)))
			Expect(collector.Snapshot(backendURL).Routes["/api/data"].AvgResponse).To(Equal(100 * time.Millisecond))
		})

		It("should process EventHealthChanged", func() {
			collector.Start(ctx)
			collector.Emit(metrics.MetricEvent{
				Type:    metrics.EventHealthChanged,
				Healthy: false,
			})

			Eventually(func() bool {
				return collector.Snapshot(backendURL).BackendHealthy
			}).Should(BeFalse())
		})

		It("should drain events on context cancellation", func() {
			for i := 0; i < 5; i++ {
				collector.EventChannel() <- metrics.MetricEvent{
					Type:  metrics.EventRequestReceived,
					Route: "/api/data",
				}
			}

			cancel()
			collector.Start(ctx)

			Eventually(requestsOn("/api/data")).Should(Equal(int64(5)))
		})
	})

	Describe("Emit", func() {
		It("should drop events instead of blocking when the buffer is full", func() {
			small := metrics.NewCollector(1, log)
			done := make(chan struct{})
			go func() {
				defer close(done)
				for i := 0; i < 10; i++ {
					small.Emit(metrics.MetricEvent{Type: metrics.EventRequestReceived, Route: "/api/data"})
				}
			}()

			Eventually(done).Should(BeClosed())
		})

		It("should ignore events on a nil collector", func() {
			var nilCollector *metrics.Collector
			Expect(func() {
				nilCollector.Emit(metrics.MetricEvent{Type: metrics.EventRequestReceived})
			}).NotTo(Panic())
		})
	})

	Describe("Handler", func() {
		It("should serve the snapshot as JSON", func() {
			collector.Start(ctx)
			collector.Emit(metrics.MetricEvent{Type: metrics.EventRequestReceived, Route: "/api/data"})
			Eventually(requestsOn("/api/data")).Should(Equal(int64(1)))

			w := httptest.NewRecorder()
			collector.Handler(backendURL)(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("Content-Type")).To(Equal("application/json"))

			var snap metrics.Snapshot
			Expect(json.Unmarshal(w.Body.Bytes(), &snap)).To(Succeed())
			Expect(snap.Backend).To(Equal(backendURL))
			Expect(snap.TotalRequests).To(Equal(int64(1)))
		})
	})
})
