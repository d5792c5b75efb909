package metrics_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/frontend/internal/metrics"
)

const backendURL = "http://backend-service:3000"

var _ = Describe("Metrics", func() {
	var m *metrics.Metrics

	BeforeEach(func() {
		m = metrics.NewMetrics()
	})

	Describe("IncrementRequests", func() {
		It("should increment request count for a route", func() {
			m.IncrementRequests("/api/data")
			m.IncrementRequests("/api/data")

			snap := m.Snapshot(backendURL)
			Expect(snap.TotalRequests).To(Equal(int64(2)))
			Expect(snap.Routes["/api/data"].Requests).To(Equal(int64(2)))
		})

		It("should track multiple routes separately", func() {
			m.IncrementRequests("/api/data")
			m.IncrementRequests("/api/message")
			m.IncrementRequests("/api/data")

			snap := m.Snapshot(backendURL)
			Expect(snap.TotalRequests).To(Equal(int64(3)))
			Expect(snap.Routes["/api/data"].Requests).To(Equal(int64(2)))
			Expect(snap.Routes["/api/message"].Requests).To(Equal(int64(1)))
		})
	})

	Describe("RecordFailure", func() {
		It("should count failures per route and in total", func() {
			m.RecordFailure("/api/data")
			m.RecordFailure("/api/message")
			m.RecordFailure("/api/message")

			snap := m.Snapshot(backendURL)
			Expect(snap.TotalFailures).To(Equal(int64(3)))
			Expect(snap.Routes["/api/message"].Failures).To(Equal(int64(2)))
		})
	})

	Describe("RecordResponse", func() {
		It("should record response time and status code", func() {
			m.RecordResponse("/api/data", 100*time.Millisecond, 200)
			m.RecordResponse("/api/data", 200*time.Millisecond, 200)

			route := m.Snapshot(backendURL).Routes["/api/data"]
			Expect(route.AvgResponse).To(Equal(150 * time.Millisecond))
			Expect(route.StatusCodes[200]).To(Equal(int64(2)))
		})

		It("should track different status codes", func() {
			m.RecordResponse("/api/message", 100*time.Millisecond, 200)
			m.RecordResponse("/api/message", 150*time.Millisecond, 400)
			m.RecordResponse("/api/message", 200*time.Millisecond, 500)

			route := m.Snapshot(backendURL).Routes["/api/message"]
			Expect(route.StatusCodes).To(HaveLen(3))
			Expect(route.StatusCodes[500]).To(Equal(int64(1)))
		})

		It("should calculate percentiles correctly", func() {
			for i := 1; i <= 100; i++ {
				m.RecordResponse("/api/data", time.Duration(i)*time.Millisecond, 200)
			}

			route := m.Snapshot(backendURL).Routes["/api/data"]
			Expect(route.P50Response).To(BeNumerically("~", 50*time.Millisecond, 1*time.Millisecond))
			Expect(route.P95Response).To(BeNumerically("~", 95*time.Millisecond, 1*time.Millisecond))
			Expect(route.P99Response).To(BeNumerically("~", 99*time.Millisecond, 1*time.Millisecond))
		})

		It("should limit stored response times to 1000", func() {
			for i := 1; i <= 1500; i++ {
				m.RecordResponse("/api/data", time.Duration(i)*time.Millisecond, 200)
			}

			route := m.Snapshot(backendURL).Routes["/api/data"]
			Expect(route.AvgResponse).To(BeNumerically(">", 500*time.Millisecond))
		})
	})

	Describe("UpdateBackendHealth", func() {
		It("should start healthy", func() {
			Expect(m.Snapshot(backendURL).BackendHealthy).To(BeTrue())
		})

		It("should track health changes", func() {
			m.UpdateBackendHealth(false)
			Expect(m.Snapshot(backendURL).BackendHealthy).To(BeFalse())

			m.UpdateBackendHealth(true)
			Expect(m.Snapshot(backendURL).BackendHealthy).To(BeTrue())
		})
	})

	Describe("Snapshot", func() {
		It("should carry the backend URL", func() {
			Expect(m.Snapshot(backendURL).Backend).To(Equal(backendURL))
		})

		It("should include uptime", func() {
			time.Sleep(10 * time.Millisecond)
			Expect(m.Snapshot(backendURL).Uptime).To(BeNumerically(">", 0))
		})

		It("should handle empty metrics", func() {
			snap := m.Snapshot(backendURL)
			Expect(snap.TotalRequests).To(BeZero())
			Expect(snap.Routes).To(BeEmpty())
		})

		It("should not share status code maps with later updates", func() {
			m.RecordResponse("/api/data", time.Millisecond, 200)
			snap1 := m.Snapshot(backendURL)
			m.RecordResponse("/api/data", time.Millisecond, 200)

			Expect(snap1.Routes["/api/data"].StatusCodes[200]).To(Equal(int64(1)))
		})
	})
})
