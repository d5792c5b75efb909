package metrics

import (
	"sort"
	"sync"
	"time"
)

const maxSamples = 1000

type Metrics struct {
	mutex          sync.RWMutex
	requests       map[string]int64
	failures       map[string]int64
	responseTimes  map[string][]time.Duration
	statusCodes    map[string]map[int]int64
	backendHealthy bool
	startTime      time.Time
}

type Snapshot struct {
	TotalRequests  int64                   `json:"total_requests"`
	TotalFailures  int64                   `json:"total_failures"`
	Uptime         time.Duration           `json:"uptime"`
	Backend        string                  `json:"backend"`
	BackendHealthy bool                    `json:"backend_healthy"`
	Routes         map[string]RouteMetrics `json:"routes"`
}

type RouteMetrics struct {
	Requests    int64         `json:"requests"`
	Failures    int64         `json:"failures"`
	AvgResponse time.Duration `json:"avg_response"`
	P50Response time.Duration `json:"p50_response"`
	P95Response time.Duration `json:"p95_response"`
	P99Response time.Duration `json:"p99_response"`
	StatusCodes map[int]int64 `json:"status_codes"`
}

func (m *Metrics) IncrementRequests(route string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.requests[route]++
}

// RecordFailure counts a backend call on route that ended in the error
// envelope.
func (m *Metrics) RecordFailure(route string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.failures[route]++
}

func (m *Metrics) RecordResponse(route string, duration time.Duration, statusCode int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.responseTimes[route] = append(m.responseTimes[route], duration)

	if len(m.responseTimes[route]) > maxSamples {
		m.responseTimes[route] = m.responseTimes[route][1:]
	}

	if m.statusCodes[route] == nil {
		m.statusCodes[route] = make(map[int]int64)
	}
	m.statusCodes[route][statusCode]++
}

func (m *Metrics) UpdateBackendHealth(healthy bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.backendHealthy = healthy
}

func (m *Metrics) Snapshot(backend string) Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		Uptime:         time.Since(m.startTime),
		Backend:        backend,
		BackendHealthy: m.backendHealthy,
		Routes:         make(map[string]RouteMetrics),
	}

	allRoutes := make(map[string]bool)
	for route := range m.requests {
		allRoutes[route] = true
	}
	for route := range m.failures {
		allRoutes[route] = true
	}
	for route := range m.responseTimes {
		allRoutes[route] = true
	}

	for route := range allRoutes {
		snap.TotalRequests += m.requests[route]
		snap.TotalFailures += m.failures[route]

		rm := RouteMetrics{
			Requests:    m.requests[route],
			Failures:    m.failures[route],
			StatusCodes: make(map[int]int64, len(m.statusCodes[route])),
		}
		for code, n := range m.statusCodes[route] {
			rm.StatusCodes[code] = n
		}

		durations := m.responseTimes[route]
		if len(durations) > 0 {
			sorted := make([]time.Duration, len(durations))
			copy(sorted, durations)
			sort.Slice(sorted, func(i, j int) bool {
				return sorted[i] < sorted[j]
			})

			rm.AvgResponse = average(sorted)
			rm.P50Response = percentile(sorted, 0.50)
			rm.P95Response = percentile(sorted, 0.95)
			rm.P99Response = percentile(sorted, 0.99)
		}

		snap.Routes[route] = rm
	}

	return snap
}

// NewMetrics returns empty metrics. The backend is assumed healthy until a
// probe says otherwise.
func NewMetrics() *Metrics {
	return &Metrics{
		requests:       make(map[string]int64),
		failures:       make(map[string]int64),
		responseTimes:  make(map[string][]time.Duration),
		statusCodes:    make(map[string]map[int]int64),
		backendHealthy: true,
		startTime:      time.Now(),
	}
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}
