// Package metrics provides in-process metrics for the frontend's proxied routes.
//
// It uses a channel-based event pipeline to asynchronously collect:
//   - Request counts per route
//   - Backend failures per route (calls answered with the error envelope)
//   - Response times with percentile calculations (P50, P95, P99)
//   - HTTP status code distribution
//   - The backend health last observed by the monitor
//
// The collector runs in a dedicated goroutine. Emit never blocks the request
// path; events are dropped when the buffer is full.
//
// Example usage:
//
//	collector := metrics.NewCollector(1000, logger)
//	collector.Start(ctx)
//
//	collector.Emit(metrics.MetricEvent{
//		Type:       metrics.EventResponseCompleted,
//		Route:      "/api/data",
//		Duration:   150 * time.Millisecond,
//		StatusCode: 200,
//	})
//
//	snapshot := collector.Snapshot("http://backend-service:3000")
//
// Remaining events are drained when the context passed to Start is cancelled.
package metrics
