// Package backend is the frontend's view of the upstream backend service.
// It issues JSON calls against the configured base URL with a fixed timeout,
// folds every transport or status failure into a single UnreachableError,
// and tracks the backend's observed health and response time.
package backend
