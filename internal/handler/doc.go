// Package handler implements the frontend's proxy endpoints and maps backend
// failures onto the uniform {"error": "..."} envelope.
package handler
