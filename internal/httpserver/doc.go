// Package httpserver runs the frontend's HTTP listener with sane timeouts and
// graceful shutdown.
package httpserver
