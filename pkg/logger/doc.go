// Package logger builds the frontend's structured logger: text output for
// local work, JSON in production.
package logger
