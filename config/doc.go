// Package config resolves the frontend's process configuration from defaults,
// an optional YAML file and environment variables. The result is validated
// once at startup and treated as immutable afterwards.
package config
