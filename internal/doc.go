// Package internal contains helper utilities that are private to roleverify,
// currently the crypto-random challenge code generator.
//
// # Sub-packages
//
//   - config: process configuration loaded from env and .env (viper)
//   - logger: zap logger construction
//   - rate: Redis-backed fixed-window challenge throttle
//   - telemetry: OpenTelemetry MeterProvider with OTLP export
//   - httpserver: chi router for metrics and health probes
//
// # What this package must NOT do
//
//   - Export types that appear in the public roleverify API.
//   - Be imported by any package outside the roleverify module.
package internal
