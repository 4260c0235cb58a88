// Package observability provides an OpenTelemetry metrics extension for
// use case engines. The MetricsExtension implements lifecycle hooks to
// record system-wide counters for run starts, completions, failures,
// payloads reaching the root dispatcher, and release violations.
//
// For per-execution tracing and metrics, see the middleware package:
// middleware.Tracing() and middleware.Metrics().
package observability
