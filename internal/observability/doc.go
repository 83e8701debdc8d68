// Package observability groups the service's logging, metrics and tracing.
//
//   - logging: slog construction and request-scoped loggers
//   - metrics: Prometheus collectors for HTTP, upstream calls, queues and admission
//   - tracing: OpenTelemetry provider setup and the HTTP server middleware
package observability
