// Package tracing wires OpenTelemetry into the HTTP server and the outbound
// WordPress and image-provider clients.
//
// Setup installs the SDK provider once at startup. Middleware opens a server
// span per request and echoes the trace ID in X-Trace-Id, and GetTracer is used
// by the clients to open one client span per logical upstream operation.
package tracing
