// Package resilience groups the fault-handling building blocks used by the
// outbound clients.
//
//   - retry classifies failures and retries transient ones with capped
//     exponential backoff, honouring Retry-After.
//   - tokencache holds one OAuth bearer token per provider and coalesces
//     concurrent refreshes.
//
// Per-provider request queues live in internal/infra/queue and inbound
// admission control in pkg/ratelimit.
package resilience
