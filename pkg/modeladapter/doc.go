// Package modeladapter defines the interface and shared plumbing for
// completion model clients.
//
// It contains:
//   - [Completer] interface, the only thing callers depend on
//   - embeddable [ModelAdapter] base struct with HTTP helpers, auth, custom headers and query parameters
//   - typed API errors ([APIError], [AuthError], [RateLimitError])
//   - [github.com/germanamz/azllm/pkg/modeladapter/usage]: thread-safe token usage tracker
//
// This package contains no provider-specific code. Concrete adapters live in
// separate packages that import modeladapter.
package modeladapter
