// Package transport holds the HTTP plumbing shared by the citygate server:
// the JSON error envelope writer and the cross-cutting middleware chain.
//
// # Middleware
//
// Middleware wraps an [net/http.Handler]. The chain built by [Chain] runs
// outermost first. Built-in middleware provides panic recovery ([Recovery]),
// request ID assignment and propagation via X-Request-ID ([RequestID]), and
// structured access logging via log/slog ([Logging]).
//
// # Errors
//
// Handlers report failures as [github.com/rhuss/citygate/pkg/api.APIError]
// values. [WriteAPIError] derives the HTTP status from the error type, so
// every layer (gate, predicate, resource handlers) answers with the same
// envelope.
//
// The package depends only on pkg/api so that the auth layer can write
// errors through it without an import cycle.
package transport
