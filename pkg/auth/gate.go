package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rhuss/citygate/pkg/api"
	"github.com/rhuss/citygate/pkg/debug"
	"github.com/rhuss/citygate/pkg/observability"
	"github.com/rhuss/citygate/pkg/transport"
)

const bearerScheme = "Bearer"

// ParseBearer extracts the token from an Authorization header value.
// The scheme must be exactly "Bearer" followed by a non-empty token.
func ParseBearer(header string) (string, error) {
	if header == "" {
		return "", ErrMissingCredentials
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || scheme != bearerScheme {
		return "", ErrMalformedCredentials
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMalformedCredentials
	}
	return token, nil
}

// Gate authenticates requests. It is stateless: every request is parsed,
// verified and resolved independently.
type Gate struct {
	Verifier Verifier
	Resolver *Resolver
}

// Authenticate runs the mandatory gate logic for r.
func (g *Gate) Authenticate(r *http.Request) (AccessContext, error) {
	token, err := ParseBearer(r.Header.Get("Authorization"))
	if err != nil {
		return AccessContext{}, err
	}

	claims, err := g.Verifier.Verify(token)
	if err != nil {
		return AccessContext{}, err
	}

	return g.Resolver.Resolve(r.Context(), claims)
}

// Optional runs the gate logic but turns every failure into None.
func (g *Gate) Optional(r *http.Request) Optional {
	ac, err := g.Authenticate(r)
	if err != nil {
		if !errors.Is(err, ErrMissingCredentials) {
			recordFailure(r, err, slog.LevelDebug)
		}
		return None()
	}
	return Some(ac)
}

// Require returns the mandatory middleware. Requests without a valid token
// are rejected with 401; otherwise the access context is attached to the
// request context.
func (g *Gate) Require() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac, err := g.Authenticate(r)
			if err != nil {
				recordFailure(r, err, slog.LevelWarn)
				WriteError(w, err)
				return
			}

			debug.Log("auth", "authentication succeeded",
				"subject", ac.Subject(),
				"role", ac.Role().String(),
				"route", routeOf(r),
			)

			next.ServeHTTP(w, r.WithContext(WithAccess(r.Context(), ac)))
		})
	}
}

// Allow returns the optional middleware. The access context is attached
// only when the request carries a valid token; otherwise the request
// proceeds anonymously.
func (g *Gate) Allow() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ac, ok := g.Optional(r).Get(); ok {
				r = r.WithContext(WithAccess(r.Context(), ac))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// recordFailure logs and counts a gate failure. Only the kind and route are
// recorded; token contents never reach the log.
func recordFailure(r *http.Request, err error, level slog.Level) {
	route := routeOf(r)

	kind, ok := KindOf(err)
	if !ok {
		slog.Error("resolving access context", "route", route, "error", err)
		return
	}

	observability.AuthFailuresTotal.WithLabelValues(kind.Code(), route).Inc()
	slog.Log(r.Context(), level, "authentication failed",
		"kind", kind.Code(),
		"route", route,
		"remote_addr", r.RemoteAddr,
	)
}

// WriteError writes the JSON error envelope for err. Auth failures map to
// 401 or 403 by kind; anything else, including an Error of unknown kind,
// is an internal error.
func WriteError(w http.ResponseWriter, err error) {
	var authErr *Error
	if !errors.As(err, &authErr) {
		transport.WriteAPIError(w, api.NewServerError("internal authentication error"))
		return
	}

	kind := authErr.Kind
	switch {
	case kind.IsAuthentication():
		w.Header().Set("WWW-Authenticate", wwwAuthenticate(kind))
		transport.WriteAPIError(w, api.NewUnauthorizedError(kind.Code(), authErr.Message()))
	case kind.IsAuthorization():
		transport.WriteAPIError(w, api.NewForbiddenError(kind.Code(), authErr.Message()))
	default:
		transport.WriteAPIError(w, api.NewServerError("internal authentication error"))
	}
}

// wwwAuthenticate builds the RFC 6750 challenge for a 401.
func wwwAuthenticate(kind Kind) string {
	switch kind {
	case MalformedCredentials:
		return bearerScheme + ` error="invalid_request"`
	case InvalidToken, ExpiredToken:
		return bearerScheme + ` error="invalid_token"`
	default:
		return bearerScheme
	}
}

// routeOf returns the matched ServeMux pattern, or the path when the
// request was not routed through a pattern.
func routeOf(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	return r.URL.Path
}
