package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookreviewapp/bookreview-server/internal/auth"
	"github.com/bookreviewapp/bookreview-server/internal/http/response"
)

// tokenCookieName is the cookie carrying the access token.
const tokenCookieName = "token"

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

// identityKey is the context key for the authenticated identity.
const identityKey ctxKey = "identity"

// IdentityFrom returns the authenticated identity stored in ctx.
func IdentityFrom(ctx context.Context) (auth.Identity, bool) {
	ident, ok := ctx.Value(identityKey).(auth.Identity)
	return ident, ok && ident.ID != ""
}

func withIdentity(ctx context.Context, ident auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}

// tokenFromRequest reads the token cookie, falling back to a Bearer header.
func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(tokenCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// authenticate attaches the identity of a valid token to the request context.
// Requests without a token continue anonymously. Requests with an invalid
// token also continue anonymously unless strict mode is on.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := tokenFromRequest(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		ident, err := s.services.Auth.VerifyToken(token)
		if err != nil {
			if s.opts.StrictTokens {
				response.Unauthorized(w, "Invalid or expired token", s.logger)
				return
			}
			s.logger.Debug("Ignoring invalid token", "path", r.URL.Path, "error", err)
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), ident)))
	})
}

// requireIdentity rejects operations called without an authenticated identity.
func (s *Server) requireIdentity(ctx huma.Context, next func(huma.Context)) {
	if _, ok := IdentityFrom(ctx.Context()); !ok {
		_ = huma.WriteErr(s.api, ctx, http.StatusUnauthorized, "Authentication required")
		return
	}
	next(ctx)
}

// authRequired marks an operation as needing an identity.
func (s *Server) authRequired() huma.Middlewares {
	return huma.Middlewares{s.requireIdentity}
}

// authOptional marks an operation as open to anonymous callers. The identity
// is still attached when a valid token is present.
func (s *Server) authOptional() huma.Middlewares {
	return huma.Middlewares{}
}

// authSecurity documents the accepted credentials on an operation.
var authSecurity = []map[string][]string{{"cookie": {}}, {"bearer": {}}}
