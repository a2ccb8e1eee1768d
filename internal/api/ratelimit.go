package api

import (
	"net"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// rateLimited throttles an operation per client IP. chi's RealIP middleware
// has already resolved proxy headers into the remote address.
func (s *Server) rateLimited(ctx huma.Context, next func(huma.Context)) {
	if s.authLimiter == nil {
		next(ctx)
		return
	}

	key := clientIP(ctx.RemoteAddr())
	if !s.authLimiter.Allow(key) {
		s.logger.Warn("Rate limit exceeded", "ip", key, "path", ctx.URL().Path)
		_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, "Too many requests. Please try again later.")
		return
	}
	next(ctx)
}

// clientIP strips the port from a remote address when present.
func clientIP(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
