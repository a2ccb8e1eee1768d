package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/bookreviewapp/bookreview-server/internal/logger"
)

// requestLogger logs one line per request and puts a request-scoped logger
// into the context.
func requestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			reqLogger := base.With("request_id", middleware.GetReqID(r.Context()))
			ctx := logger.WithContext(r.Context(), reqLogger)

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				level := slog.LevelInfo
				if status >= http.StatusInternalServerError {
					level = slog.LevelError
				}
				reqLogger.LogAttrs(ctx, level, "HTTP request",
					slog.Group("http",
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.Int("status", status),
						slog.Int("bytes", ww.BytesWritten()),
						slog.Duration("duration", time.Since(start)),
						slog.String("remote", r.RemoteAddr),
					),
				)
			}()

			next.ServeHTTP(ww, r.WithContext(ctx))
		})
	}
}
