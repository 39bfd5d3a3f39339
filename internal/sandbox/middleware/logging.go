package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/pribylovaa/paybudz-client/internal/apiclient/interceptors"
	logctx "github.com/pribylovaa/paybudz-client/internal/pkg/log"
)

// Logging кладёт request-scoped логгер в контекст и пишет одну запись "http"
// на запрос: маршрут, статус, длительность, размер и, для аутентифицированных
// вызовов, user_id с ролью. Query не логируется: там бывает refresh-токен.
func Logging(l *slog.Logger) Middleware {
	if l == nil {
		l = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLogger := l
			if rid := r.Header.Get(interceptors.HeaderRequestID); rid != "" {
				reqLogger = reqLogger.With(slog.String("request_id", rid))
			}

			r, caller := withCallerSlot(r.WithContext(logctx.Into(r.Context(), reqLogger)))
			sw := newStatusWriter(w)
			start := time.Now()

			next.ServeHTTP(sw, r)

			attrs := append([]slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", sw.status),
				slog.Duration("dur", time.Since(start)),
				slog.Int("bytes", sw.count),
			}, caller.attrs()...)

			level := slog.LevelInfo
			if sw.status >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			reqLogger.LogAttrs(r.Context(), level, "http", attrs...)
		})
	}
}
