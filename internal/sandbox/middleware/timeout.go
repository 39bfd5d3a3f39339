package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	apierrors "github.com/pribylovaa/paybudz-client/internal/sandbox/errors"
)

// Timeout ограничивает обработку запроса сроком d. Обработчик, который
// вернулся по истёкшему дедлайну, ничего не записав, получает 408 в формате
// wallet-бэкенда. Существующий дедлайн не переопределяется; d <= 0 — no-op.
func Timeout(d time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := r.Context().Deadline(); ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r.WithContext(ctx))

			if !sw.written() && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				apierrors.WriteError(sw, r, apierrors.New(apierrors.ErrTimeout, "Request timed out"))
			}
		})
	}
}
