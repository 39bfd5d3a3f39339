package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	logctx "github.com/pribylovaa/paybudz-client/internal/pkg/log"
	apierrors "github.com/pribylovaa/paybudz-client/internal/sandbox/errors"
)

// Recover превращает panic обработчика в 500 с телом wallet-бэкенда.
// В лог попадают маршрут и вызывающий; причина паники наружу не уходит.
// Если ответ уже начат, тело не дописывается.
func Recover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r, caller := withCallerSlot(r)
			sw := newStatusWriter(w)

			defer func() {
				rec := recover()
				if rec == nil {
					return
				}

				attrs := append([]slog.Attr{
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Any("reason", rec),
				}, caller.attrs()...)
				logctx.From(r.Context()).LogAttrs(r.Context(), slog.LevelError, "handler_panic", attrs...)

				if !sw.written() {
					apierrors.WriteError(sw, r, fmt.Errorf("panic: %v", rec))
				}
			}()

			next.ServeHTTP(sw, r)
		})
	}
}
