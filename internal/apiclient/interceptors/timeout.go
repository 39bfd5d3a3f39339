package interceptors

import (
	"context"
	"time"

	"github.com/pribylovaa/paybudz-client/internal/apiclient"
)

// WithTimeout навешивает таймаут d на один проход запроса, если у контекста
// ещё нет дедлайна. Существующий дедлайн не переопределяется.
//
// Контракт:
//  1. d <= 0 — не модифицирует контекст, просто вызывает next;
//  2. у ctx уже есть deadline — оставляет как есть;
//  3. иначе — оборачивает ctx через context.WithTimeout(ctx, d) и гарантированно
//     вызывает cancel().
//
// Обновление токена и повтор получают каждый свой таймаут.
func WithTimeout(d time.Duration) apiclient.Interceptor {
	return func(ctx context.Context, req *apiclient.Request, next apiclient.Invoker) (*apiclient.Response, error) {
		if d <= 0 {
			return next(ctx, req)
		}
		if _, ok := ctx.Deadline(); ok {
			return next(ctx, req)
		}

		cctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		return next(cctx, req)
	}
}
