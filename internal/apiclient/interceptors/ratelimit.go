package interceptors

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/pribylovaa/paybudz-client/internal/apiclient"
)

// ErrRateLimited — ожидание лимитера прервано или не укладывается в дедлайн.
var ErrRateLimited = errors.New("rate limited")

// RateLimit ограничивает частоту исходящих проходов (включая вызов refresh
// и повтор). nil — без ограничения. Ожидание прерывается отменой контекста.
func RateLimit(l *rate.Limiter) apiclient.Interceptor {
	return func(ctx context.Context, req *apiclient.Request, next apiclient.Invoker) (*apiclient.Response, error) {
		if l == nil {
			return next(ctx, req)
		}

		if err := l.Wait(ctx); err != nil {
			return nil, fmt.Errorf("interceptors.RateLimit: %w: %w", ErrRateLimited, err)
		}

		return next(ctx, req)
	}
}
