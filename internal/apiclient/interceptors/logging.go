package interceptors

import (
	"context"
	"log/slog"
	"time"

	"github.com/pribylovaa/paybudz-client/internal/apiclient"
	"github.com/pribylovaa/paybudz-client/internal/pkg/log"
)

// Logging — логирование исходящих вызовов.
// Поведение:
//   - берёт X-Request-Id из заголовков запроса;
//   - добавляет поля method/path, прокладывает обогащённый логгер в контекст (internal/pkg/log);
//   - пишет одну финальную запись уровня Info: msg="http", status, dur, retried.
//
// Безопасность: не логирует тело, query (там может быть refresh-токен) и заголовок Authorization.
func Logging(base *slog.Logger) apiclient.Interceptor {
	if base == nil {
		base = slog.Default()
	}

	return func(ctx context.Context, req *apiclient.Request, next apiclient.Invoker) (*apiclient.Response, error) {
		start := time.Now()

		rid := req.Header.Get(HeaderRequestID)
		if rid == "" {
			rid = "-"
		}

		l := base.With(
			slog.String("request_id", rid),
			slog.String("method", req.Method),
			slog.String("path", req.Path),
		)
		ctx = log.Into(ctx, l)

		resp, err := next(ctx, req)

		attrs := []any{
			slog.Duration("dur", time.Since(start)),
			slog.Bool("retried", apiclient.Retried(ctx)),
		}
		if resp != nil {
			attrs = append(attrs, slog.Int("status", resp.Status))
		} else {
			attrs = append(attrs, slog.Int("status", 0))
		}
		if err != nil {
			attrs = append(attrs, slog.String("err", err.Error()))
		}

		l.Info("http", attrs...)

		return resp, err
	}
}
