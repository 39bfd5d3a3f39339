// interceptors предоставляет набор интерсепторов исходящих HTTP-вызовов apiclient.
package interceptors

import (
	"context"

	"github.com/google/uuid"

	"github.com/pribylovaa/paybudz-client/internal/apiclient"
)

type CtxKey string

const (
	CtxRequestID CtxKey = "request_id"
)

// HeaderRequestID — заголовок корреляции запроса.
const HeaderRequestID = "X-Request-Id"

// WithMetadata — добавляет в исходящий запрос заголовки:
//   - X-Request-Id (уже выставленный, из контекста или новый uuid);
//   - User-Agent (если передан параметром).
//
// Заголовки пишутся в сам Request, поэтому повтор после обновления токена
// уходит с тем же X-Request-Id.
func WithMetadata(userAgent string) apiclient.Interceptor {
	return func(ctx context.Context, req *apiclient.Request, next apiclient.Invoker) (*apiclient.Response, error) {
		if req.Header.Get(HeaderRequestID) == "" {
			rid, _ := ctx.Value(CtxRequestID).(string)
			if rid == "" {
				rid = uuid.NewString()
			}
			req.Header.Set(HeaderRequestID, rid)
		}

		if userAgent != "" {
			req.Header.Set("User-Agent", userAgent)
		}

		return next(ctx, req)
	}
}
