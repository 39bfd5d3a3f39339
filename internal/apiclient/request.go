package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"sync/atomic"
)

// Request — описание исходящего запроса на время одного логического вызова
// (включая возможный повтор). Header изменяем; Authorization в нём пишет
// только attach-фаза.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Header http.Header
}

// Response — полученный ответ бэкенда (любой статус).
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Invoker выполняет запрос. Ошибка означает, что ответ не получен;
// не-2xx статусы возвращаются как Response.
type Invoker func(ctx context.Context, req *Request) (*Response, error)

// Interceptor оборачивает Invoker (request id, таймаут, логирование, rate limit).
type Interceptor func(ctx context.Context, req *Request, next Invoker) (*Response, error)

// Chain собирает интерсепторы вокруг терминального invoker.
// Порядок: первый в списке — внешний.
func Chain(terminal Invoker, ics ...Interceptor) Invoker {
	h := terminal
	for i := len(ics) - 1; i >= 0; i-- {
		ic, next := ics[i], h
		h = func(ctx context.Context, req *Request) (*Response, error) {
			return ic(ctx, req, next)
		}
	}

	return h
}

// attempt — состояние одного прохода через цепочку. Живёт в контексте,
// чтобы терминальный шаг знал, какой токен прикладывать.
type attempt struct {
	// retried — это единственный разрешённый повтор исходного запроса.
	retried bool
	// token — токен, полученный при обновлении; имеет приоритет над TokenSource.
	token string
	// anonymous — запрос уходит без Authorization (вызов refresh-эндпойнта).
	anonymous bool
	// generation — поколение пары на момент attach-фазы.
	generation uint64
	// sent — терминальный шаг начал отправку; до этого проход мог
	// завершиться только в интерсепторах.
	sent atomic.Bool
}

type attemptKey struct{}

func withAttempt(ctx context.Context, a *attempt) context.Context {
	return context.WithValue(ctx, attemptKey{}, a)
}

func attemptFrom(ctx context.Context) *attempt {
	if a, ok := ctx.Value(attemptKey{}).(*attempt); ok && a != nil {
		return a
	}

	return &attempt{}
}

// Retried сообщает интерсепторам, что текущий проход — повтор после обновления токена.
func Retried(ctx context.Context) bool {
	return attemptFrom(ctx).retried
}
