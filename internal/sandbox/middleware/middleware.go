package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
)

// Middleware — стандартный net/http мидлвар.
type Middleware func(http.Handler) http.Handler

// Chain применяет мидлвары к обработчику; первый в списке — внешний.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}

	return h
}

// callerSlot — вызывающий, которого RequireAuth установил глубже по цепочке.
// Внешние мидлвары (Recover, Logging) кладут слот в контекст заранее
// и читают его после обработчика.
type callerSlot struct {
	mu sync.Mutex
	p  Principal
	ok bool
}

type callerKey struct{}

// withCallerSlot возвращает запрос со слотом; существующий слот переиспользуется.
func withCallerSlot(r *http.Request) (*http.Request, *callerSlot) {
	if s, ok := r.Context().Value(callerKey{}).(*callerSlot); ok {
		return r, s
	}

	s := &callerSlot{}
	return r.WithContext(context.WithValue(r.Context(), callerKey{}, s)), s
}

// noteCaller записывает аутентифицированного вызывающего в слот, если он есть.
func noteCaller(ctx context.Context, p Principal) {
	s, ok := ctx.Value(callerKey{}).(*callerSlot)
	if !ok {
		return
	}

	s.mu.Lock()
	s.p, s.ok = p, true
	s.mu.Unlock()
}

// attrs — user_id и role для лога; анонимный запрос ничего не добавляет.
func (s *callerSlot) attrs() []slog.Attr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ok {
		return nil
	}

	return []slog.Attr{slog.String("user_id", s.p.UserID), slog.String("role", s.p.Role)}
}

// statusWriter перехватывает статус и размер ответа.
type statusWriter struct {
	http.ResponseWriter
	status int
	count  int
}

func newStatusWriter(w http.ResponseWriter) *statusWriter {
	return &statusWriter{ResponseWriter: w}
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	n, err := w.ResponseWriter.Write(p)
	w.count += n

	return n, err
}

// written — обработчик уже начал ответ.
func (w *statusWriter) written() bool { return w.status != 0 }

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
