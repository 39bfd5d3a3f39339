package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// hit — одна запись о входящем запросе фейкового бэкенда.
type hit struct {
	Method    string
	Path      string
	Auth      string
	RequestID string
	Query     string
}

// fakeBackend — минимальный wallet-бэкенд: принимает выданные access-токены,
// ротирует пару на refresh-эндпойнте и записывает все входящие запросы.
type fakeBackend struct {
	t   *testing.T
	srv *httptest.Server

	mu      sync.Mutex
	access  map[string]bool
	refresh string
	issued  int
	hits    []hit

	// refreshStatus != 0 — refresh-эндпойнт отвечает этим статусом.
	refreshStatus int
	// refreshBody — тело успешного ответа refresh вместо выданной пары.
	refreshBody string
	// onRefresh вызывается до обработки refresh (блокировки в тестах отмены).
	onRefresh func(r *http.Request)
	// onProtected вызывается для защищённого маршрута с валидным/невалидным токеном.
	onProtected func(r *http.Request, authorized bool)
	// always401 — защищённые маршруты всегда отвечают 401.
	always401 bool
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()

	b := &fakeBackend{t: t, access: map[string]bool{}}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh-auth", b.handleRefresh)
	mux.HandleFunc("/public/ping", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		writeJSON(w, http.StatusOK, map[string]any{"pong": true})
	})
	mux.HandleFunc("/wallets/42/balance", b.protected(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"availableBalance": 500})
	}))
	mux.HandleFunc("/wallets/404", b.protected(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"statusCode": 404, "message": "Wallet not found", "error": "Not Found",
		})
	}))
	mux.HandleFunc("/raw", b.protected(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("not-json"))
	}))
	mux.HandleFunc("/echo", b.protected(func(w http.ResponseWriter, r *http.Request) {
		var in map[string]any
		_ = json.NewDecoder(r.Body).Decode(&in)
		writeJSON(w, http.StatusOK, map[string]any{"method": r.Method, "body": in, "q": r.URL.Query().Get("q")})
	}))
	mux.HandleFunc("/empty", b.protected(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)

	return b
}

// issue выдаёт новую пару и делает её единственной действующей.
func (b *fakeBackend) issue() (string, string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.issueLocked()
}

func (b *fakeBackend) issueLocked() (string, string) {
	b.issued++
	a := fmt.Sprintf("A%d", b.issued)
	r := fmt.Sprintf("R%d", b.issued)
	b.access = map[string]bool{a: true}
	b.refresh = r

	return a, r
}

// configure меняет поведение бэкенда под мьютексом.
func (b *fakeBackend) configure(fn func(b *fakeBackend)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b)
}

// expire делает все выданные access-токены недействительными.
func (b *fakeBackend) expire() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.access = map[string]bool{}
}

func (b *fakeBackend) record(r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hits = append(b.hits, hit{
		Method:    r.Method,
		Path:      r.URL.Path,
		Auth:      r.Header.Get("Authorization"),
		RequestID: r.Header.Get("X-Request-Id"),
		Query:     r.URL.RawQuery,
	})
}

func (b *fakeBackend) hitsFor(path string) []hit {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []hit
	for _, h := range b.hits {
		if h.Path == path {
			out = append(out, h)
		}
	}

	return out
}

func (b *fakeBackend) protected(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.record(r)

		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

		b.mu.Lock()
		ok := token != "" && b.access[token] && !b.always401
		hook := b.onProtected
		b.mu.Unlock()

		if hook != nil {
			hook(r, ok)
		}

		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"statusCode": 401, "message": "Unauthorized",
			})
			return
		}

		next(w, r)
	}
}

func (b *fakeBackend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	b.record(r)

	b.mu.Lock()
	hook := b.onRefresh
	b.mu.Unlock()
	if hook != nil {
		hook(r)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"message": "method not allowed"})
		return
	}
	if b.refreshStatus != 0 {
		writeJSON(w, b.refreshStatus, map[string]any{"statusCode": b.refreshStatus, "message": "Invalid refresh token"})
		return
	}
	if b.refreshBody != "" {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(b.refreshBody))
		return
	}

	if got := r.URL.Query().Get("refreshToken"); got == "" || got != b.refresh {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"statusCode": 401, "message": "Invalid refresh token"})
		return
	}

	a, rt := b.issueLocked()
	writeJSON(w, http.StatusOK, map[string]any{"idToken": a, "refreshToken": rt})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
