package apiclient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/paybudz-client/internal/session"
	"github.com/pribylovaa/paybudz-client/mocks"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type balance struct {
	AvailableBalance int64 `json:"availableBalance"`
}

// newTestClient — клиент поверх фейкового бэкенда и in-memory хранилища.
func newTestClient(t *testing.T, b *fakeBackend, opts ...func(*Options)) (*Client, session.Store, *Metrics) {
	t.Helper()

	store := session.NewMemory()
	metrics := NewMetrics(prometheus.NewRegistry())

	o := Options{
		BaseURL: b.srv.URL,
		Store:   store,
		Metrics: metrics,
		Logger:  discardLogger(),
	}
	for _, fn := range opts {
		fn(&o)
	}

	c, err := New(o)
	require.NoError(t, err)

	return c, o.Store, metrics
}

// signIn выдаёт пару на бэкенде и кладёт её в хранилище.
func signIn(t *testing.T, b *fakeBackend, store session.Store) session.Credentials {
	t.Helper()

	a, r := b.issue()
	creds := session.Credentials{AccessToken: a, RefreshToken: r}
	require.NoError(t, store.Set(context.Background(), creds))

	return creds
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	store := session.NewMemory()

	tests := []struct {
		name string
		opts Options
	}{
		{name: "empty base url", opts: Options{Store: store}},
		{name: "relative base url", opts: Options{BaseURL: "wallets", Store: store}},
		{name: "nil store", opts: Options{BaseURL: "http://127.0.0.1:1"}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c, err := New(tc.opts)
			require.Error(t, err)
			require.Nil(t, c)
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	store := session.NewMemory()
	c, err := New(Options{BaseURL: "http://127.0.0.1:1/", Store: store})
	require.NoError(t, err)

	require.Equal(t, DefaultRefreshPath, c.refreshPath)
	require.Same(t, store, c.Store())
	require.NotNil(t, c.tokens)
	require.NotNil(t, c.log)
}

func TestDo_InvalidRequest(t *testing.T) {
	t.Parallel()

	b := newFakeBackend(t)
	c, _, _ := newTestClient(t, b)

	for _, req := range []*Request{nil, {Path: "/x"}, {Method: http.MethodGet}} {
		err := c.Do(context.Background(), req, nil)
		require.ErrorIs(t, err, ErrInvalidRequest)
	}
	require.Empty(t, b.hitsFor("/x"))
}

// Валидный access-токен прикладывается один раз, повтора нет.
func TestDo_AttachesBearer_NoRetryOnSuccess(t *testing.T) {
	t.Parallel()

	b := newFakeBackend(t)
	c, store, m := newTestClient(t, b)
	creds := signIn(t, b, store)

	var out balance
	require.NoError(t, c.Get(context.Background(), "/wallets/42/balance", nil, &out))
	require.EqualValues(t, 500, out.AvailableBalance)

	hits := b.hitsFor("/wallets/42/balance")
	require.Len(t, hits, 1)
	require.Equal(t, "Bearer "+creds.AccessToken, hits[0].Auth)
	require.Empty(t, b.hitsFor("/auth/refresh-auth"))

	require.Zero(t, testutil.ToFloat64(m.retries))
	require.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "200")))
}

// Без сессии запрос уходит без Authorization.
func TestDo_NoToken_SendsAnonymously(t *testing.T) {
	t.Parallel()

	b := newFakeBackend(t)
	c, _, _ := newTestClient(t, b)

	var out map[string]bool
	require.NoError(t, c.Get(context.Background(), "/public/ping", nil, &out))
	require.True(t, out["pong"])

	hits := b.hitsFor("/public/ping")
	require.Len(t, hits, 1)
	require.Empty(t, hits[0].Auth)
}

// Сценарий: {A1,R1} -> 401 -> refresh(R1) -> {A2,R2} -> повтор с Bearer A2.
func TestDo_RefreshAndRetry(t *testing.T) {
	t.Parallel()

	b := newFakeBackend(t)
	c, store, m := newTestClient(t, b)
	signIn(t, b, store)
	b.expire()

	var out balance
	require.NoError(t, c.Get(context.Background(), "/wallets/42/balance", nil, &out))
	require.EqualValues(t, 500, out.AvailableBalance)

	refresh := b.hitsFor("/auth/refresh-auth")
	require.Len(t, refresh, 1)
	require.Equal(t, "refreshToken=R1", refresh[0].Query)
	require.Empty(t, refresh[0].Auth, "refresh call must not carry a bearer token")

	hits := b.hitsFor("/wallets/42/balance")
	require.Len(t, hits, 2)
	require.Equal(t, "Bearer A1", hits[0].Auth)
	require.Equal(t, "Bearer A2", hits[1].Auth)

	got, err := store.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, session.Credentials{AccessToken: "A2", RefreshToken: "R2"}, got)

	require.Equal(t, 1.0, testutil.ToFloat64(m.retries))
	require.Equal(t, 1.0, testutil.ToFloat64(m.refresh.WithLabelValues(refreshOK)))
}

// Следующий запрос после обновления видит новую пару в attach-фазе.
func TestDo_SubsequentRequestUsesRefreshedToken(t *testing.T) {
	t.Parallel()

	b := newFakeBackend(t)
	c, store, _ := newTestClient(t, b)
	signIn(t, b, store)
	b.expire()

	ctx := context.Background()
	require.NoError(t, c.Get(ctx, "/wallets/42/balance", nil, nil))
	require.NoError(t, c.Get(ctx, "/wallets/42/balance", nil, nil))

	hits := b.hitsFor("/wallets/42/balance")
	require.Len(t, hits, 3)
	require.Equal(t, "Bearer A2", hits[2].Auth)
	require.Len(t, b.hitsFor("/auth/refresh-auth"), 1)
}

// 401 без refresh-токена — исходная ошибка, вызова refresh нет.
func TestDo_NoRefreshToken_ReturnsOriginal401(t *testing.T) {
	t.Parallel()

	b := newFakeBackend(t)
	c, store, m := newTestClient(t, b)
	require.NoError(t, store.Set(context.Background(), session.Credentials{AccessToken: "stale"}))

	err := c.Get(context.Background(), "/wallets/42/balance", nil, nil)
	require.Error(t, err)
	require.True(t, IsUnauthorized(err))
	require.False(t, IsAuthExpired(err))

	var he *HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, "/wallets/42/balance", he.Path)
	require.Equal(t, "Unauthorized", he.Message())

	require.Empty(t, b.hitsFor("/auth/refresh-auth"))
	require.Len(t, b.hitsFor("/wallets/42/balance"), 1)

	got, err := store.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "stale", got.AccessToken)

	require.Equal(t, 1.0, testutil.ToFloat64(m.refresh.WithLabelValues(refreshNoToken)))
}

// Неудачный refresh: хранилище очищено, вызывающий получает AuthExpiredError.
func TestDo_RefreshFails_ClearsAndReturnsAuthExpired(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		setup  func(b *fakeBackend)
		target error
		status int
	}{
		{
			name:   "refresh returns 400",
			setup:  func(b *fakeBackend) { b.refreshStatus = http.StatusBadRequest },
			status: http.StatusBadRequest,
		},
		{
			name:   "refresh returns 500",
			setup:  func(b *fakeBackend) { b.refreshStatus = http.StatusInternalServerError },
			status: http.StatusInternalServerError,
		},
		{
			name:   "refresh body without tokens",
			setup:  func(b *fakeBackend) { b.refreshBody = `{"idToken":""}` },
			target: ErrMalformedRefresh,
		},
		{
			name:   "refresh body is not json",
			setup:  func(b *fakeBackend) { b.refreshBody = `<html>` },
			target: ErrMalformedRefresh,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			b := newFakeBackend(t)
			c, store, m := newTestClient(t, b)
			signIn(t, b, store)
			b.expire()
			b.configure(tc.setup)

			err := c.Get(context.Background(), "/wallets/42/balance", nil, nil)
			require.Error(t, err)
			require.True(t, IsAuthExpired(err))

			if tc.status != 0 {
				require.Equal(t, tc.status, StatusCode(err))
			}
			if tc.target != nil {
				require.ErrorIs(t, err, tc.target)
			}

			got, gerr := store.Get(context.Background())
			require.NoError(t, gerr)
			require.True(t, got.Empty())

			require.Len(t, b.hitsFor("/wallets/42/balance"), 1, "no retry after failed refresh")
			require.Equal(t, 1.0, testutil.ToFloat64(m.refresh.WithLabelValues(refreshFailed)))
		})
	}
}

// Повтор снова получил 401 — ошибка наружу, второго refresh нет.
func TestDo_RetryGets401_NoSecondRefresh(t *testing.T) {
	t.Parallel()

	b := newFakeBackend(t)
	c, store, m := newTestClient(t, b)
	signIn(t, b, store)
	b.configure(func(b *fakeBackend) { b.always401 = true })

	err := c.Get(context.Background(), "/wallets/42/balance", nil, nil)
	require.Error(t, err)
	require.True(t, IsUnauthorized(err))
	require.False(t, IsAuthExpired(err))

	require.Len(t, b.hitsFor("/auth/refresh-auth"), 1)
	require.Len(t, b.hitsFor("/wallets/42/balance"), 2)
	require.Equal(t, 1.0, testutil.ToFloat64(m.retries))

	// Пара обновлена и осталась в хранилище.
	got, gerr := store.Get(context.Background())
	require.NoError(t, gerr)
	require.Equal(t, session.Credentials{AccessToken: "A2", RefreshToken: "R2"}, got)
}

// Не-401 ошибки отдаются сразу без refresh.
func TestDo_NonAuthHTTPError(t *testing.T) {
	t.Parallel()

	b := newFakeBackend(t)
	c, store, _ := newTestClient(t, b)
	signIn(t, b, store)

	err := c.Get(context.Background(), "/wallets/404", nil, nil)
	require.Error(t, err)

	var he *HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusNotFound, he.Status)
	require.Equal(t, "Wallet not found", he.Message())
	require.Contains(t, err.Error(), "GET /wallets/404: status 404")
	require.Empty(t, b.hitsFor("/auth/refresh-auth"))
}

// Ответ не получен — NetworkError, без повторов.
func TestDo_NetworkError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := New(Options{BaseURL: base, Store: session.NewMemory(), Logger: discardLogger()})
	require.NoError(t, err)

	err = c.Get(context.Background(), "/wallets", nil, nil)
	require.Error(t, err)

	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
	require.Equal(t, http.MethodGet, ne.Method)
	require.Equal(t, "/wallets", ne.Path)
	require.NotNil(t, errors.Unwrap(ne))
	require.Zero(t, StatusCode(err))
}

// Отмена во время refresh: ошибка контекста, хранилище не тронуто.
func TestDo_CanceledDuringRefresh_LeavesStoreUntouched(t *testing.T) {
	t.Parallel()

	b := newFakeBackend(t)
	c, store, m := newTestClient(t, b)
	creds := signIn(t, b, store)
	b.expire()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	b.configure(func(b *fakeBackend) {
		b.onRefresh = func(r *http.Request) {
			close(started)
			select {
			case <-r.Context().Done():
			case <-time.After(5 * time.Second):
			}
		}
	})

	go func() {
		<-started
		cancel()
	}()

	err := c.Get(ctx, "/wallets/42/balance", nil, nil)
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, IsAuthExpired(err))

	got, gerr := store.Get(context.Background())
	require.NoError(t, gerr)
	require.Equal(t, creds, got)

	require.Len(t, b.hitsFor("/wallets/42/balance"), 1)
	require.Equal(t, 1.0, testutil.ToFloat64(m.refresh.WithLabelValues(refreshCanceled)))
}

// Отмена до отправки: ошибка контекста, а не NetworkError.
func TestDo_CanceledBeforeSend(t *testing.T) {
	t.Parallel()

	b := newFakeBackend(t)
	c, _, _ := newTestClient(t, b)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Get(ctx, "/public/ping", nil, nil)
	require.ErrorIs(t, err, context.Canceled)

	var ne *NetworkError
	require.False(t, errors.As(err, &ne))
}

// Интерсептор отказал до отправки refresh: пара не очищается,
// эндпойнт не вызывается, ошибка не NetworkError и не AuthExpired.
func TestDo_RefreshNotSent_LeavesStoreUntouched(t *testing.T) {
	t.Parallel()

	throttled := errors.New("throttled")
	b := newFakeBackend(t)
	c, store, m := newTestClient(t, b, func(o *Options) {
		o.Interceptors = []Interceptor{
			func(ctx context.Context, req *Request, next Invoker) (*Response, error) {
				if req.Path == "/auth/refresh-auth" {
					return nil, throttled
				}
				return next(ctx, req)
			},
		}
	})
	creds := signIn(t, b, store)
	b.expire()

	err := c.Get(context.Background(), "/wallets/42/balance", nil, nil)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrNotSent)
	require.ErrorIs(t, err, throttled)
	require.False(t, IsAuthExpired(err))

	var ne *NetworkError
	require.False(t, errors.As(err, &ne))

	got, gerr := store.Get(context.Background())
	require.NoError(t, gerr)
	require.Equal(t, creds, got)

	require.Empty(t, b.hitsFor("/auth/refresh-auth"))
	require.Len(t, b.hitsFor("/wallets/42/balance"), 1)
	require.Equal(t, 1.0, testutil.ToFloat64(m.refresh.WithLabelValues(refreshNotSent)))
	require.Zero(t, testutil.ToFloat64(m.refresh.WithLabelValues(refreshFailed)))
}

// Обычный запрос, отклонённый интерсептором, тоже не NetworkError.
func TestDo_InterceptorRejects_NotSent(t *testing.T) {
	t.Parallel()

	b := newFakeBackend(t)
	c, _, _ := newTestClient(t, b, func(o *Options) {
		o.Interceptors = []Interceptor{
			func(context.Context, *Request, Invoker) (*Response, error) {
				return nil, errors.New("denied")
			},
		}
	})

	err := c.Get(context.Background(), "/public/ping", nil, nil)
	require.ErrorIs(t, err, ErrNotSent)

	var ne *NetworkError
	require.False(t, errors.As(err, &ne))
	require.Empty(t, b.hitsFor("/public/ping"))
}

// Два конкурентных запроса с 401 разделяют одно обновление.
func TestDo_ConcurrentUnauthorized_SingleRefresh(t *testing.T) {
	t.Parallel()

	const n = 2

	b := newFakeBackend(t)
	c, store, m := newTestClient(t, b)
	signIn(t, b, store)
	b.expire()

	// Оба запроса должны получить 401 до начала обновления.
	var (
		mu      sync.Mutex
		arrived int
		gate    = make(chan struct{})
	)
	b.configure(func(b *fakeBackend) {
		b.onProtected = func(r *http.Request, authorized bool) {
			if authorized {
				return
			}
			mu.Lock()
			arrived++
			if arrived == n {
				close(gate)
			}
			mu.Unlock()

			select {
			case <-gate:
			case <-time.After(2 * time.Second):
			}
		}
	})

	var wg sync.WaitGroup
	errs := make([]error, n)
	outs := make([]balance, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = c.Get(context.Background(), "/wallets/42/balance", nil, &outs[i])
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		require.EqualValues(t, 500, outs[i].AvailableBalance)
	}

	require.Len(t, b.hitsFor("/auth/refresh-auth"), 1)
	require.Equal(t, 1.0, testutil.ToFloat64(m.refresh.WithLabelValues(refreshOK)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.refresh.WithLabelValues(refreshShared)))
	require.Equal(t, float64(n), testutil.ToFloat64(m.retries))

	got, err := store.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, session.Credentials{AccessToken: "A2", RefreshToken: "R2"}, got)
}

// Два обновления подряд: в хранилище ровно последняя пара.
func TestDo_SuccessiveRefreshes_StoreHoldsLatestPair(t *testing.T) {
	t.Parallel()

	b := newFakeBackend(t)
	c, store, _ := newTestClient(t, b)
	signIn(t, b, store)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		b.expire()
		require.NoError(t, c.Get(ctx, "/wallets/42/balance", nil, nil))
	}

	got, err := store.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, session.Credentials{AccessToken: "A3", RefreshToken: "R3"}, got)

	refresh := b.hitsFor("/auth/refresh-auth")
	require.Len(t, refresh, 2)
	require.Equal(t, "refreshToken=R1", refresh[0].Query)
	require.Equal(t, "refreshToken=R2", refresh[1].Query)
}

// Внешний источник токена: attach-фаза спрашивает его, повтор идёт с токеном из refresh.
func TestDo_InjectedTokenSource(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tokens := mocks.NewMockTokenSource(ctrl)
	tokens.EXPECT().AccessToken(gomock.Any()).Return("external-token", nil).Times(1)

	b := newFakeBackend(t)
	c, store, _ := newTestClient(t, b, func(o *Options) { o.TokenSource = tokens })
	signIn(t, b, store)
	b.expire()

	require.NoError(t, c.Get(context.Background(), "/wallets/42/balance", nil, nil))

	hits := b.hitsFor("/wallets/42/balance")
	require.Len(t, hits, 2)
	require.Equal(t, "Bearer external-token", hits[0].Auth)
	require.Equal(t, "Bearer A2", hits[1].Auth)
}

func TestDo_TokenSourceError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tokens := mocks.NewMockTokenSource(ctrl)
	tokens.EXPECT().AccessToken(gomock.Any()).Return("", errors.New("provider down"))

	b := newFakeBackend(t)
	c, _, _ := newTestClient(t, b, func(o *Options) { o.TokenSource = tokens })

	err := c.Get(context.Background(), "/wallets/42/balance", nil, nil)
	require.ErrorIs(t, err, ErrTokenSource)

	var ne *NetworkError
	require.False(t, errors.As(err, &ne))
	require.Empty(t, b.hitsFor("/wallets/42/balance"))
}

// Ошибка очистки хранилища не меняет исход: AuthExpiredError.
func TestDo_RefreshFails_ClearErrorStillAuthExpired(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	b := newFakeBackend(t)
	b.configure(func(b *fakeBackend) { b.refreshStatus = http.StatusUnauthorized })

	store := mocks.NewMockStore(ctrl)
	tokens := mocks.NewMockTokenSource(ctrl)

	tokens.EXPECT().AccessToken(gomock.Any()).Return("A1", nil)
	store.EXPECT().Get(gomock.Any()).Return(session.Credentials{AccessToken: "A1", RefreshToken: "R1"}, nil)
	store.EXPECT().Clear(gomock.Any()).Return(errors.New("disk full"))

	c, err := New(Options{BaseURL: b.srv.URL, Store: store, TokenSource: tokens, Logger: discardLogger()})
	require.NoError(t, err)

	err = c.Get(context.Background(), "/wallets/42/balance", nil, nil)
	require.True(t, IsAuthExpired(err))
	require.Equal(t, http.StatusUnauthorized, StatusCode(err))
}

// Ошибка записи новой пары — ошибка хранилища, без повтора.
func TestDo_RefreshPersistError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	b := newFakeBackend(t)
	_, r := b.issue()
	b.expire()

	store := mocks.NewMockStore(ctrl)
	tokens := mocks.NewMockTokenSource(ctrl)
	persistErr := errors.New("readonly")

	tokens.EXPECT().AccessToken(gomock.Any()).Return("A1", nil)
	store.EXPECT().Get(gomock.Any()).Return(session.Credentials{AccessToken: "A1", RefreshToken: r}, nil)
	store.EXPECT().Set(gomock.Any(), session.Credentials{AccessToken: "A2", RefreshToken: "R2"}).Return(persistErr)

	c, err := New(Options{BaseURL: b.srv.URL, Store: store, TokenSource: tokens, Logger: discardLogger()})
	require.NoError(t, err)

	err = c.Get(context.Background(), "/wallets/42/balance", nil, nil)
	require.ErrorIs(t, err, persistErr)
	require.Len(t, b.hitsFor("/wallets/42/balance"), 1)
}

// Интерсепторы видят все три прохода: исходный, refresh и повтор.
func TestDo_InterceptorsSeeEveryPass(t *testing.T) {
	t.Parallel()

	type pass struct {
		path    string
		retried bool
	}

	var (
		mu     sync.Mutex
		passes []pass
	)
	rec := func(ctx context.Context, req *Request, next Invoker) (*Response, error) {
		mu.Lock()
		passes = append(passes, pass{path: req.Path, retried: Retried(ctx)})
		mu.Unlock()
		req.Header.Set("X-Request-Id", "rid-fixed")
		return next(ctx, req)
	}

	b := newFakeBackend(t)
	c, store, _ := newTestClient(t, b, func(o *Options) { o.Interceptors = []Interceptor{rec} })
	signIn(t, b, store)
	b.expire()

	require.NoError(t, c.Get(context.Background(), "/wallets/42/balance", nil, nil))

	require.Equal(t, []pass{
		{path: "/wallets/42/balance", retried: false},
		{path: "/auth/refresh-auth", retried: false},
		{path: "/wallets/42/balance", retried: true},
	}, passes)

	for _, h := range b.hitsFor("/wallets/42/balance") {
		require.Equal(t, "rid-fixed", h.RequestID)
	}
}

func TestDo_BodyQueryAndDecode(t *testing.T) {
	t.Parallel()

	b := newFakeBackend(t)
	c, store, _ := newTestClient(t, b)
	signIn(t, b, store)
	ctx := context.Background()

	t.Run("json body and query", func(t *testing.T) {
		var out struct {
			Method string         `json:"method"`
			Body   map[string]any `json:"body"`
			Q      string         `json:"q"`
		}
		err := c.Do(ctx, &Request{
			Method: http.MethodPatch,
			Path:   "/echo",
			Query:  url.Values{"q": {"hello"}},
			Body:   map[string]any{"amount": 10},
		}, &out)
		require.NoError(t, err)
		require.Equal(t, http.MethodPatch, out.Method)
		require.Equal(t, "hello", out.Q)
		require.EqualValues(t, 10, out.Body["amount"])
	})

	t.Run("wrappers set method", func(t *testing.T) {
		for _, tc := range []struct {
			method string
			call   func(out any) error
		}{
			{http.MethodPost, func(out any) error { return c.Post(ctx, "/echo", map[string]any{}, out) }},
			{http.MethodPut, func(out any) error { return c.Put(ctx, "/echo", map[string]any{}, out) }},
			{http.MethodPatch, func(out any) error { return c.Patch(ctx, "/echo", map[string]any{}, out) }},
			{http.MethodGet, func(out any) error { return c.Get(ctx, "/echo", nil, out) }},
			{http.MethodDelete, func(out any) error { return c.Delete(ctx, "/echo", out) }},
		} {
			var out struct {
				Method string `json:"method"`
			}
			require.NoError(t, tc.call(&out))
			require.Equal(t, tc.method, out.Method)
		}
	})

	t.Run("raw bytes", func(t *testing.T) {
		var raw []byte
		require.NoError(t, c.Get(ctx, "/raw", nil, &raw))
		require.Equal(t, "not-json", string(raw))
	})

	t.Run("decode error", func(t *testing.T) {
		var out map[string]any
		err := c.Get(ctx, "/raw", nil, &out)
		require.ErrorIs(t, err, ErrDecode)
	})

	t.Run("empty body", func(t *testing.T) {
		var out map[string]any
		require.NoError(t, c.Get(ctx, "/empty", nil, &out))
		require.Nil(t, out)
	})
}

func TestChain_Order(t *testing.T) {
	t.Parallel()

	var order []string
	mk := func(name string) Interceptor {
		return func(ctx context.Context, req *Request, next Invoker) (*Response, error) {
			order = append(order, name+">")
			resp, err := next(ctx, req)
			order = append(order, "<"+name)
			return resp, err
		}
	}

	inv := Chain(func(context.Context, *Request) (*Response, error) {
		order = append(order, "terminal")
		return &Response{Status: http.StatusOK}, nil
	}, mk("a"), mk("b"))

	resp, err := inv(context.Background(), &Request{Method: http.MethodGet, Path: "/"})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.Status)
	require.Equal(t, []string{"a>", "b>", "terminal", "<b", "<a"}, order)
}

func TestRetried_DefaultFalse(t *testing.T) {
	t.Parallel()
	require.False(t, Retried(context.Background()))
	require.True(t, Retried(withAttempt(context.Background(), &attempt{retried: true})))
}
