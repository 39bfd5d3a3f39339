package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/paybudz-client/internal/apiclient/interceptors"
	logctx "github.com/pribylovaa/paybudz-client/internal/pkg/log"
	apierrors "github.com/pribylovaa/paybudz-client/internal/sandbox/errors"
)

// capHandler — тестовый slog.Handler, который:
//   - аккумулирует базовые attrs, приходящие через Logger.With(...);
//   - собирает attrs из каждой записи в map[string]any.
type capHandler struct {
	base    []slog.Attr
	lastMsg string
	lastLvl slog.Level
	attrs   map[string]any
	count   int
}

func (h *capHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *capHandler) Handle(_ context.Context, r slog.Record) error {
	out := make(map[string]any, len(h.base)+8)
	for _, a := range h.base {
		out[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		out[a.Key] = a.Value.Any()
		return true
	})
	h.count++
	h.lastMsg = r.Message
	h.lastLvl = r.Level
	h.attrs = out
	return nil
}

func (h *capHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) > 0 {
		h.base = append(h.base, attrs...)
	}
	return h
}

func (h *capHandler) WithGroup(string) slog.Handler { return h }

func makeReq(target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.RemoteAddr = (&net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 12345}).String()
	return req
}

func decodeErr(t *testing.T, rr *httptest.ResponseRecorder) apierrors.APIError {
	t.Helper()
	var body apierrors.APIError
	require.NoError(t, sonic.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestChain_Order(t *testing.T) {
	t.Parallel()

	order := []string{}
	mk := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name+"-begin")
				next.ServeHTTP(w, r)
				order = append(order, name+"-end")
			})
		}
	}

	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
		w.WriteHeader(http.StatusTeapot)
	})

	rr := httptest.NewRecorder()
	Chain(final, mk("m1"), mk("m2")).ServeHTTP(rr, makeReq("/chain"))

	require.Equal(t, []string{"m1-begin", "m2-begin", "handler", "m2-end", "m1-end"}, order)
	require.Equal(t, http.StatusTeapot, rr.Code)
}

func TestRequestID_GenerateAndPropagate(t *testing.T) {
	t.Parallel()

	var seenID, seenCtxID string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = r.Header.Get("X-Request-Id")
		seenCtxID, _ = r.Context().Value(interceptors.CtxRequestID).(string)
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	Chain(h, RequestID()).ServeHTTP(rr, makeReq("/rid"))

	respID := rr.Header().Get("X-Request-Id")
	_, err := uuid.Parse(respID)
	require.NoError(t, err)
	require.Equal(t, respID, seenID)
	require.Equal(t, respID, seenCtxID)
}

func TestRequestID_UseExisting(t *testing.T) {
	t.Parallel()

	const given = "abc123-existing-id"
	var seenCtxID string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenCtxID, _ = r.Context().Value(interceptors.CtxRequestID).(string)
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	req := makeReq("/rid2")
	req.Header.Set("X-Request-Id", given)
	Chain(h, RequestID()).ServeHTTP(rr, req)

	require.Equal(t, given, rr.Header().Get("X-Request-Id"))
	require.Equal(t, given, seenCtxID)
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	verify := func(_ context.Context, token string) (Principal, error) {
		if token == "good" {
			return Principal{UserID: "u1", Role: "user"}, nil
		}
		return Principal{}, apierrors.New(apierrors.ErrUnauthorized, "Invalid token")
	}

	var seen Principal
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = PrincipalFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}), AuthBearer(), RequireAuth(verify))

	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{name: "valid", header: "Bearer good", status: http.StatusOK},
		{name: "missing", header: "", status: http.StatusUnauthorized, message: "Unauthorized"},
		{name: "not bearer", header: "Basic aaa", status: http.StatusUnauthorized, message: "Unauthorized"},
		{name: "bad token", header: "Bearer bad", status: http.StatusUnauthorized, message: "Invalid token"},
	}

	for _, tc := range tests {
		rr := httptest.NewRecorder()
		req := makeReq("/users/me")
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		h.ServeHTTP(rr, req)

		require.Equal(t, tc.status, rr.Code, tc.name)
		if tc.status == http.StatusOK {
			require.Equal(t, "u1", seen.UserID)
			continue
		}
		require.Equal(t, tc.message, decodeErr(t, rr).Message, tc.name)
	}
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	mkVerify := func(role string) Verifier {
		return func(context.Context, string) (Principal, error) {
			return Principal{UserID: "u1", Role: role}, nil
		}
	}
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	for role, want := range map[string]int{"admin": http.StatusOK, "user": http.StatusForbidden} {
		rr := httptest.NewRecorder()
		req := makeReq("/admin/analytics")
		req.Header.Set("Authorization", "Bearer t")
		Chain(ok, AuthBearer(), RequireAuth(mkVerify(role)), RequireRole("admin")).ServeHTTP(rr, req)
		require.Equal(t, want, rr.Code, role)
	}

	// Без RequireAuth принципала нет.
	rr := httptest.NewRecorder()
	Chain(ok, RequireRole("admin")).ServeHTTP(rr, makeReq("/admin"))
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestTimeout_SetsDeadline_WhenAbsent(t *testing.T) {
	t.Parallel()

	var hasDeadline bool
	var left time.Duration
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dl, ok := r.Context().Deadline()
		hasDeadline = ok
		if ok {
			left = time.Until(dl)
		}
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	Chain(h, Timeout(50*time.Millisecond)).ServeHTTP(rr, makeReq("/timeout"))

	require.True(t, hasDeadline)
	require.Greater(t, left, time.Duration(0))
}

func TestTimeout_DoesNotOverrideExistingDeadline(t *testing.T) {
	t.Parallel()

	var childDL time.Time
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		childDL, _ = r.Context().Deadline()
		w.WriteHeader(http.StatusOK)
	})

	parent, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	rr := httptest.NewRecorder()
	Chain(h, Timeout(time.Second)).ServeHTTP(rr, makeReq("/timeout2").WithContext(parent))

	parentDL, _ := parent.Deadline()
	require.WithinDuration(t, parentDL, childDL, time.Millisecond)
}

func TestRecover_ConvertsPanicTo500(t *testing.T) {
	t.Parallel()

	panicHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(errors.New("boom"))
	})

	rr := httptest.NewRecorder()
	Chain(panicHandler, Recover()).ServeHTTP(rr, makeReq("/panic"))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	body := decodeErr(t, rr)
	require.Equal(t, 500, body.StatusCode)
	require.NotContains(t, body.Message, "boom")
}

func TestLogging_WritesRecord_WithStatusDurBytesAndRequestID(t *testing.T) {
	t.Parallel()

	h := &capHandler{}
	logger := slog.New(h)

	const rid = "rid-456"
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Не вызываем WriteHeader — статус должен стать 200 после Write.
		_, _ = w.Write([]byte("0123456789"))
	})

	rr := httptest.NewRecorder()
	req := makeReq("/auth/refresh-auth?refreshToken=secret")
	req.Header.Set("X-Request-Id", rid)
	Chain(final, RequestID(), Logging(logger)).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, 1, h.count)
	require.Equal(t, "http", h.lastMsg)

	require.Equal(t, http.MethodGet, h.attrs["method"])
	require.Equal(t, "/auth/refresh-auth", h.attrs["path"])
	require.EqualValues(t, http.StatusOK, h.attrs["status"])
	require.EqualValues(t, 10, h.attrs["bytes"])
	require.Equal(t, rid, h.attrs["request_id"])

	_, hasDur := h.attrs["dur"]
	require.True(t, hasDur)
	for _, v := range h.attrs {
		if s, ok := v.(string); ok {
			require.NotContains(t, s, "secret")
		}
	}
}

func TestStatusWriter_CountsBytes_AndDefaultStatus200(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	sw := newStatusWriter(rr)
	_, _ = sw.Write([]byte("abcd"))

	require.Equal(t, http.StatusOK, sw.status)
	require.Equal(t, 4, sw.count)
}

func TestTimeout_WritesRequestTimeout_WhenHandlerGivesUp(t *testing.T) {
	t.Parallel()

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	rr := httptest.NewRecorder()
	Chain(h, Timeout(20*time.Millisecond)).ServeHTTP(rr, makeReq("/wallets/topup"))

	require.Equal(t, http.StatusRequestTimeout, rr.Code)
	body := decodeErr(t, rr)
	require.Equal(t, "Request timed out", body.Message)
	require.Equal(t, "Request Timeout", body.Error)
}

// Ответ, начатый до дедлайна, не перезаписывается.
func TestTimeout_KeepsStartedResponse(t *testing.T) {
	t.Parallel()

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		<-r.Context().Done()
	})

	rr := httptest.NewRecorder()
	Chain(h, Timeout(20*time.Millisecond)).ServeHTTP(rr, makeReq("/transfers"))

	require.Equal(t, http.StatusCreated, rr.Code)
	require.Empty(t, rr.Body.String())
}

func TestLogging_RecordsAuthenticatedCaller(t *testing.T) {
	t.Parallel()

	verify := func(context.Context, string) (Principal, error) {
		return Principal{UserID: "u-42", Role: "admin"}, nil
	}
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	t.Run("authenticated", func(t *testing.T) {
		t.Parallel()

		h := &capHandler{}
		req := makeReq("/admin/analytics")
		req.Header.Set("Authorization", "Bearer t")

		rr := httptest.NewRecorder()
		Chain(ok, Logging(slog.New(h)), AuthBearer(), RequireAuth(verify)).ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		require.Equal(t, "u-42", h.attrs["user_id"])
		require.Equal(t, "admin", h.attrs["role"])
	})

	t.Run("anonymous", func(t *testing.T) {
		t.Parallel()

		h := &capHandler{}
		rr := httptest.NewRecorder()
		Chain(ok, Logging(slog.New(h))).ServeHTTP(rr, makeReq("/auth/signup"))

		require.Equal(t, "http", h.lastMsg)
		_, has := h.attrs["user_id"]
		require.False(t, has)
	})
}

func TestRecover_LogsRouteAndCaller(t *testing.T) {
	t.Parallel()

	h := &capHandler{}
	verify := func(context.Context, string) (Principal, error) {
		return Principal{UserID: "u-7", Role: "user"}, nil
	}
	panicky := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("nil wallet") })

	req := makeReq("/wallets/w-1/balance")
	req.Header.Set("Authorization", "Bearer t")
	req = req.WithContext(logctx.Into(req.Context(), slog.New(h)))

	rr := httptest.NewRecorder()
	Chain(panicky, Recover(), AuthBearer(), RequireAuth(verify)).ServeHTTP(rr, req)

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Equal(t, "handler_panic", h.lastMsg)
	require.Equal(t, slog.LevelError, h.lastLvl)
	require.Equal(t, "/wallets/w-1/balance", h.attrs["path"])
	require.Equal(t, "u-7", h.attrs["user_id"])
	require.NotContains(t, rr.Body.String(), "nil wallet")
}

// Паника после начала ответа не дописывает второе тело.
func TestRecover_ResponseAlreadyStarted(t *testing.T) {
	t.Parallel()

	panicky := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		panic("late")
	})

	rr := httptest.NewRecorder()
	Chain(panicky, Recover()).ServeHTTP(rr, makeReq("/wallets/cashout"))

	require.Equal(t, http.StatusAccepted, rr.Code)
	require.Empty(t, rr.Body.String())
}
