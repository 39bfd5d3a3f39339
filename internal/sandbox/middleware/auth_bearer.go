package middleware

import (
	"context"
	"net/http"
	"strings"

	apierrors "github.com/pribylovaa/paybudz-client/internal/sandbox/errors"
)

type ctxKey string

const (
	ctxAuthToken ctxKey = "auth_token"
	ctxPrincipal ctxKey = "principal"
)

// Principal — аутентифицированный вызывающий.
type Principal struct {
	UserID string
	Role   string
}

// Verifier проверяет access-токен и возвращает вызывающего.
type Verifier func(ctx context.Context, token string) (Principal, error)

// AuthBearer извлекает Bearer-токен из Authorization и кладёт "сырой" токен
// в контекст. Отсутствие токена не ошибка: решает RequireAuth.
func AuthBearer() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth != "" {
				const prefix = "Bearer "
				if strings.HasPrefix(auth, prefix) && len(auth) > len(prefix) {
					token := strings.TrimSpace(auth[len(prefix):])
					if token != "" {
						r = r.WithContext(context.WithValue(r.Context(), ctxAuthToken, token))
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth пропускает только запросы с валидным токеном; иначе 401.
func RequireAuth(verify Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, _ := r.Context().Value(ctxAuthToken).(string)
			if token == "" {
				apierrors.WriteError(w, r, apierrors.New(apierrors.ErrUnauthorized, "Unauthorized"))
				return
			}

			p, err := verify(r.Context(), token)
			if err != nil {
				apierrors.WriteError(w, r, err)
				return
			}

			noteCaller(r.Context(), p)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxPrincipal, p)))
		})
	}
}

// RequireRole пропускает только вызывающих с ролью role; иначе 403.
func RequireRole(role string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r.Context())
			if !ok || p.Role != role {
				apierrors.WriteError(w, r, apierrors.New(apierrors.ErrForbidden, "Forbidden resource"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// PrincipalFrom достаёт вызывающего, положенного RequireAuth.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxPrincipal).(Principal)
	return p, ok
}
