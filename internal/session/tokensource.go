package session

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultExpirySkew — запас до истечения access-токена, при котором он уже
// считается просроченным и не прикладывается к запросу.
const DefaultExpirySkew = 5 * time.Second

// TokenSourceFunc адаптирует функцию к интерфейсу источника access-токена клиента.
type TokenSourceFunc func(ctx context.Context) (string, error)

// AccessToken вызывает f(ctx).
func (f TokenSourceFunc) AccessToken(ctx context.Context) (string, error) { return f(ctx) }

// StaticTokenSource всегда отдаёт один и тот же токен. Пустой токен — "нет сессии".
func StaticTokenSource(token string) TokenSourceFunc {
	return func(context.Context) (string, error) { return token, nil }
}

// StoreTokenSource отдаёт access-токен из Store.
//
// Если токен является JWT с истёкшим (с учётом skew) exp, возвращается пустая строка:
// запрос уйдёт без Authorization, а бэкенд ответит 401 и запустит обновление пары.
// Непрозрачные (не-JWT) токены возвращаются как есть.
type StoreTokenSource struct {
	store Store
	skew  time.Duration
	now   func() time.Time
}

// NewStoreTokenSource создаёт источник поверх хранилища с DefaultExpirySkew.
func NewStoreTokenSource(store Store) *StoreTokenSource {
	return &StoreTokenSource{
		store: store,
		skew:  DefaultExpirySkew,
		now:   time.Now,
	}
}

// AccessToken возвращает живой access-токен или "".
func (s *StoreTokenSource) AccessToken(ctx context.Context) (string, error) {
	const op = "session.StoreTokenSource.AccessToken"

	c, err := s.store.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if c.AccessToken == "" || expired(c.AccessToken, s.now(), s.skew) {
		return "", nil
	}

	return c.AccessToken, nil
}

// expired разбирает JWT без проверки подписи: подпись проверяет бэкенд,
// клиенту нужен только exp, чтобы не отправлять заведомо мёртвый токен.
func expired(token string, now time.Time, skew time.Duration) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}

	if claims.ExpiresAt == nil {
		return false
	}

	return !now.Add(skew).Before(claims.ExpiresAt.Time)
}
