// session хранит пару токенов клиента (access + refresh) и отдаёт
// access-токен для attach-фазы исходящих запросов.
//
// Основные аспекты:
//   - пара всегда пишется целиком: ни один драйвер не допускает состояния, в котором
//     access-токен от одного обновления соседствует с refresh-токеном от другого;
//   - отсутствие сохранённой пары — не ошибка: Get возвращает нулевое значение;
//   - ключи хранения фиксированы (KeyAccessToken/KeyRefreshToken), чтобы пара
//     переживала перезапуск клиента независимо от драйвера.
package session

import (
	"context"
	"errors"
)

const (
	// KeyAccessToken — ключ хранения access-токена.
	KeyAccessToken = "accessToken"
	// KeyRefreshToken — ключ хранения refresh-токена.
	KeyRefreshToken = "refreshToken"
)

var (
	// ErrUnsupportedDriver — в конфигурации указан неизвестный драйвер хранилища.
	ErrUnsupportedDriver = errors.New("unsupported session driver")
	// ErrCorrupted — сохранённые данные не удаётся разобрать.
	ErrCorrupted = errors.New("session data corrupted")
)

// Credentials — пара bearer-токенов текущей сессии.
type Credentials struct {
	AccessToken  string `yaml:"accessToken" json:"accessToken"`
	RefreshToken string `yaml:"refreshToken" json:"refreshToken"`
}

// Empty сообщает, что пара не содержит ни одного токена.
func (c Credentials) Empty() bool {
	return c.AccessToken == "" && c.RefreshToken == ""
}

// Store — долговременное хранилище пары токенов.
type Store interface {
	// Get возвращает сохранённую пару; при её отсутствии — нулевое значение и nil.
	Get(ctx context.Context) (Credentials, error)
	// Set атомарно перезаписывает оба токена.
	Set(ctx context.Context, c Credentials) error
	// Clear удаляет оба токена. Отсутствие данных не считается ошибкой.
	Clear(ctx context.Context) error
	// Close освобождает ресурсы драйвера.
	Close() error
}
