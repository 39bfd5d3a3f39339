package apiclient

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

var (
	// ErrInvalidRequest — у запроса не задан метод или путь.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrDecode — тело успешного ответа не удалось разобрать в ожидаемый тип.
	ErrDecode = errors.New("decode response")
	// ErrMalformedRefresh — refresh-эндпойнт ответил 2xx без пары токенов.
	ErrMalformedRefresh = errors.New("malformed refresh response")
	// ErrTokenSource — источник access-токена вернул ошибку в attach-фазе.
	ErrTokenSource = errors.New("token source failed")
	// ErrNotSent — проход завершился в интерсепторах до отправки
	// (rate limit, дедлайн цепочки). Бэкенд запрос не видел.
	ErrNotSent = errors.New("request not sent")

	errNoRefreshToken = errors.New("no refresh token")
)

// HTTPError — получен не-2xx ответ (кроме первой 401, которая запускает обновление).
type HTTPError struct {
	Method string
	Path   string
	Status int
	Body   []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message())
}

// Message достаёт поле message из тела ответа бэкенда: строку или первый
// элемент массива (ошибки валидации). Иначе — текст статуса.
func (e *HTTPError) Message() string {
	if len(e.Body) > 0 && gjson.ValidBytes(e.Body) {
		msg := gjson.GetBytes(e.Body, "message")
		switch {
		case msg.IsArray() && len(msg.Array()) > 0:
			return msg.Array()[0].String()
		case msg.Type == gjson.String && msg.String() != "":
			return msg.String()
		}
	}

	if t := http.StatusText(e.Status); t != "" {
		return t
	}

	return "unexpected status"
}

// NetworkError — ответ не получен (DNS, соединение, TLS, обрыв).
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: network: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AuthExpiredError — терминальный исход неудачного обновления пары.
// Сохранённые токены к этому моменту уже удалены; вызывающему нужно
// отправить пользователя на повторный вход.
type AuthExpiredError struct {
	Err error
}

func (e *AuthExpiredError) Error() string {
	return fmt.Sprintf("session expired: %v", e.Err)
}

func (e *AuthExpiredError) Unwrap() error { return e.Err }

// IsAuthExpired сообщает, что err — исход неудачного обновления пары.
func IsAuthExpired(err error) bool {
	var ae *AuthExpiredError
	return errors.As(err, &ae)
}

// StatusCode возвращает HTTP-статус из цепочки ошибок или 0.
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Status
	}

	return 0
}

// IsUnauthorized — err несёт HTTP 401.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}
