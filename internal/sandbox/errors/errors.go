// errors стандартизирует ответы об ошибках sandbox-бэкенда.
// На вход он принимает доменную ошибку обработчика, а на выход даёт:
//   - корректный HTTP-статус;
//   - тело в формате wallet-бэкенда {"statusCode","message","error"}.
//
// Сообщение берётся из *Error (безопасный текст для клиента); прочие
// ошибки превращаются в 500 без утечки деталей.
package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/bytedance/sonic"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// Категории ошибок (errors.Is по ним определяет статус).
var (
	ErrInvalidArgument = stderrors.New("bad request")
	ErrUnauthorized    = stderrors.New("unauthorized")
	ErrForbidden       = stderrors.New("forbidden")
	ErrNotFound        = stderrors.New("not found")
	ErrConflict        = stderrors.New("conflict")
	ErrCanceled        = stderrors.New("canceled")
	ErrTimeout         = stderrors.New("request timeout")
)

// Error — ошибка категории Kind с сообщением для клиента.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// New — короткий конструктор *Error.
func New(kind error, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

// APIError — тело ответа об ошибке.
// RequestID прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Error      string `json:"error,omitempty"`
	RequestID  string `json:"requestId,omitempty"`
}

// ToHTTP конвертирует ошибку обработчика в HTTP-статус и тело.
//
// Поведение:
//   - err == nil — программная ошибка вызова: 500, чтобы не маскировать баг;
//   - категория не распознана — 500 "Internal server error";
//   - иначе статус по категории, message из *Error или текст категории.
func ToHTTP(err error) (int, APIError) {
	status := statusOf(err)

	msg := "Internal server error"
	if status != http.StatusInternalServerError {
		msg = err.Error()
		var e *Error
		if stderrors.As(err, &e) && e.Message != "" {
			msg = e.Message
		}
	}

	text := http.StatusText(status)
	if status == StatusClientClosedRequest {
		text = "Client Closed Request"
	}

	return status, APIError{StatusCode: status, Message: msg, Error: text}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет статус и тело, добавляет request id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigStd.NewEncoder(w).Encode(resp)
}

func statusOf(err error) int {
	switch {
	case err == nil:
		return http.StatusInternalServerError
	case stderrors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	case stderrors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case stderrors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case stderrors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, ErrConflict):
		return http.StatusConflict
	case stderrors.Is(err, ErrCanceled):
		return StatusClientClosedRequest
	case stderrors.Is(err, ErrTimeout):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}
