package sandbox

import (
	"net/http"
	"strconv"

	"github.com/bytedance/sonic"

	apierrors "github.com/pribylovaa/paybudz-client/internal/sandbox/errors"
	"github.com/pribylovaa/paybudz-client/internal/sandbox/middleware"
)

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigStd.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := sonic.ConfigStd.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(value); err != nil {
		return apierrors.New(apierrors.ErrInvalidArgument, "Invalid request body")
	}

	return nil
}

func principal(r *http.Request) middleware.Principal {
	p, _ := middleware.PrincipalFrom(r.Context())
	return p
}

// queryInt — положительное целое из query или def; мусор — ошибка 400.
func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, apierrors.New(apierrors.ErrInvalidArgument, key+" must be a positive integer")
	}

	return n, nil
}
