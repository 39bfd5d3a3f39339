// apiclient — HTTP-клиент wallet-бэкенда с прикладыванием bearer-токена
// и прозрачным обновлением пары токенов при 401.
//
// Основные аспекты:
//   - attach-фаза выполняется в терминальном шаге цепочки, непосредственно перед
//     отправкой: токен читается в момент отправки, а не при создании запроса;
//   - первая 401 запускает обновление пары и ровно один повтор; ответ повтора
//     (успех или ошибка) — окончательный;
//   - конкурентные обновления сериализуются слотом refreshSlot: второй запрос,
//     получивший 401, сначала видит результат первого обновления;
//   - отмена контекста прерывает отправку или вызов refresh и не трогает
//     сохранённую пару.
package apiclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"

	"github.com/pribylovaa/paybudz-client/internal/session"
)

// DefaultRefreshPath — эндпойнт обмена refresh-токена на новую пару.
const DefaultRefreshPath = "/auth/refresh-auth"

// TokenSource — источник живого access-токена для attach-фазы.
// Пустая строка без ошибки означает "нет сессии": запрос уходит без Authorization.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Options — параметры сборки клиента.
type Options struct {
	// BaseURL — единый origin для всех вызовов. Обязателен.
	BaseURL string
	// Store — хранилище пары токенов. Обязателен.
	Store session.Store
	// TokenSource — источник access-токена; по умолчанию session.NewStoreTokenSource(Store).
	TokenSource TokenSource
	// HTTPClient — транспорт; по умолчанию http.Client без общего таймаута
	// (дедлайны задаёт интерсептор таймаута).
	HTTPClient *http.Client
	// RefreshPath — путь refresh-эндпойнта; по умолчанию DefaultRefreshPath.
	RefreshPath string
	// Interceptors — цепочка вокруг терминального шага (первый — внешний).
	Interceptors []Interceptor
	// Metrics — может быть nil.
	Metrics *Metrics
	// Logger — по умолчанию slog.Default().
	Logger *slog.Logger
}

// Client — аутентифицированный клиент API.
type Client struct {
	http        *resty.Client
	store       session.Store
	tokens      TokenSource
	refreshPath string
	invoke      Invoker
	metrics     *Metrics
	log         *slog.Logger

	// refreshSlot — однослотовая блокировка подпротокола обновления.
	refreshSlot chan struct{}
	// generation растёт после каждого успешного обновления пары.
	generation atomic.Uint64
}

// New собирает клиент.
func New(opts Options) (*Client, error) {
	const op = "apiclient.New"

	if opts.BaseURL == "" {
		return nil, fmt.Errorf("%s: empty base url", op)
	}
	if _, err := url.ParseRequestURI(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("%s: base url: %w", op, err)
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("%s: nil session store", op)
	}

	lg := opts.Logger
	if lg == nil {
		lg = slog.Default()
	}

	tokens := opts.TokenSource
	if tokens == nil {
		tokens = session.NewStoreTokenSource(opts.Store)
	}

	refreshPath := opts.RefreshPath
	if refreshPath == "" {
		refreshPath = DefaultRefreshPath
	}

	var rc *resty.Client
	if opts.HTTPClient != nil {
		rc = resty.NewWithClient(opts.HTTPClient)
	} else {
		rc = resty.New()
	}

	rc.SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal).
		SetLogger(restyLogger{lg}).
		SetRetryCount(0)

	c := &Client{
		http:        rc,
		store:       opts.Store,
		tokens:      tokens,
		refreshPath: refreshPath,
		metrics:     opts.Metrics,
		log:         lg,
		refreshSlot: make(chan struct{}, 1),
	}
	c.invoke = Chain(c.transmit, opts.Interceptors...)

	return c, nil
}

// Store возвращает хранилище пары, с которым работает клиент
// (вход и выход пишут через него же).
func (c *Client) Store() session.Store { return c.store }

// Do выполняет запрос и декодирует JSON-тело успешного ответа в out.
// out == nil — тело отбрасывается; *[]byte — тело копируется как есть.
//
// Ошибки: *HTTPError, *NetworkError, *AuthExpiredError, ошибки контекста
// (errors.Is(err, context.Canceled|DeadlineExceeded)) и ErrDecode.
func (c *Client) Do(ctx context.Context, req *Request, out any) error {
	const op = "apiclient.Do"

	if req == nil || req.Method == "" || req.Path == "" {
		return fmt.Errorf("%s: %w", op, ErrInvalidRequest)
	}
	if req.Header == nil {
		req.Header = make(http.Header)
	}

	resp, err := c.send(ctx, req, false, "")
	if err != nil {
		return err
	}

	return decode(resp, out)
}

// Get — Do с методом GET.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

// Post — Do с методом POST.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

// Put — Do с методом PUT.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body}, out)
}

// Patch — Do с методом PATCH.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body}, out)
}

// Delete — Do с методом DELETE.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path}, out)
}

// send — один проход конечного автомата NORMAL -> REFRESHING -> {RETRIED, FAILED}.
// retried == true запрещает повторное обновление: повтор возможен не более одного раза.
func (c *Client) send(ctx context.Context, req *Request, retried bool, token string) (*Response, error) {
	at := &attempt{retried: retried, token: token}

	resp, err := c.invoke(withAttempt(ctx, at), req)
	if err != nil {
		return nil, c.transportError(ctx, req, at, err)
	}

	if isSuccess(resp.Status) {
		return resp, nil
	}

	httpErr := &HTTPError{
		Method: req.Method,
		Path:   req.Path,
		Status: resp.Status,
		Body:   resp.Body,
	}

	if resp.Status != http.StatusUnauthorized || retried {
		return nil, httpErr
	}

	fresh, err := c.refresh(ctx, at.generation)
	if err != nil {
		if errors.Is(err, errNoRefreshToken) {
			return nil, httpErr
		}
		return nil, err
	}

	c.metrics.retried()

	return c.send(ctx, req, true, fresh)
}

// refresh обменивает сохранённый refresh-токен на новую пару и возвращает
// access-токен для повтора. seen — поколение пары, которое видел исходный запрос.
func (c *Client) refresh(ctx context.Context, seen uint64) (string, error) {
	const op = "apiclient.refresh"

	select {
	case c.refreshSlot <- struct{}{}:
	case <-ctx.Done():
		c.metrics.refreshed(refreshCanceled)
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	}
	defer func() { <-c.refreshSlot }()

	creds, err := c.store.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: read store: %w", op, err)
	}

	// Пока запрос ждал слот, пару уже обновили: используем её без нового вызова.
	if c.generation.Load() != seen && creds.AccessToken != "" {
		c.metrics.refreshed(refreshShared)
		return creds.AccessToken, nil
	}

	if creds.RefreshToken == "" {
		c.metrics.refreshed(refreshNoToken)
		return "", errNoRefreshToken
	}

	pair, err := c.exchange(ctx, creds.RefreshToken)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			c.metrics.refreshed(refreshCanceled)
			return "", fmt.Errorf("%s: %w", op, ctxErr)
		}

		// Refresh-токен не отправлялся: пара не скомпрометирована и не отозвана.
		if errors.Is(err, ErrNotSent) {
			c.metrics.refreshed(refreshNotSent)
			c.log.Warn("refresh_not_sent", slog.String("op", op), slog.String("err", err.Error()))
			return "", fmt.Errorf("%s: %w", op, err)
		}

		c.metrics.refreshed(refreshFailed)
		c.log.Warn("refresh_failed", slog.String("op", op), slog.String("err", err.Error()))

		if clrErr := c.store.Clear(ctx); clrErr != nil {
			c.log.Error("credentials_clear_failed", slog.String("op", op), slog.String("err", clrErr.Error()))
		} else {
			c.log.Info("credentials_cleared", slog.String("op", op))
		}

		return "", &AuthExpiredError{Err: err}
	}

	if err := c.store.Set(ctx, pair); err != nil {
		return "", fmt.Errorf("%s: persist: %w", op, err)
	}
	c.generation.Add(1)
	c.metrics.refreshed(refreshOK)

	return pair.AccessToken, nil
}

// exchange вызывает refresh-эндпойнт. Запрос идёт через ту же цепочку
// интерсепторов, но без Authorization и без собственного обновления при 401.
func (c *Client) exchange(ctx context.Context, refreshToken string) (session.Credentials, error) {
	const op = "apiclient.exchange"

	req := &Request{
		Method: http.MethodPost,
		Path:   c.refreshPath,
		Query:  url.Values{"refreshToken": {refreshToken}},
		Header: make(http.Header),
	}

	at := &attempt{anonymous: true}
	resp, err := c.invoke(withAttempt(ctx, at), req)
	if err != nil {
		return session.Credentials{}, c.transportError(ctx, req, at, err)
	}

	if !isSuccess(resp.Status) {
		return session.Credentials{}, &HTTPError{
			Method: req.Method,
			Path:   req.Path,
			Status: resp.Status,
			Body:   resp.Body,
		}
	}

	var out struct {
		IDToken      string `json:"idToken"`
		RefreshToken string `json:"refreshToken"`
	}
	if err := sonic.Unmarshal(resp.Body, &out); err != nil {
		return session.Credentials{}, fmt.Errorf("%s: %w: %v", op, ErrMalformedRefresh, err)
	}
	if out.IDToken == "" || out.RefreshToken == "" {
		return session.Credentials{}, fmt.Errorf("%s: %w", op, ErrMalformedRefresh)
	}

	return session.Credentials{AccessToken: out.IDToken, RefreshToken: out.RefreshToken}, nil
}

// transmit — терминальный шаг цепочки: attach-фаза и отправка.
func (c *Client) transmit(ctx context.Context, req *Request) (*Response, error) {
	const op = "apiclient.transmit"

	at := attemptFrom(ctx)

	req.Header.Del("Authorization")
	if !at.anonymous {
		token := at.token
		if token == "" {
			at.generation = c.generation.Load()

			t, err := c.tokens.AccessToken(ctx)
			if err != nil {
				return nil, fmt.Errorf("%s: %w: %w", op, ErrTokenSource, err)
			}
			token = t
		}

		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	r := c.http.R().
		SetContext(ctx).
		SetHeaderMultiValues(req.Header)
	if len(req.Query) > 0 {
		r.SetQueryParamsFromValues(req.Query)
	}
	if req.Body != nil {
		r.SetBody(req.Body)
	}

	at.sent.Store(true)
	start := time.Now()
	resp, err := r.Execute(req.Method, req.Path)
	if err != nil {
		c.metrics.observe(req.Method, 0, time.Since(start))
		return nil, err
	}
	c.metrics.observe(req.Method, resp.StatusCode(), time.Since(start))

	return &Response{
		Status: resp.StatusCode(),
		Header: resp.Header(),
		Body:   resp.Body(),
	}, nil
}

// transportError классифицирует ошибку получения ответа.
// NetworkError — только если терминальный шаг успел начать отправку.
func (c *Client) transportError(ctx context.Context, req *Request, at *attempt, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.Path, ctxErr)
	}

	if errors.Is(err, ErrTokenSource) {
		return err
	}

	if !at.sent.Load() {
		return fmt.Errorf("%s %s: %w: %w", req.Method, req.Path, ErrNotSent, err)
	}

	return &NetworkError{Method: req.Method, Path: req.Path, Err: err}
}

func decode(resp *Response, out any) error {
	const op = "apiclient.decode"

	if out == nil || len(resp.Body) == 0 {
		return nil
	}

	if raw, ok := out.(*[]byte); ok {
		*raw = append((*raw)[:0], resp.Body...)
		return nil
	}

	if err := sonic.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%s: %w: %v", op, ErrDecode, err)
	}

	return nil
}

func isSuccess(status int) bool { return status >= 200 && status < 300 }

// restyLogger направляет внутренние сообщения resty в slog.
type restyLogger struct{ l *slog.Logger }

func (r restyLogger) Errorf(format string, v ...any) { r.l.Error(fmt.Sprintf(format, v...)) }
func (r restyLogger) Warnf(format string, v ...any)  { r.l.Warn(fmt.Sprintf(format, v...)) }
func (r restyLogger) Debugf(format string, v ...any) { r.l.Debug(fmt.Sprintf(format, v...)) }
