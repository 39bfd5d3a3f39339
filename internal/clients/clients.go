package clients

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/pribylovaa/paybudz-client/internal/api"
	"github.com/pribylovaa/paybudz-client/internal/apiclient"
	"github.com/pribylovaa/paybudz-client/internal/apiclient/interceptors"
	"github.com/pribylovaa/paybudz-client/internal/config"
	"github.com/pribylovaa/paybudz-client/internal/session"
)

// Clients агрегирует хранилище сессии, HTTP-клиент и группы вызовов API.
type Clients struct {
	*api.API

	HTTP    *apiclient.Client
	Session session.Store
}

// Options — необязательные зависимости сборки.
type Options struct {
	// Store — готовое хранилище; nil — session.New по cfg.Session.
	Store session.Store
	// TokenSource — внешний источник access-токена; nil — из хранилища.
	TokenSource apiclient.TokenSource
	// Registerer — куда регистрировать метрики; nil — метрики не собираются.
	Registerer prometheus.Registerer
}

// New собирает клиента по конфигурации.
func New(ctx context.Context, cfg config.Config, log *slog.Logger, opts Options) (*Clients, error) {
	const op = "internal/clients/New"

	store := opts.Store
	if store == nil {
		st, err := session.New(ctx, cfg.Session)
		if err != nil {
			return nil, fmt.Errorf("%s: session store: %w", op, err)
		}
		store = st
	}

	var limiter *rate.Limiter
	if cfg.API.RateLimit > 0 {
		burst := cfg.API.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.API.RateLimit), burst)
	}

	var metrics *apiclient.Metrics
	if opts.Registerer != nil {
		metrics = apiclient.NewMetrics(opts.Registerer)
	}

	// Цепочка интерсепторов: metadata -> timeout -> logging -> rate limit.
	chain := []apiclient.Interceptor{
		interceptors.WithMetadata(cfg.API.UserAgent),
		interceptors.WithTimeout(cfg.API.Timeout),
		interceptors.Logging(log),
		interceptors.RateLimit(limiter),
	}

	httpClient, err := apiclient.New(apiclient.Options{
		BaseURL:      cfg.API.BaseURL,
		Store:        store,
		TokenSource:  opts.TokenSource,
		RefreshPath:  cfg.API.RefreshPath,
		Interceptors: chain,
		Metrics:      metrics,
		Logger:       log,
	})
	if err != nil {
		if opts.Store == nil {
			_ = store.Close()
		}
		return nil, fmt.Errorf("%s: api client: %w", op, err)
	}

	return &Clients{
		API:     api.New(httpClient),
		HTTP:    httpClient,
		Session: store,
	}, nil
}

// Close освобождает хранилище сессии.
func (c *Clients) Close() error {
	return c.Session.Close()
}
