// sandbox — in-memory wallet-бэкенд для локальной разработки и e2e-проверок
// клиента. Повторяет контракт боевого API: JWT access-токены, ротация
// непрозрачных refresh-токенов, формат ошибок {"statusCode","message","error"}.
//
// Тестовые хуки: Expire, FailRefresh, RefreshCalls.
package sandbox

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/paybudz-client/internal/config"
	"github.com/pribylovaa/paybudz-client/internal/models"
	apierrors "github.com/pribylovaa/paybudz-client/internal/sandbox/errors"
	"github.com/pribylovaa/paybudz-client/internal/sandbox/middleware"
)

const (
	roleUser  = "user"
	roleAdmin = "admin"
)

type user struct {
	profile  models.Profile
	identity string
	active   bool
}

type refreshRecord struct {
	userID    string
	expiresAt time.Time
	revoked   bool
}

type txRecord struct {
	models.Transaction
	userID string
}

// Server — состояние sandbox и его HTTP-обработчики.
type Server struct {
	log    *slog.Logger
	tokens *tokenIssuer
	now    func() time.Time

	mu           sync.Mutex
	users        map[string]*user
	byIdentity   map[string]string
	wallets      map[string]*models.Wallet
	txs          []txRecord
	transfers    map[string]models.Transfer
	refresh      map[string]*refreshRecord
	expired      map[string]bool
	failRefresh  bool
	refreshCalls int
}

// New создаёт пустой sandbox.
func New(cfg config.SandboxConfig, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	now := func() time.Time { return time.Now().UTC() }

	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	refreshTTL := cfg.RefreshTokenTTL
	if refreshTTL <= 0 {
		refreshTTL = 30 * 24 * time.Hour
	}

	return &Server{
		log: log,
		tokens: &tokenIssuer{
			secret:     []byte(cfg.JWTSecret),
			accessTTL:  accessTTL,
			refreshTTL: refreshTTL,
			now:        now,
		},
		now:        now,
		users:      make(map[string]*user),
		byIdentity: make(map[string]string),
		wallets:    make(map[string]*models.Wallet),
		transfers:  make(map[string]models.Transfer),
		refresh:    make(map[string]*refreshRecord),
		expired:    make(map[string]bool),
	}
}

// Options — параметры сборки роутера.
type Options struct {
	Timeout time.Duration
}

// Handler собирает chi-роутер со всеми маршрутами wallet-API.
func (s *Server) Handler(opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),
		middleware.RequestID(),
		middleware.Logging(s.log),
		middleware.AuthBearer(),
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout))
	}

	root.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apierrors.WriteError(w, r, apierrors.New(apierrors.ErrNotFound, "Cannot "+r.Method+" "+r.URL.Path))
	})

	// auth
	root.Post("/auth/signup", s.signUp)
	root.Post("/auth/refresh-auth", s.refreshAuth)

	root.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(s.verify))

		// users
		r.Get("/users/me", s.me)
		r.Get("/users/username-availability", s.usernameAvailability)
		r.Patch("/users/{id}/username", s.updateUsername)
		r.Get("/users/{id}", s.userByWallet)

		// wallets
		r.Post("/wallets", s.createWallet)
		r.Post("/wallets/topup", s.topUp)
		r.Post("/wallets/cashout", s.cashout)
		r.Get("/wallets/{id}", s.getWallet)
		r.Get("/wallets/{id}/balance", s.balance)
		r.Put("/wallets/{id}/activate", s.setWalletActive(true))
		r.Put("/wallets/{id}/deactivate", s.setWalletActive(false))

		// transfers
		r.Post("/transfers", s.transfer)
		r.Get("/transactions/history", s.history)

		// admin
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(roleAdmin))

			r.Get("/admin/users/search", s.adminSearch)
			r.Patch("/admin/users/{id}/deactivate", s.adminSetUserActive(false))
			r.Patch("/admin/users/{id}/reactivate", s.adminSetUserActive(true))
			r.Get("/admin/users/{id}/transactions", s.adminTransactions)
			r.Get("/admin/analytics", s.adminAnalytics)
			r.Get("/admin/charts/transactions", s.adminChartTransactions)
			r.Get("/admin/charts/new-users", s.adminChartNewUsers)
			r.Get("/admin/charts/top-users", s.adminTopUsers)
		})
	})

	return root
}

// Expire делает access-токен недействительным до истечения срока.
func (s *Server) Expire(accessToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expired[accessToken] = true
}

// FailRefresh переключает refresh-эндпойнт в режим отказа (401).
func (s *Server) FailRefresh(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRefresh = fail
}

// RefreshCalls — число обращений к refresh-эндпойнту.
func (s *Server) RefreshCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCalls
}

// verify — проверка access-токена для middleware.RequireAuth.
func (s *Server) verify(_ context.Context, token string) (middleware.Principal, error) {
	s.mu.Lock()
	revoked := s.expired[token]
	s.mu.Unlock()

	if revoked {
		return middleware.Principal{}, apierrors.New(apierrors.ErrUnauthorized, "Token expired")
	}

	p, err := s.tokens.parse(token)
	if err != nil {
		return middleware.Principal{}, err
	}

	s.mu.Lock()
	_, ok := s.users[p.UserID]
	s.mu.Unlock()
	if !ok {
		return middleware.Principal{}, apierrors.New(apierrors.ErrUnauthorized, "Unknown user")
	}

	return p, nil
}
