package sandbox

import (
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/pribylovaa/paybudz-client/internal/models"
	logctx "github.com/pribylovaa/paybudz-client/internal/pkg/log"
	"github.com/pribylovaa/paybudz-client/internal/pkg/redact"
	apierrors "github.com/pribylovaa/paybudz-client/internal/sandbox/errors"
)

// adminPrefix в idToken выдаёт пользователю роль admin.
const adminPrefix = "admin:"

var nonUsername = regexp.MustCompile(`[^a-z0-9_]+`)

// signUp — POST /auth/signup {idToken}. idToken sandbox трактует как
// идентичность внешнего провайдера (обычно email): повторный вход
// тем же idToken возвращает того же пользователя.
func (s *Server) signUp(w http.ResponseWriter, r *http.Request) {
	var in models.SignUpRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	identity := strings.TrimSpace(in.IDToken)
	if identity == "" {
		apierrors.WriteError(w, r, apierrors.New(apierrors.ErrInvalidArgument, "idToken is required"))
		return
	}

	s.mu.Lock()
	u := s.userByIdentityLocked(identity)
	pair, err := s.issuePairLocked(u)
	s.mu.Unlock()
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	logctx.From(r.Context()).Info("signup_ok", slog.String("user_id", u.profile.ID))
	writeJSON(w, http.StatusCreated, pair)
}

// refreshAuth — POST /auth/refresh-auth?refreshToken=. Старый refresh-токен
// отзывается, выдаётся новая пара.
func (s *Server) refreshAuth(w http.ResponseWriter, r *http.Request) {
	lg := logctx.From(r.Context())
	plain := r.URL.Query().Get("refreshToken")

	s.mu.Lock()
	s.refreshCalls++

	if s.failRefresh {
		s.mu.Unlock()
		lg.Warn("refresh_forced_failure")
		apierrors.WriteError(w, r, apierrors.New(apierrors.ErrUnauthorized, "Refresh failed"))
		return
	}

	rec := s.refresh[hashToken(plain)]
	if plain == "" || rec == nil || rec.revoked || !s.now().Before(rec.expiresAt) {
		s.mu.Unlock()
		lg.Warn("refresh_rejected", slog.String("token", redact.Token(plain)))
		apierrors.WriteError(w, r, apierrors.New(apierrors.ErrUnauthorized, "Invalid refresh token"))
		return
	}
	rec.revoked = true

	u := s.users[rec.userID]
	pair, err := s.issuePairLocked(u)
	s.mu.Unlock()
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	lg.Info("refresh_ok", slog.String("user_id", u.profile.ID))
	writeJSON(w, http.StatusCreated, models.RefreshResponse{IDToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (s *Server) issuePairLocked(u *user) (models.TokenPair, error) {
	access, err := s.tokens.access(u.profile.ID, u.profile.Role)
	if err != nil {
		return models.TokenPair{}, err
	}

	refresh := randomToken(32)
	s.refresh[hashToken(refresh)] = &refreshRecord{
		userID:    u.profile.ID,
		expiresAt: s.now().Add(s.tokens.refreshTTL),
	}

	return models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// userByIdentityLocked находит или регистрирует пользователя с NGN-кошельком.
func (s *Server) userByIdentityLocked(identity string) *user {
	if id, ok := s.byIdentity[identity]; ok {
		return s.users[id]
	}

	role := roleUser
	email := identity
	if strings.HasPrefix(email, adminPrefix) {
		role = roleAdmin
		email = strings.TrimPrefix(email, adminPrefix)
	}
	if !strings.Contains(email, "@") {
		email += "@sandbox.local"
	}
	email = strings.ToLower(email)

	local := email[:strings.Index(email, "@")]
	base := nonUsername.ReplaceAllString(local, "")
	if base == "" {
		base = "user"
	}
	username := base
	for i := 2; s.usernameTakenLocked(username, ""); i++ {
		username = fmt.Sprintf("%s%d", base, i)
	}

	now := s.now()
	u := &user{
		identity: identity,
		active:   true,
		profile: models.Profile{
			ID:        uuid.NewString(),
			FirstName: strings.ToUpper(base[:1]) + base[1:],
			LastName:  "Sandbox",
			Email:     email,
			Username:  username,
			Role:      role,
			Wallets:   map[models.Currency]string{},
			CreatedAt: now,
		},
	}
	s.users[u.profile.ID] = u
	s.byIdentity[identity] = u.profile.ID

	s.newWalletLocked(u, models.CurrencyNGN)

	return u
}
