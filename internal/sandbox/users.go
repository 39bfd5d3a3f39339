package sandbox

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/paybudz-client/internal/models"
	apierrors "github.com/pribylovaa/paybudz-client/internal/sandbox/errors"
)

var validUsername = regexp.MustCompile(`^[a-z0-9_]{3,30}$`)

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	u := s.users[principal(r).UserID]
	out := copyProfile(u.profile)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) usernameAvailability(w http.ResponseWriter, r *http.Request) {
	name := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("username")))
	if name == "" {
		apierrors.WriteError(w, r, apierrors.New(apierrors.ErrInvalidArgument, "username is required"))
		return
	}

	s.mu.Lock()
	taken := s.usernameTakenLocked(name, principal(r).UserID)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, models.UsernameAvailability{Available: !taken && validUsername.MatchString(name)})
}

func (s *Server) updateUsername(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p := principal(r)
	if id != p.UserID && p.Role != roleAdmin {
		apierrors.WriteError(w, r, apierrors.New(apierrors.ErrForbidden, "Cannot update another user"))
		return
	}

	var in models.UpdateUsernameRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	name := strings.ToLower(strings.TrimSpace(in.Username))
	if !validUsername.MatchString(name) {
		apierrors.WriteError(w, r, apierrors.New(apierrors.ErrInvalidArgument,
			"username must be 3-30 characters of a-z, 0-9 or _"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		apierrors.WriteError(w, r, apierrors.New(apierrors.ErrNotFound, "User not found"))
		return
	}
	if s.usernameTakenLocked(name, id) {
		apierrors.WriteError(w, r, apierrors.New(apierrors.ErrConflict, "Username already taken"))
		return
	}

	u.profile.Username = name
	writeJSON(w, http.StatusOK, copyProfile(u.profile))
}

// userByWallet — GET /users/{id}: владелец кошелька id (или пользователь id).
func (s *Server) userByWallet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()

	if wl, ok := s.wallets[id]; ok {
		id = wl.UserID
	}

	u, ok := s.users[id]
	if !ok {
		apierrors.WriteError(w, r, apierrors.New(apierrors.ErrNotFound, "User not found"))
		return
	}

	writeJSON(w, http.StatusOK, publicUser(u))
}

func (s *Server) usernameTakenLocked(name, exceptID string) bool {
	for id, u := range s.users {
		if id != exceptID && u.profile.Username == name {
			return true
		}
	}

	return false
}

func (s *Server) userByUsernameLocked(name string) *user {
	name = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "@"))
	for _, u := range s.users {
		if u.profile.Username == name {
			return u
		}
	}

	return nil
}

func copyProfile(p models.Profile) models.Profile {
	wallets := make(map[models.Currency]string, len(p.Wallets))
	for k, v := range p.Wallets {
		wallets[k] = v
	}
	p.Wallets = wallets

	return p
}

func publicUser(u *user) models.User {
	return models.User{
		ID:        u.profile.ID,
		Username:  u.profile.Username,
		FirstName: u.profile.FirstName,
		LastName:  u.profile.LastName,
		Email:     u.profile.Email,
		IsActive:  u.active,
	}
}
