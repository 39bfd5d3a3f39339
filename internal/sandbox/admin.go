package sandbox

import (
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/paybudz-client/internal/models"
	logctx "github.com/pribylovaa/paybudz-client/internal/pkg/log"
	apierrors "github.com/pribylovaa/paybudz-client/internal/sandbox/errors"
)

const chartDay = "2006-01-02"

func (s *Server) adminSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("query")))
	if query == "" {
		apierrors.WriteError(w, r, apierrors.New(apierrors.ErrInvalidArgument, "query is required"))
		return
	}

	s.mu.Lock()
	out := make([]models.User, 0)
	for _, u := range s.users {
		p := u.profile
		if strings.Contains(p.Username, query) ||
			strings.Contains(p.Email, query) ||
			strings.Contains(strings.ToLower(p.FirstName+" "+p.LastName), query) {
			out = append(out, publicUser(u))
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	writeJSON(w, http.StatusOK, out)
}

// adminSetUserActive блокирует (или разблокирует) пользователя вместе
// со всеми его кошельками.
func (s *Server) adminSetUserActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		s.mu.Lock()
		u, ok := s.users[id]
		if !ok {
			s.mu.Unlock()
			apierrors.WriteError(w, r, apierrors.New(apierrors.ErrNotFound, "User not found"))
			return
		}

		u.active = active
		for _, wid := range u.profile.Wallets {
			s.wallets[wid].IsActive = active
		}
		out := publicUser(u)
		s.mu.Unlock()

		logctx.From(r.Context()).Info("admin_user_active",
			slog.String("user_id", id),
			slog.Bool("active", active),
		)
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) adminTransactions(w http.ResponseWriter, r *http.Request) {
	q, err := parseTxQuery(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		apierrors.WriteError(w, r, apierrors.New(apierrors.ErrNotFound, "User not found"))
		return
	}

	writeJSON(w, http.StatusOK, s.pageLocked(id, q))
}

func (s *Server) adminAnalytics(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := models.AnalyticsSummary{
		TotalUsers:        int64(len(s.users)),
		TotalTransactions: int64(len(s.txs)),
	}
	for _, wl := range s.wallets {
		if wl.IsActive {
			out.ActiveWallets++
		}
	}
	for _, tx := range s.txs {
		if tx.Type == models.TransactionDebit {
			out.TotalVolume += tx.Amount
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

// adminChartTransactions — объём списаний по дням.
func (s *Server) adminChartTransactions(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	byDay := make(map[string]float64)
	for _, tx := range s.txs {
		if tx.Type == models.TransactionDebit {
			byDay[tx.CreatedAt.Format(chartDay)] += tx.Amount
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, chart(byDay))
}

func (s *Server) adminChartNewUsers(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	byDay := make(map[string]float64)
	for _, u := range s.users {
		byDay[u.profile.CreatedAt.Format(chartDay)]++
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, chart(byDay))
}

func (s *Server) adminTopUsers(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	s.mu.Lock()
	stats := make(map[string]*models.TopUser)
	for _, tx := range s.txs {
		if tx.Type != models.TransactionDebit {
			continue
		}
		st, ok := stats[tx.userID]
		if !ok {
			st = &models.TopUser{UserID: tx.userID, Username: s.users[tx.userID].profile.Username}
			stats[tx.userID] = st
		}
		st.TransactionCount++
		st.Volume += tx.Amount
	}
	s.mu.Unlock()

	out := make([]models.TopUser, 0, len(stats))
	for _, st := range stats {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Volume != out[j].Volume {
			return out[i].Volume > out[j].Volume
		}
		return out[i].Username < out[j].Username
	})
	if len(out) > limit {
		out = out[:limit]
	}

	writeJSON(w, http.StatusOK, out)
}

func chart(byDay map[string]float64) []models.ChartPoint {
	out := make([]models.ChartPoint, 0, len(byDay))
	for day, v := range byDay {
		out = append(out, models.ChartPoint{Label: day, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })

	return out
}
