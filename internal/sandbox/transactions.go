package sandbox

import (
	"net/http"
	"strings"
	"time"

	"github.com/pribylovaa/paybudz-client/internal/models"
	apierrors "github.com/pribylovaa/paybudz-client/internal/sandbox/errors"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// txQuery — разобранные параметры выборки истории.
type txQuery struct {
	status   string
	currency models.Currency
	typ      models.TransactionType
	from     time.Time
	to       time.Time
	sort     models.SortOrder
	page     int
	limit    int
}

func parseTxQuery(r *http.Request) (txQuery, error) {
	q := r.URL.Query()

	out := txQuery{
		status:   strings.ToUpper(q.Get("status")),
		currency: models.Currency(strings.ToUpper(q.Get("currency"))),
		typ:      models.TransactionType(strings.ToUpper(q.Get("type"))),
		sort:     models.SortOrder(strings.ToUpper(q.Get("sort"))),
	}

	switch out.sort {
	case "":
		out.sort = models.SortDesc
	case models.SortAsc, models.SortDesc:
	default:
		return txQuery{}, apierrors.New(apierrors.ErrInvalidArgument, "sort must be ASC or DESC")
	}

	if out.currency != "" && !out.currency.Valid() {
		return txQuery{}, apierrors.New(apierrors.ErrInvalidArgument, "currency must be one of NGN, USD, EUR")
	}

	switch out.typ {
	case "", models.TransactionDebit, models.TransactionCredit:
	default:
		return txQuery{}, apierrors.New(apierrors.ErrInvalidArgument, "type must be DEBIT or CREDIT")
	}

	var err error
	if out.from, err = queryTime(r, "fromDate"); err != nil {
		return txQuery{}, err
	}
	if out.to, err = queryTime(r, "toDate"); err != nil {
		return txQuery{}, err
	}
	if out.page, err = queryInt(r, "page", 1); err != nil {
		return txQuery{}, err
	}
	if out.limit, err = queryInt(r, "limit", defaultPageLimit); err != nil {
		return txQuery{}, err
	}
	if out.limit > maxPageLimit {
		out.limit = maxPageLimit
	}

	return out, nil
}

func queryTime(r *http.Request, key string) (time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return time.Time{}, nil
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, apierrors.New(apierrors.ErrInvalidArgument, key+" must be RFC3339")
	}

	return t, nil
}

func (q txQuery) match(tx txRecord) bool {
	switch {
	case q.status != "" && tx.Status != q.status:
		return false
	case q.currency != "" && tx.Currency != q.currency:
		return false
	case q.typ != "" && tx.Type != q.typ:
		return false
	case !q.from.IsZero() && tx.CreatedAt.Before(q.from):
		return false
	case !q.to.IsZero() && tx.CreatedAt.After(q.to):
		return false
	}

	return true
}

// pageLocked — страница транзакций пользователя userID.
func (s *Server) pageLocked(userID string, q txQuery) models.TransactionPage {
	items := make([]models.Transaction, 0)
	for _, tx := range s.txs {
		if tx.userID == userID && q.match(tx) {
			items = append(items, tx.Transaction)
		}
	}

	// txs хранятся в порядке вставки (по возрастанию времени).
	if q.sort == models.SortDesc {
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
	}

	page := models.TransactionPage{Total: len(items), Page: q.page, Limit: q.limit}

	start := (q.page - 1) * q.limit
	if start >= len(items) {
		page.Items = []models.Transaction{}
		return page
	}
	end := min(start+q.limit, len(items))
	page.Items = items[start:end]

	return page
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	q, err := parseTxQuery(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	s.mu.Lock()
	page := s.pageLocked(principal(r).UserID, q)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, page)
}
