package models

import (
	"net/url"
	"strconv"
	"time"
)

type TransactionType string

const (
	TransactionDebit  TransactionType = "DEBIT"
	TransactionCredit TransactionType = "CREDIT"
)

type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

type Transaction struct {
	ID                  string          `json:"id"`
	Type                TransactionType `json:"type"`
	Amount              float64         `json:"amount"`
	Currency            Currency        `json:"currency"`
	Status              string          `json:"status"`
	DestinationWalletID string          `json:"destinationWalletId,omitempty"`
	CreatedAt           time.Time       `json:"createdAt"`
}

// TransactionPage — постраничный ответ истории.
type TransactionPage struct {
	Items []Transaction `json:"items"`
	Total int           `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// TransactionFilter — фильтр истории текущего пользователя.
type TransactionFilter struct {
	Status   string
	Currency Currency
	Sort     SortOrder
	Page     int
	Limit    int
}

// Values кодирует только заданные поля.
func (f TransactionFilter) Values() url.Values {
	v := url.Values{}
	setString(v, "status", f.Status)
	setString(v, "currency", string(f.Currency))
	setString(v, "sort", string(f.Sort))
	setInt(v, "page", f.Page)
	setInt(v, "limit", f.Limit)

	return v
}

// AdminTransactionFilter — фильтр транзакций пользователя в админке.
type AdminTransactionFilter struct {
	TransactionFilter
	Type     TransactionType
	FromDate time.Time
	ToDate   time.Time
}

func (f AdminTransactionFilter) Values() url.Values {
	v := f.TransactionFilter.Values()
	setString(v, "type", string(f.Type))
	if !f.FromDate.IsZero() {
		v.Set("fromDate", f.FromDate.UTC().Format(time.RFC3339))
	}
	if !f.ToDate.IsZero() {
		v.Set("toDate", f.ToDate.UTC().Format(time.RFC3339))
	}

	return v
}

func setString(v url.Values, key, val string) {
	if val != "" {
		v.Set(key, val)
	}
}

func setInt(v url.Values, key string, val int) {
	if val > 0 {
		v.Set(key, strconv.Itoa(val))
	}
}
