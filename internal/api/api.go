// api — группы вызовов wallet-бэкенда поверх apiclient.
// Каждая группа только собирает путь и тело, валидирует ввод до сети
// и делегирует запрос клиенту (attach-фаза, refresh и повтор — там).
package api

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/pribylovaa/paybudz-client/internal/apiclient"
	"github.com/pribylovaa/paybudz-client/internal/models"
)

var (
	// ErrInvalidAmount — сумма не положительна или не число.
	ErrInvalidAmount = errors.New("amount must be a positive number")
	// ErrUnsupportedCurrency — валюта вне models.SupportedCurrencies.
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	// ErrInvalidArgument — пустой идентификатор или обязательное поле.
	ErrInvalidArgument = errors.New("invalid argument")
)

// API агрегирует группы вызовов.
type API struct {
	Auth           *Auth
	Wallets        *Wallets
	Transfers      *Transfers
	Users          *Users
	Transactions   *Transactions
	AdminUsers     *AdminUsers
	AdminAnalytics *AdminAnalytics
}

func New(c *apiclient.Client) *API {
	return &API{
		Auth:           &Auth{c: c},
		Wallets:        &Wallets{c: c},
		Transfers:      &Transfers{c: c},
		Users:          &Users{c: c},
		Transactions:   &Transactions{c: c},
		AdminUsers:     &AdminUsers{c: c},
		AdminAnalytics: &AdminAnalytics{c: c},
	}
}

// path собирает путь из сегментов, экранируя каждый.
func path(segments ...string) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}

	return b.String()
}

func requireID(op, name, v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("%s: %w: empty %s", op, ErrInvalidArgument, name)
	}

	return nil
}

func validateMoney(op string, amount float64, currency models.Currency) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return fmt.Errorf("%s: %w", op, ErrInvalidAmount)
	}
	if !currency.Valid() {
		return fmt.Errorf("%s: %w: %q", op, ErrUnsupportedCurrency, currency)
	}

	return nil
}
