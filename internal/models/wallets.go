package models

import "time"

// Currency — валюта кошелька.
type Currency string

const (
	CurrencyNGN Currency = "NGN"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

// SupportedCurrencies — валюты, которые принимает бэкенд.
var SupportedCurrencies = []Currency{CurrencyNGN, CurrencyUSD, CurrencyEUR}

// Valid — валюта входит в SupportedCurrencies.
func (c Currency) Valid() bool {
	for _, s := range SupportedCurrencies {
		if c == s {
			return true
		}
	}

	return false
}

type CreateWalletRequest struct {
	Currency Currency `json:"currency"`
}

type Wallet struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Currency  Currency  `json:"currency"`
	Balance   float64   `json:"balance"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

type Balance struct {
	AvailableBalance float64 `json:"availableBalance"`
}

type TopUpRequest struct {
	Amount   float64  `json:"amount"`
	Currency Currency `json:"currency"`
}

// TopUpResponse — платёжная ссылка внешнего провайдера.
type TopUpResponse struct {
	PaymentLink string `json:"paymentLink"`
	Reference   string `json:"reference,omitempty"`
}

type CashoutRequest struct {
	Amount            float64  `json:"amount"`
	Currency          Currency `json:"currency"`
	BankAccountNumber string   `json:"bankAccountNumber"`
	BankCode          string   `json:"bankCode"`
}

type CashoutResponse struct {
	Reference string  `json:"reference"`
	Status    string  `json:"status"`
	Amount    float64 `json:"amount"`
}
