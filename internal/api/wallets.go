package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/pribylovaa/paybudz-client/internal/apiclient"
	"github.com/pribylovaa/paybudz-client/internal/models"
)

type Wallets struct {
	c *apiclient.Client
}

func (w *Wallets) Create(ctx context.Context, currency models.Currency) (models.Wallet, error) {
	const op = "api.Wallets.Create"

	if !currency.Valid() {
		return models.Wallet{}, fmt.Errorf("%s: %w: %q", op, ErrUnsupportedCurrency, currency)
	}

	var out models.Wallet
	if err := w.c.Post(ctx, "/wallets", models.CreateWalletRequest{Currency: currency}, &out); err != nil {
		return models.Wallet{}, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (w *Wallets) Get(ctx context.Context, id string) (models.Wallet, error) {
	const op = "api.Wallets.Get"

	if err := requireID(op, "wallet id", id); err != nil {
		return models.Wallet{}, err
	}

	var out models.Wallet
	if err := w.c.Get(ctx, path("wallets", id), nil, &out); err != nil {
		return models.Wallet{}, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (w *Wallets) Activate(ctx context.Context, id string) (models.Wallet, error) {
	return w.toggle(ctx, "api.Wallets.Activate", id, "activate")
}

func (w *Wallets) Deactivate(ctx context.Context, id string) (models.Wallet, error) {
	return w.toggle(ctx, "api.Wallets.Deactivate", id, "deactivate")
}

func (w *Wallets) toggle(ctx context.Context, op, id, action string) (models.Wallet, error) {
	if err := requireID(op, "wallet id", id); err != nil {
		return models.Wallet{}, err
	}

	var out models.Wallet
	if err := w.c.Put(ctx, path("wallets", id, action), nil, &out); err != nil {
		return models.Wallet{}, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (w *Wallets) Balance(ctx context.Context, id string) (models.Balance, error) {
	const op = "api.Wallets.Balance"

	if err := requireID(op, "wallet id", id); err != nil {
		return models.Balance{}, err
	}

	var out models.Balance
	if err := w.c.Get(ctx, path("wallets", id, "balance"), nil, &out); err != nil {
		return models.Balance{}, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// TopUp инициирует пополнение; оплата проходит по PaymentLink вне клиента.
func (w *Wallets) TopUp(ctx context.Context, amount float64, currency models.Currency) (models.TopUpResponse, error) {
	const op = "api.Wallets.TopUp"

	if err := validateMoney(op, amount, currency); err != nil {
		return models.TopUpResponse{}, err
	}

	var out models.TopUpResponse
	if err := w.c.Post(ctx, "/wallets/topup", models.TopUpRequest{Amount: amount, Currency: currency}, &out); err != nil {
		return models.TopUpResponse{}, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (w *Wallets) Cashout(ctx context.Context, in models.CashoutRequest) (models.CashoutResponse, error) {
	const op = "api.Wallets.Cashout"

	if err := validateMoney(op, in.Amount, in.Currency); err != nil {
		return models.CashoutResponse{}, err
	}
	in.BankAccountNumber = strings.TrimSpace(in.BankAccountNumber)
	in.BankCode = strings.TrimSpace(in.BankCode)
	if err := requireID(op, "bank account number", in.BankAccountNumber); err != nil {
		return models.CashoutResponse{}, err
	}
	if err := requireID(op, "bank code", in.BankCode); err != nil {
		return models.CashoutResponse{}, err
	}

	var out models.CashoutResponse
	if err := w.c.Post(ctx, "/wallets/cashout", in, &out); err != nil {
		return models.CashoutResponse{}, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}
