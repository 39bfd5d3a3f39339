package sandbox

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pribylovaa/paybudz-client/internal/models"
	logctx "github.com/pribylovaa/paybudz-client/internal/pkg/log"
	"github.com/pribylovaa/paybudz-client/internal/pkg/redact"
	apierrors "github.com/pribylovaa/paybudz-client/internal/sandbox/errors"
)

// checkoutURL — адрес фейковой страницы оплаты пополнения.
const checkoutURL = "https://checkout.sandbox.local/pay/"

func (s *Server) createWallet(w http.ResponseWriter, r *http.Request) {
	var in models.CreateWalletRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}
	if !in.Currency.Valid() {
		apierrors.WriteError(w, r, apierrors.New(apierrors.ErrInvalidArgument, "currency must be one of NGN, USD, EUR"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.users[principal(r).UserID]
	if _, ok := u.profile.Wallets[in.Currency]; ok {
		apierrors.WriteError(w, r, apierrors.New(apierrors.ErrConflict, fmt.Sprintf("%s wallet already exists", in.Currency)))
		return
	}

	writeJSON(w, http.StatusCreated, *s.newWalletLocked(u, in.Currency))
}

func (s *Server) getWallet(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wl, err := s.ownedWalletLocked(r, chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, *wl)
}

func (s *Server) balance(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wl, err := s.ownedWalletLocked(r, chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.Balance{AvailableBalance: wl.Balance})
}

func (s *Server) setWalletActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		wl, err := s.ownedWalletLocked(r, chi.URLParam(r, "id"))
		if err != nil {
			apierrors.WriteError(w, r, err)
			return
		}

		wl.IsActive = active
		writeJSON(w, http.StatusOK, *wl)
	}
}

// topUp зачисляет сумму сразу: внешний платёж в sandbox считается успешным.
func (s *Server) topUp(w http.ResponseWriter, r *http.Request) {
	var in models.TopUpRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}
	if err := validateMoney(in.Amount, in.Currency); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.users[principal(r).UserID]
	wl, err := s.activeWalletLocked(u, in.Currency)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	wl.Balance += in.Amount
	ref := uuid.NewString()
	s.appendTxLocked(u.profile.ID, models.Transaction{
		Type:     models.TransactionCredit,
		Amount:   in.Amount,
		Currency: in.Currency,
		Status:   "SUCCESS",
	})

	writeJSON(w, http.StatusCreated, models.TopUpResponse{PaymentLink: checkoutURL + ref, Reference: ref})
}

func (s *Server) cashout(w http.ResponseWriter, r *http.Request) {
	var in models.CashoutRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}
	if err := validateMoney(in.Amount, in.Currency); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}
	if strings.TrimSpace(in.BankAccountNumber) == "" || strings.TrimSpace(in.BankCode) == "" {
		apierrors.WriteError(w, r, apierrors.New(apierrors.ErrInvalidArgument, "bankAccountNumber and bankCode are required"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.users[principal(r).UserID]
	wl, err := s.activeWalletLocked(u, in.Currency)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}
	if wl.Balance < in.Amount {
		apierrors.WriteError(w, r, apierrors.New(apierrors.ErrInvalidArgument, "Insufficient funds"))
		return
	}

	wl.Balance -= in.Amount
	tx := s.appendTxLocked(u.profile.ID, models.Transaction{
		Type:     models.TransactionDebit,
		Amount:   in.Amount,
		Currency: in.Currency,
		Status:   "PENDING",
	})

	logctx.From(r.Context()).Info("cashout_pending",
		slog.String("reference", tx.ID),
		slog.String("account", redact.Account(in.BankAccountNumber)),
	)
	writeJSON(w, http.StatusCreated, models.CashoutResponse{Reference: tx.ID, Status: tx.Status, Amount: tx.Amount})
}

func (s *Server) newWalletLocked(u *user, c models.Currency) *models.Wallet {
	wl := &models.Wallet{
		ID:        uuid.NewString(),
		UserID:    u.profile.ID,
		Currency:  c,
		IsActive:  u.active,
		CreatedAt: s.now(),
	}
	s.wallets[wl.ID] = wl
	u.profile.Wallets[c] = wl.ID

	return wl
}

// ownedWalletLocked — кошелёк вызывающего; чужие видит только admin.
func (s *Server) ownedWalletLocked(r *http.Request, id string) (*models.Wallet, error) {
	p := principal(r)

	wl, ok := s.wallets[id]
	if !ok || (wl.UserID != p.UserID && p.Role != roleAdmin) {
		return nil, apierrors.New(apierrors.ErrNotFound, "Wallet not found")
	}

	return wl, nil
}

func (s *Server) activeWalletLocked(u *user, c models.Currency) (*models.Wallet, error) {
	id, ok := u.profile.Wallets[c]
	if !ok {
		return nil, apierrors.New(apierrors.ErrNotFound, fmt.Sprintf("No %s wallet", c))
	}

	wl := s.wallets[id]
	if !wl.IsActive {
		return nil, apierrors.New(apierrors.ErrForbidden, "Wallet is inactive")
	}

	return wl, nil
}

func (s *Server) appendTxLocked(userID string, tx models.Transaction) models.Transaction {
	tx.ID = uuid.NewString()
	tx.CreatedAt = s.now()
	s.txs = append(s.txs, txRecord{Transaction: tx, userID: userID})

	return tx
}

func validateMoney(amount float64, c models.Currency) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return apierrors.New(apierrors.ErrInvalidArgument, "amount must be a positive number")
	}
	if !c.Valid() {
		return apierrors.New(apierrors.ErrInvalidArgument, "currency must be one of NGN, USD, EUR")
	}

	return nil
}
