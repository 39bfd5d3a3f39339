package sandbox

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/pribylovaa/paybudz-client/internal/models"
	logctx "github.com/pribylovaa/paybudz-client/internal/pkg/log"
	apierrors "github.com/pribylovaa/paybudz-client/internal/sandbox/errors"
)

// transfer — POST /transfers. Повтор с тем же idempotencyKey от того же
// пользователя возвращает уже проведённый перевод без повторного списания.
func (s *Server) transfer(w http.ResponseWriter, r *http.Request) {
	var in models.TransferRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}
	if strings.TrimSpace(in.DestinationUsername) == "" {
		apierrors.WriteError(w, r, apierrors.New(apierrors.ErrInvalidArgument, "destinationUsername is required"))
		return
	}
	if err := validateMoney(in.Amount, in.Currency); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	p := principal(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	key := ""
	if in.IdempotencyKey != "" {
		key = p.UserID + "|" + in.IdempotencyKey
		if done, ok := s.transfers[key]; ok {
			writeJSON(w, http.StatusCreated, done)
			return
		}
	}

	from := s.users[p.UserID]
	to := s.userByUsernameLocked(in.DestinationUsername)
	if to == nil {
		apierrors.WriteError(w, r, apierrors.New(apierrors.ErrNotFound, "Destination user not found"))
		return
	}
	if to.profile.ID == from.profile.ID {
		apierrors.WriteError(w, r, apierrors.New(apierrors.ErrInvalidArgument, "Cannot transfer to yourself"))
		return
	}

	src, err := s.activeWalletLocked(from, in.Currency)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}
	dst, err := s.activeWalletLocked(to, in.Currency)
	if err != nil {
		apierrors.WriteError(w, r, apierrors.New(apierrors.ErrInvalidArgument, "Destination cannot receive "+string(in.Currency)))
		return
	}
	if src.Balance < in.Amount {
		apierrors.WriteError(w, r, apierrors.New(apierrors.ErrInvalidArgument, "Insufficient funds"))
		return
	}

	src.Balance -= in.Amount
	dst.Balance += in.Amount

	s.appendTxLocked(from.profile.ID, models.Transaction{
		Type:                models.TransactionDebit,
		Amount:              in.Amount,
		Currency:            in.Currency,
		Status:              "SUCCESS",
		DestinationWalletID: dst.ID,
	})
	s.appendTxLocked(to.profile.ID, models.Transaction{
		Type:                models.TransactionCredit,
		Amount:              in.Amount,
		Currency:            in.Currency,
		Status:              "SUCCESS",
		DestinationWalletID: src.ID,
	})

	out := models.Transfer{
		ID:                  uuid.NewString(),
		Amount:              in.Amount,
		Currency:            in.Currency,
		Status:              "SUCCESS",
		DestinationUsername: to.profile.Username,
		IdempotencyKey:      in.IdempotencyKey,
		CreatedAt:           s.now(),
	}
	if key != "" {
		s.transfers[key] = out
	}

	logctx.From(r.Context()).Info("transfer_ok",
		slog.String("transfer_id", out.ID),
		slog.String("currency", string(out.Currency)),
	)
	writeJSON(w, http.StatusCreated, out)
}
