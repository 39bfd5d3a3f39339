package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pribylovaa/paybudz-client/internal/apiclient"
	"github.com/pribylovaa/paybudz-client/internal/models"
)

type Transfers struct {
	c *apiclient.Client
}

// Send переводит средства пользователю по username. Ведущий "@" отбрасывается;
// без IdempotencyKey генерируется новый uuid.
func (t *Transfers) Send(ctx context.Context, in models.TransferRequest) (models.Transfer, error) {
	const op = "api.Transfers.Send"

	in.DestinationUsername = strings.TrimPrefix(strings.TrimSpace(in.DestinationUsername), "@")
	if err := requireID(op, "destination username", in.DestinationUsername); err != nil {
		return models.Transfer{}, err
	}
	if err := validateMoney(op, in.Amount, in.Currency); err != nil {
		return models.Transfer{}, err
	}
	if in.IdempotencyKey == "" {
		in.IdempotencyKey = uuid.NewString()
	}

	var out models.Transfer
	if err := t.c.Post(ctx, "/transfers", in, &out); err != nil {
		return models.Transfer{}, fmt.Errorf("%s: %w", op, err)
	}
	if out.IdempotencyKey == "" {
		out.IdempotencyKey = in.IdempotencyKey
	}

	return out, nil
}
