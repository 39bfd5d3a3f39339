package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/bytedance/sonic"
	"github.com/tidwall/gjson"

	"github.com/pribylovaa/paybudz-client/internal/apiclient"
	"github.com/pribylovaa/paybudz-client/internal/models"
)

type Transactions struct {
	c *apiclient.Client
}

// History — история транзакций текущего пользователя.
func (t *Transactions) History(ctx context.Context, f models.TransactionFilter) (models.TransactionPage, error) {
	const op = "api.Transactions.History"

	page, err := getPage(ctx, t.c, "/transactions/history", f.Values())
	if err != nil {
		return models.TransactionPage{}, fmt.Errorf("%s: %w", op, err)
	}

	return page, nil
}

// getPage принимает и постраничный конверт {items,...}, и голый массив.
func getPage(ctx context.Context, c *apiclient.Client, p string, q url.Values) (models.TransactionPage, error) {
	var raw []byte
	if err := c.Get(ctx, p, q, &raw); err != nil {
		return models.TransactionPage{}, err
	}

	var page models.TransactionPage
	if len(raw) == 0 {
		return page, nil
	}

	if gjson.ParseBytes(raw).IsArray() {
		if err := sonic.Unmarshal(raw, &page.Items); err != nil {
			return models.TransactionPage{}, fmt.Errorf("%w: %v", apiclient.ErrDecode, err)
		}
		page.Total = len(page.Items)

		return page, nil
	}

	if err := sonic.Unmarshal(raw, &page); err != nil {
		return models.TransactionPage{}, fmt.Errorf("%w: %v", apiclient.ErrDecode, err)
	}

	return page, nil
}
