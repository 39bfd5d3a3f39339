package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/pribylovaa/paybudz-client/internal/apiclient"
	"github.com/pribylovaa/paybudz-client/internal/models"
)

// DefaultTopUsersLimit — размер топа по умолчанию.
const DefaultTopUsersLimit = 10

type AdminUsers struct {
	c *apiclient.Client
}

func (a *AdminUsers) Search(ctx context.Context, query string) ([]models.User, error) {
	const op = "api.AdminUsers.Search"

	query = strings.TrimSpace(query)
	if err := requireID(op, "query", query); err != nil {
		return nil, err
	}

	var out []models.User
	if err := a.c.Get(ctx, "/admin/users/search", url.Values{"query": {query}}, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (a *AdminUsers) DeactivateWallet(ctx context.Context, userID string) (models.User, error) {
	return a.toggle(ctx, "api.AdminUsers.DeactivateWallet", userID, "deactivate")
}

func (a *AdminUsers) ReactivateWallet(ctx context.Context, userID string) (models.User, error) {
	return a.toggle(ctx, "api.AdminUsers.ReactivateWallet", userID, "reactivate")
}

func (a *AdminUsers) toggle(ctx context.Context, op, userID, action string) (models.User, error) {
	if err := requireID(op, "user id", userID); err != nil {
		return models.User{}, err
	}

	var out models.User
	if err := a.c.Patch(ctx, path("admin", "users", userID, action), nil, &out); err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (a *AdminUsers) Transactions(ctx context.Context, userID string, f models.AdminTransactionFilter) (models.TransactionPage, error) {
	const op = "api.AdminUsers.Transactions"

	if err := requireID(op, "user id", userID); err != nil {
		return models.TransactionPage{}, err
	}

	page, err := getPage(ctx, a.c, path("admin", "users", userID, "transactions"), f.Values())
	if err != nil {
		return models.TransactionPage{}, fmt.Errorf("%s: %w", op, err)
	}

	return page, nil
}

type AdminAnalytics struct {
	c *apiclient.Client
}

func (a *AdminAnalytics) Summary(ctx context.Context) (models.AnalyticsSummary, error) {
	const op = "api.AdminAnalytics.Summary"

	var out models.AnalyticsSummary
	if err := a.c.Get(ctx, "/admin/analytics", nil, &out); err != nil {
		return models.AnalyticsSummary{}, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (a *AdminAnalytics) TransactionVolume(ctx context.Context) ([]models.ChartPoint, error) {
	return a.chart(ctx, "api.AdminAnalytics.TransactionVolume", "/admin/charts/transactions")
}

func (a *AdminAnalytics) NewUsers(ctx context.Context) ([]models.ChartPoint, error) {
	return a.chart(ctx, "api.AdminAnalytics.NewUsers", "/admin/charts/new-users")
}

func (a *AdminAnalytics) chart(ctx context.Context, op, p string) ([]models.ChartPoint, error) {
	var out []models.ChartPoint
	if err := a.c.Get(ctx, p, nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// TopUsers — limit <= 0 означает DefaultTopUsersLimit.
func (a *AdminAnalytics) TopUsers(ctx context.Context, limit int) ([]models.TopUser, error) {
	const op = "api.AdminAnalytics.TopUsers"

	if limit <= 0 {
		limit = DefaultTopUsersLimit
	}

	var out []models.TopUser
	if err := a.c.Get(ctx, "/admin/charts/top-users", url.Values{"limit": {strconv.Itoa(limit)}}, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}
