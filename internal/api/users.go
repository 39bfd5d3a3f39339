package api

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/pribylovaa/paybudz-client/internal/apiclient"
	"github.com/pribylovaa/paybudz-client/internal/models"
)

type Users struct {
	c *apiclient.Client
}

func (u *Users) Profile(ctx context.Context) (models.Profile, error) {
	const op = "api.Users.Profile"

	var out models.Profile
	if err := u.c.Get(ctx, "/users/me", nil, &out); err != nil {
		return models.Profile{}, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (u *Users) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	const op = "api.Users.UsernameAvailable"

	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if err := requireID(op, "username", username); err != nil {
		return false, err
	}

	var out models.UsernameAvailability
	if err := u.c.Get(ctx, "/users/username-availability", url.Values{"username": {username}}, &out); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return out.Available, nil
}

func (u *Users) UpdateUsername(ctx context.Context, userID, username string) (models.Profile, error) {
	const op = "api.Users.UpdateUsername"

	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if err := requireID(op, "user id", userID); err != nil {
		return models.Profile{}, err
	}
	if err := requireID(op, "username", username); err != nil {
		return models.Profile{}, err
	}

	var out models.Profile
	if err := u.c.Patch(ctx, path("users", userID, "username"), models.UpdateUsernameRequest{Username: username}, &out); err != nil {
		return models.Profile{}, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// ByWalletID возвращает владельца кошелька (контрагента в истории).
func (u *Users) ByWalletID(ctx context.Context, walletID string) (models.User, error) {
	const op = "api.Users.ByWalletID"

	if err := requireID(op, "wallet id", walletID); err != nil {
		return models.User{}, err
	}

	var out models.User
	if err := u.c.Get(ctx, path("users", walletID), nil, &out); err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}
