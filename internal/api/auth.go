package api

import (
	"context"
	"fmt"

	"github.com/pribylovaa/paybudz-client/internal/apiclient"
	"github.com/pribylovaa/paybudz-client/internal/models"
	"github.com/pribylovaa/paybudz-client/internal/session"
)

type Auth struct {
	c *apiclient.Client
}

// SignUpWithGoogle обменивает idToken внешнего провайдера на пару токенов
// бэкенда и сохраняет её.
func (a *Auth) SignUpWithGoogle(ctx context.Context, idToken string) (models.TokenPair, error) {
	const op = "api.Auth.SignUpWithGoogle"

	if err := requireID(op, "idToken", idToken); err != nil {
		return models.TokenPair{}, err
	}

	var out models.TokenPair
	if err := a.c.Post(ctx, "/auth/signup", models.SignUpRequest{IDToken: idToken}, &out); err != nil {
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := a.SignIn(ctx, out); err != nil {
		return models.TokenPair{}, err
	}

	return out, nil
}

// SignIn сохраняет уже полученную пару (например, переданную из CLI).
func (a *Auth) SignIn(ctx context.Context, pair models.TokenPair) error {
	const op = "api.Auth.SignIn"

	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return fmt.Errorf("%s: %w: token pair is incomplete", op, ErrInvalidArgument)
	}

	creds := session.Credentials{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}
	if err := a.c.Store().Set(ctx, creds); err != nil {
		return fmt.Errorf("%s: persist: %w", op, err)
	}

	return nil
}

// SignOut удаляет сохранённую пару. Сервер не уведомляется.
func (a *Auth) SignOut(ctx context.Context) error {
	const op = "api.Auth.SignOut"

	if err := a.c.Store().Clear(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// SignedIn сообщает, есть ли сохранённая пара.
func (a *Auth) SignedIn(ctx context.Context) (bool, error) {
	const op = "api.Auth.SignedIn"

	creds, err := a.c.Store().Get(ctx)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return !creds.Empty(), nil
}
