package sandbox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apierrors "github.com/pribylovaa/paybudz-client/internal/sandbox/errors"
	"github.com/pribylovaa/paybudz-client/internal/sandbox/middleware"
)

const issuer = "paybudz-sandbox"

type accessClaims struct {
	UserID string `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// tokenIssuer выпускает HS256 access-токены и непрозрачные refresh-токены.
type tokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func (ti *tokenIssuer) access(userID, role string) (string, error) {
	const op = "sandbox.tokens.access"

	now := ti.now()
	claims := accessClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   userID,
			// jti делает токены, выпущенные в одну секунду, различимыми.
			ID: randomToken(8),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

func (ti *tokenIssuer) parse(tokenStr string) (middleware.Principal, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &accessClaims{},
		func(*jwt.Token) (interface{}, error) { return ti.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(ti.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return middleware.Principal{}, apierrors.New(apierrors.ErrUnauthorized, "Token expired")
		}
		return middleware.Principal{}, apierrors.New(apierrors.ErrUnauthorized, "Invalid token")
	}

	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return middleware.Principal{}, apierrors.New(apierrors.ErrUnauthorized, "Invalid token")
	}

	return middleware.Principal{UserID: claims.UserID, Role: claims.Role}, nil
}

// randomToken — base64url от n случайных байт.
func randomToken(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)

	return base64.RawURLEncoding.EncodeToString(b)
}

// hashToken — refresh-токены хранятся только в виде хэша.
func hashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
