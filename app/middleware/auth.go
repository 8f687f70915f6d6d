package appMiddleware

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

type contextKey string

const AccountKey contextKey = "account"

// Claims are issued by the external identity service.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for the account. Used by the CLI and tests;
// production tokens come from the identity service.
func IssueToken(secret []byte, account types.Account, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: account.ID.String(),
		Email:  account.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func WithAccount(ctx context.Context, account types.Account) context.Context {
	return context.WithValue(ctx, AccountKey, account)
}

func AccountFromContext(ctx context.Context) (types.Account, bool) {
	account, ok := ctx.Value(AccountKey).(types.Account)
	return account, ok
}

func accountFromClaims(claims *Claims) (types.Account, error) {
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return types.Account{}, fmt.Errorf("invalid user id claim: %w", err)
	}
	return types.Account{ID: id, Email: claims.Email}, nil
}
