package users

import (
	"context"
	"errors"
)

var ErrUserNotFound = errors.New("user not found")

// User is a wheel player as stored in the balance ledger.
type User struct {
	ID      string `json:"id"`
	Balance int64  `json:"balance"`
}

type Users interface {
	Get(ctx context.Context, userID string) (User, error)
	Create(ctx context.Context, userID string, balance int64) (User, error)
	UpdateBalance(ctx context.Context, userID string, balance int64) error
}
