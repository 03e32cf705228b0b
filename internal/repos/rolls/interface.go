package rolls

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrDuplicateRoll = errors.New("duplicate roll")

// Roll is one spin outcome as recorded in the roll log.
type Roll struct {
	ID        uuid.UUID `db:"id"        json:"id"`
	UserID    string    `db:"user_id"   json:"user_id"`
	WinValue  int64     `db:"win_value" json:"win_value"`
	Timestamp int64     `db:"timestamp" json:"timestamp"` // unix seconds
}

type Rolls interface {
	Append(ctx context.Context, roll Roll) error
	// Recent returns up to n rolls, newest first.
	Recent(ctx context.Context, n int) ([]Roll, error)
}
