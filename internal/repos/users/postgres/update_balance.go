package users

import (
	"context"
	"fmt"

	"github.com/fastprodman/fortunewheel/internal/repos/users"
)

// UpdateBalance overwrites the stored balance.
func (r *usersRepo) UpdateBalance(ctx context.Context, userID string, balance int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET balance = $2
		WHERE user_id = $1
	`, userID, balance)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return users.ErrUserNotFound
	}

	return nil
}
