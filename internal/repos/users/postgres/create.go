package users

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/fortunewheel/internal/infra/pgutils"
	"github.com/fastprodman/fortunewheel/internal/repos/users"
)

// Create inserts the user with the given starting balance. If a concurrent
// request created the same user first, the stored row is returned unchanged.
func (r *usersRepo) Create(ctx context.Context, userID string, balance int64) (users.User, error) {
	u := users.User{ID: userID}

	err := pgutils.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO users (user_id, balance)
			VALUES ($1, $2)
			ON CONFLICT (user_id) DO NOTHING
		`, userID, balance)
		if err != nil {
			return fmt.Errorf("insert user: %w", err)
		}

		err = tx.QueryRowContext(ctx, `
			SELECT balance
			FROM users
			WHERE user_id = $1
		`, userID).Scan(&u.Balance)
		if err != nil {
			return fmt.Errorf("read back user: %w", err)
		}

		return nil
	})
	if err != nil {
		return users.User{}, fmt.Errorf("create user: %w", err)
	}

	return u, nil
}
