package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/fortunewheel/internal/repos/users"
)

func (r *usersRepo) Get(ctx context.Context, userID string) (users.User, error) {
	u := users.User{ID: userID}

	err := r.db.QueryRowContext(ctx, `
		SELECT balance
		FROM users
		WHERE user_id = $1
	`, userID).Scan(&u.Balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return users.User{}, users.ErrUserNotFound
		}

		return users.User{}, fmt.Errorf("get user: %w", err)
	}

	return u, nil
}
