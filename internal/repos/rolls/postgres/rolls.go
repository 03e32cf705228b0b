package rolls

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/fortunewheel/internal/repos/rolls"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

var _ rolls.Rolls = (*rollsRepo)(nil)

type rollsRepo struct{ db *sqlx.DB }

func New(db *sql.DB) *rollsRepo {
	return &rollsRepo{db: sqlx.NewDb(db, "pgx")}
}

func (r *rollsRepo) Append(ctx context.Context, roll rolls.Roll) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO roll_logs (id, user_id, win_value, timestamp)
		VALUES (:id, :user_id, :win_value, :timestamp)
	`, roll)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // unique_violation
				return rolls.ErrDuplicateRoll
			}
		}

		return fmt.Errorf("insert roll: %w", err)
	}

	return nil
}

func (r *rollsRepo) Recent(ctx context.Context, n int) ([]rolls.Roll, error) {
	out := make([]rolls.Roll, 0, n)

	err := r.db.SelectContext(ctx, &out, `
		SELECT id, user_id, win_value, timestamp
		FROM roll_logs
		ORDER BY timestamp DESC, seq DESC
		LIMIT $1
	`, n)
	if err != nil {
		return nil, fmt.Errorf("select recent rolls: %w", err)
	}

	return out, nil
}
