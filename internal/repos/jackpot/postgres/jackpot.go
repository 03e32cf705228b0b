package jackpot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fastprodman/fortunewheel/internal/repos/jackpot"
)

var _ jackpot.Store = (*jackpotRepo)(nil)

type jackpotRepo struct{ db *sql.DB }

func New(db *sql.DB) *jackpotRepo {
	return &jackpotRepo{db: db}
}

func (r *jackpotRepo) Load(ctx context.Context) (int64, error) {
	var amount sql.NullInt64

	err := r.db.QueryRowContext(ctx, `
		SELECT amount
		FROM jackpot
		WHERE id = 1
	`).Scan(&amount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}

		return 0, fmt.Errorf("load jackpot: %w", err)
	}

	if !amount.Valid || amount.Int64 < 0 {
		slog.Warn("stored jackpot is invalid, starting from zero", "valid", amount.Valid, "amount", amount.Int64)

		return 0, nil
	}

	return amount.Int64, nil
}

// Save overwrites the single jackpot row.
func (r *jackpotRepo) Save(ctx context.Context, amount int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO jackpot (id, amount)
		VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET amount = EXCLUDED.amount
	`, amount)
	if err != nil {
		return fmt.Errorf("save jackpot: %w", err)
	}

	return nil
}
