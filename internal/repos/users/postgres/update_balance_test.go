package users

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/fastprodman/fortunewheel/internal/infra/pgtestutil"
	"github.com/fastprodman/fortunewheel/internal/repos/users"
)

func TestUsers_UpdateBalance_Table(t *testing.T) {
	t.Parallel()

	type tc struct {
		name        string
		seed        func(db *sql.DB, t *testing.T)
		userID      string
		balance     int64
		wantErr     error
		wantBalance int64
	}

	upsert := func(db *sql.DB, id string, bal int64, t *testing.T) {
		_, err := db.Exec(`
			INSERT INTO users (user_id, balance) VALUES ($1, $2)
			ON CONFLICT (user_id) DO UPDATE SET balance = EXCLUDED.balance
		`, id, bal)
		if err != nil {
			t.Fatalf("seed upsert user(%s): %v", id, err)
		}
	}

	tests := []tc{
		{
			name:        "overwrite_higher",
			seed:        func(db *sql.DB, t *testing.T) { upsert(db, "201", 100, t) },
			userID:      "201",
			balance:     1_140,
			wantBalance: 1_140,
		},
		{
			name:        "overwrite_to_zero",
			seed:        func(db *sql.DB, t *testing.T) { upsert(db, "202", 10, t) },
			userID:      "202",
			balance:     0,
			wantBalance: 0,
		},
		{
			name:    "missing_user",
			seed:    func(_ *sql.DB, _ *testing.T) {},
			userID:  "nobody",
			balance: 50,
			wantErr: users.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db, cleanup := pgtestutil.NewTestDB(t)
			defer cleanup()

			tt.seed(db, t)

			repo := New(db)

			ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
			defer cancel()

			err := repo.UpdateBalance(ctx, tt.userID, tt.balance)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}

				return
			}

			if err != nil {
				t.Fatalf("update balance: %v", err)
			}

			got, err := repo.Get(ctx, tt.userID)
			if err != nil {
				t.Fatalf("get: %v", err)
			}

			if got.Balance != tt.wantBalance {
				t.Fatalf("balance mismatch: want %d, got %d", tt.wantBalance, got.Balance)
			}
		})
	}
}

func TestUsers_UpdateBalance_NegativeRejected(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	_, err := db.Exec(`INSERT INTO users (user_id, balance) VALUES ('neg', 10)`)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	repo := New(db)

	err = repo.UpdateBalance(t.Context(), "neg", -1)
	if err == nil {
		t.Fatalf("expected check constraint violation, got nil")
	}
}
