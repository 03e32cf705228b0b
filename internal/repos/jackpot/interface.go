package jackpot

import "context"

type Store interface {
	// Load returns the persisted jackpot, or 0 when none is stored or the
	// stored value is not a valid amount.
	Load(ctx context.Context) (int64, error)
	Save(ctx context.Context, amount int64) error
}
