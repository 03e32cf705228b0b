package spin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fastprodman/fortunewheel/internal/metrics"
	"github.com/fastprodman/fortunewheel/internal/repos/jackpot"
	"github.com/fastprodman/fortunewheel/internal/repos/rolls"
	"github.com/fastprodman/fortunewheel/internal/repos/users"
	"github.com/google/uuid"
)

const (
	Stake          int64 = 10
	DefaultBalance int64 = 100
	RecentLimit          = 5

	defaultOpTimeout = 3 * time.Second
	compensateTries  = 3
)

var (
	ErrMissingIdentity   = errors.New("missing user identity")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInternal          = errors.New("internal error")
)

// Persistence stages of a spin, in the order they run.
const (
	stageRoll    = "roll"
	stageJackpot = "jackpot"
	stageBalance = "balance"
)

// Result is a committed spin.
type Result struct {
	User    users.User `json:"user"`
	Section Section    `json:"wheel_section"`
	Payout  int64      `json:"-"`
}

// JackpotNotifier is told about every committed jackpot value, in commit
// order. It is called while the jackpot is held and must not block.
type JackpotNotifier interface {
	JackpotChanged(amount int64)
}

type Option func(*Service)

func WithDrawer(d Drawer) Option { return func(s *Service) { s.drawer = d } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func WithIDGenerator(gen func() uuid.UUID) Option { return func(s *Service) { s.newID = gen } }

// WithOpTimeout bounds each storage call. Non-positive values are ignored.
func WithOpTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.opTimeout = d
		}
	}
}

func WithNotifier(n JackpotNotifier) Option { return func(s *Service) { s.notifier = n } }

// Service runs spins against the balance ledger, the roll log and the jackpot
// store. The jackpot lives in memory and is seeded with LoadJackpot.
type Service struct {
	users   users.Users
	rolls   rolls.Rolls
	store   jackpot.Store
	jackpot *Counter

	drawer    Drawer
	now       func() time.Time
	newID     func() uuid.UUID
	opTimeout time.Duration
	notifier  JackpotNotifier
}

func New(u users.Users, r rolls.Rolls, store jackpot.Store, opts ...Option) *Service {
	s := &Service{
		users:     u,
		rolls:     r,
		store:     store,
		jackpot:   NewCounter(0),
		drawer:    UniformDrawer(),
		now:       time.Now,
		newID:     uuid.New,
		opTimeout: defaultOpTimeout,
	}

	for _, o := range opts {
		o(s)
	}

	s.jackpot.OnCommit(s.publishJackpot)

	return s
}

// publishJackpot runs inside the critical section, so the gauge and the
// notifier always end on the newest committed value.
func (s *Service) publishJackpot(amount int64) {
	metrics.SetJackpot(amount)

	if s.notifier != nil {
		s.notifier.JackpotChanged(amount)
	}
}

// LoadJackpot seeds the in-memory jackpot from the store.
func (s *Service) LoadJackpot(ctx context.Context) error {
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	amount, err := s.store.Load(opCtx)
	if err != nil {
		return fmt.Errorf("load jackpot: %w", err)
	}

	txn, err := s.jackpot.Begin(ctx)
	if err != nil {
		return fmt.Errorf("seed jackpot: %w", err)
	}

	txn.set(amount)
	txn.Commit()

	slog.Info("jackpot loaded", "amount", amount)

	return nil
}

// GetJackpot returns the last committed jackpot. It never touches storage.
func (s *Service) GetJackpot() int64 {
	return s.jackpot.Value()
}

// GetUser returns the user, creating it with DefaultBalance on first contact.
func (s *Service) GetUser(ctx context.Context, userID string) (users.User, error) {
	if userID == "" {
		return users.User{}, ErrMissingIdentity
	}

	return s.resolveUser(ctx, userID)
}

// RecentRolls returns the latest RecentLimit rolls, newest first.
func (s *Service) RecentRolls(ctx context.Context) ([]rolls.Roll, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	out, err := s.rolls.Recent(opCtx, RecentLimit)
	if err != nil {
		slog.Error("fetch recent rolls", "error", err)

		return nil, fmt.Errorf("%w: recent rolls: %w", ErrInternal, err)
	}

	if out == nil {
		out = []rolls.Roll{}
	}

	return out, nil
}

// Spin debits the stake, draws a section, applies the payout and persists the
// roll, the jackpot and the balance in that order.
//
// The whole span from the jackpot snapshot to the last write runs inside the
// jackpot critical section. If any write fails the jackpot is restored to its
// snapshot in memory and, once the jackpot write has been attempted, in the
// store as well. The caller's cancellation does not interrupt that restore.
func (s *Service) Spin(ctx context.Context, userID string) (res Result, err error) {
	started := time.Now()
	section := -1

	defer func() {
		result := metrics.ResultSuccess
		switch {
		case errors.Is(err, ErrInsufficientFunds):
			result = metrics.ResultInsufficientFunds
		case err != nil:
			result = metrics.ResultFail
		}

		metrics.RecordSpin(result, section, started)
	}()

	if userID == "" {
		return Result{}, ErrMissingIdentity
	}

	user, err := s.resolveUser(ctx, userID)
	if err != nil {
		return Result{}, err
	}

	if user.Balance < Stake {
		return Result{}, ErrInsufficientFunds
	}

	txn, err := s.jackpot.Begin(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInternal, err)
	}
	// releases the critical section on early returns and panics
	defer txn.Rollback()

	// balance may have moved while waiting for the jackpot
	user, err = s.readUser(ctx, userID)
	if err != nil {
		return Result{}, err
	}

	if user.Balance < Stake {
		return Result{}, ErrInsufficientFunds
	}

	user.Balance -= Stake
	txn.Add(Stake)

	outcome := Resolve(s.drawer.Draw())
	section = int(outcome.Section)

	payout := outcome.Payout
	if outcome.Jackpot {
		payout = txn.Drain()
	}

	user.Balance += payout

	roll := rolls.Roll{
		ID:        s.newID(),
		UserID:    user.ID,
		WinValue:  payout,
		Timestamp: s.now().Unix(),
	}

	err = s.persist(ctx, func(c context.Context) error { return s.rolls.Append(c, roll) })
	if err != nil {
		return Result{}, s.rollback(ctx, txn, stageRoll, userID, err)
	}

	err = s.persist(ctx, func(c context.Context) error { return s.store.Save(c, txn.Value()) })
	if err != nil {
		return Result{}, s.rollback(ctx, txn, stageJackpot, userID, err)
	}

	err = s.persist(ctx, func(c context.Context) error { return s.users.UpdateBalance(c, user.ID, user.Balance) })
	if err != nil {
		return Result{}, s.rollback(ctx, txn, stageBalance, userID, err)
	}

	amount := txn.Commit()

	slog.Debug("spin committed",
		"user_id", user.ID, "section", section, "payout", payout, "balance", user.Balance, "jackpot", amount)

	return Result{User: user, Section: outcome.Section, Payout: payout}, nil
}

func (s *Service) resolveUser(ctx context.Context, userID string) (users.User, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	u, err := s.users.Get(opCtx, userID)
	if err == nil {
		return u, nil
	}

	if !errors.Is(err, users.ErrUserNotFound) {
		slog.Error("get user", "user_id", userID, "error", err)

		return users.User{}, fmt.Errorf("%w: get user: %w", ErrInternal, err)
	}

	u, err = s.users.Create(opCtx, userID, DefaultBalance)
	if err != nil {
		slog.Error("create user", "user_id", userID, "error", err)

		return users.User{}, fmt.Errorf("%w: create user: %w", ErrInternal, err)
	}

	return u, nil
}

func (s *Service) readUser(ctx context.Context, userID string) (users.User, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	u, err := s.users.Get(opCtx, userID)
	if err != nil {
		slog.Error("re-read user", "user_id", userID, "error", err)

		return users.User{}, fmt.Errorf("%w: re-read user: %w", ErrInternal, err)
	}

	return u, nil
}

func (s *Service) persist(ctx context.Context, op func(context.Context) error) error {
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	return op(opCtx)
}

// rollback restores the jackpot after a failed persistence stage and releases
// the critical section. Durable state is restored only for stages at or after
// the jackpot write.
func (s *Service) rollback(ctx context.Context, txn *JackpotTxn, stage, userID string, cause error) error {
	slog.Error("spin persistence failed, rolling back",
		"stage", stage, "user_id", userID, "jackpot_backup", txn.Backup(), "error", cause)

	if stage != stageRoll {
		s.restoreStoredJackpot(ctx, txn.Backup())
	}

	txn.Rollback()
	metrics.RecordRollback(stage)

	return fmt.Errorf("%w: persist %s: %w", ErrInternal, stage, cause)
}

func (s *Service) restoreStoredJackpot(ctx context.Context, amount int64) {
	base := context.WithoutCancel(ctx)

	var err error

	for attempt := 1; attempt <= compensateTries; attempt++ {
		err = s.persist(base, func(c context.Context) error { return s.store.Save(c, amount) })
		if err == nil {
			return
		}

		slog.Warn("restore stored jackpot", "attempt", attempt, "amount", amount, "error", err)
	}

	// the next committed spin overwrites the stored value
	slog.Error("stored jackpot left out of sync with memory", "amount", amount, "error", err)
}
