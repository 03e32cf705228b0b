package spin

import (
	"context"
	"sort"
	"sync"

	"github.com/fastprodman/fortunewheel/internal/repos/rolls"
	"github.com/fastprodman/fortunewheel/internal/repos/users"
)

type memUsers struct {
	mu       sync.Mutex
	balances map[string]int64

	getErr    error
	createErr error
	// onUpdate, when set, replaces the write; returning nil applies it.
	onUpdate func(ctx context.Context, userID string, balance int64) error
}

func newMemUsers(seed map[string]int64) *memUsers {
	m := &memUsers{balances: map[string]int64{}}
	for k, v := range seed {
		m.balances[k] = v
	}

	return m
}

func (m *memUsers) Get(_ context.Context, userID string) (users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getErr != nil {
		return users.User{}, m.getErr
	}

	b, ok := m.balances[userID]
	if !ok {
		return users.User{}, users.ErrUserNotFound
	}

	return users.User{ID: userID, Balance: b}, nil
}

func (m *memUsers) Create(_ context.Context, userID string, balance int64) (users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return users.User{}, m.createErr
	}

	if b, ok := m.balances[userID]; ok {
		return users.User{ID: userID, Balance: b}, nil
	}

	m.balances[userID] = balance

	return users.User{ID: userID, Balance: balance}, nil
}

func (m *memUsers) UpdateBalance(ctx context.Context, userID string, balance int64) error {
	if m.onUpdate != nil {
		err := m.onUpdate(ctx, userID, balance)
		if err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.balances[userID]; !ok {
		return users.ErrUserNotFound
	}

	m.balances[userID] = balance

	return nil
}

func (m *memUsers) balance(userID string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.balances[userID]
}

type memRolls struct {
	mu        sync.Mutex
	items     []rolls.Roll
	appendErr error
	recentErr error
}

func (m *memRolls) Append(_ context.Context, r rolls.Roll) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.appendErr != nil {
		return m.appendErr
	}

	m.items = append(m.items, r)

	return nil
}

func (m *memRolls) Recent(_ context.Context, n int) ([]rolls.Roll, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.recentErr != nil {
		return nil, m.recentErr
	}

	if len(m.items) == 0 {
		return nil, nil
	}

	out := append([]rolls.Roll(nil), m.items...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })

	if len(out) > n {
		out = out[:n]
	}

	return out, nil
}

func (m *memRolls) all() []rolls.Roll {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]rolls.Roll(nil), m.items...)
}

type memStore struct {
	mu      sync.Mutex
	amount  int64
	saves   []int64
	loadErr error
	// onSave, when set, runs before the write; returning an error drops it.
	onSave func(ctx context.Context, call int, amount int64) error
}

func (m *memStore) Load(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.amount, m.loadErr
}

func (m *memStore) Save(ctx context.Context, amount int64) error {
	m.mu.Lock()
	call := len(m.saves)
	m.saves = append(m.saves, amount)
	hook := m.onSave
	m.mu.Unlock()

	if hook != nil {
		err := hook(ctx, call, amount)
		if err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.amount = amount

	return nil
}

func (m *memStore) value() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.amount
}

func (m *memStore) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.saves)
}

type recordingNotifier struct {
	mu     sync.Mutex
	values []int64
	// before, when set, runs ahead of recording each value.
	before func(amount int64)
}

func (n *recordingNotifier) JackpotChanged(amount int64) {
	n.mu.Lock()
	hook := n.before
	n.mu.Unlock()

	if hook != nil {
		hook(amount)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	n.values = append(n.values, amount)
}

func (n *recordingNotifier) setBefore(fn func(int64)) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.before = fn
}

func (n *recordingNotifier) recorded() []int64 {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]int64(nil), n.values...)
}

func fixedDrawer(s Section) Drawer {
	return DrawerFunc(func() Section { return s })
}
