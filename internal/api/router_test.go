package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fastprodman/fortunewheel/internal/repos/rolls"
	"github.com/fastprodman/fortunewheel/internal/repos/users"
	"github.com/fastprodman/fortunewheel/internal/services/spin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	spinRes   spin.Result
	spinErr   error
	user      users.User
	userErr   error
	jackpot   int64
	recent    []rolls.Roll
	recentErr error

	lastUserID string
}

func (s *stubService) Spin(_ context.Context, userID string) (spin.Result, error) {
	s.lastUserID = userID

	return s.spinRes, s.spinErr
}

func (s *stubService) GetUser(_ context.Context, userID string) (users.User, error) {
	s.lastUserID = userID

	return s.user, s.userErr
}

func (s *stubService) GetJackpot() int64 { return s.jackpot }

func (s *stubService) RecentRolls(context.Context) ([]rolls.Roll, error) {
	return s.recent, s.recentErr
}

func do(t *testing.T, h http.Handler, method, path, auth string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	require.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))

	return rec.Body.String()
}

func TestRoll(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		auth       string
		spinErr    error
		wantStatus int
		wantError  string
	}{
		{name: "ok", auth: "42", wantStatus: http.StatusOK},
		{name: "no identity", auth: "", wantStatus: http.StatusUnauthorized, wantError: msgAuthRequired},
		{name: "blank identity", auth: "   ", wantStatus: http.StatusUnauthorized, wantError: msgAuthRequired},
		{
			name:       "insufficient funds",
			auth:       "42",
			spinErr:    spin.ErrInsufficientFunds,
			wantStatus: http.StatusBadRequest,
			wantError:  msgInsufficientFunds,
		},
		{
			name:       "internal",
			auth:       "42",
			spinErr:    fmt.Errorf("%w: persist balance: %w", spin.ErrInternal, errors.New("db gone")),
			wantStatus: http.StatusInternalServerError,
			wantError:  msgInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := &stubService{
				spinRes: spin.Result{User: users.User{ID: "42", Balance: 140}, Section: 2, Payout: 50},
				spinErr: tt.spinErr,
			}

			rec := do(t, NewRouter(svc, nil), http.MethodPost, "/api/roll/", tt.auth)
			require.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantError != "" {
				require.Equal(t, tt.wantError, errorBody(t, rec))
				return
			}

			require.Equal(t, "42", svc.lastUserID)
			require.JSONEq(t, `{"user":{"id":"42","balance":140},"wheel_section":2}`, rec.Body.String())
		})
	}
}

func TestGetUser(t *testing.T) {
	t.Parallel()

	svc := &stubService{user: users.User{ID: "7", Balance: 100}}
	h := NewRouter(svc, nil)

	rec := do(t, h, http.MethodGet, "/api/user/", " 7 ")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.JSONEq(t, `{"id":"7","balance":100}`, rec.Body.String())
	require.Equal(t, "7", svc.lastUserID)

	rec = do(t, h, http.MethodGet, "/api/user", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Authorization header required", errorBody(t, rec))

	svc.userErr = spin.ErrInternal
	rec = do(t, h, http.MethodGet, "/api/user", "7")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, msgInternal, errorBody(t, rec))
}

func TestGetJackpot(t *testing.T) {
	t.Parallel()

	h := NewRouter(&stubService{jackpot: 1010}, nil)

	for _, path := range []string{"/api/jackpot", "/api/jackpot/"} {
		rec := do(t, h, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code, path)
		require.JSONEq(t, `{"jackpot":1010}`, rec.Body.String())
	}
}

func TestRecentRolls(t *testing.T) {
	t.Parallel()

	id := uuid.MustParse("6f1c2c8e-5d1a-4c43-9a0e-0b7b8c0e9a11")
	svc := &stubService{recent: []rolls.Roll{{ID: id, UserID: "1", WinValue: 50, Timestamp: 1700000000}}}
	h := NewRouter(svc, nil)

	rec := do(t, h, http.MethodGet, "/api/rolls/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t,
		`[{"id":"6f1c2c8e-5d1a-4c43-9a0e-0b7b8c0e9a11","user_id":"1","win_value":50,"timestamp":1700000000}]`,
		rec.Body.String())

	svc.recent = []rolls.Roll{}
	rec = do(t, h, http.MethodGet, "/api/rolls", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())

	svc.recentErr = spin.ErrInternal
	rec = do(t, h, http.MethodGet, "/api/rolls", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "Internal server error", errorBody(t, rec))
}

func TestCORS(t *testing.T) {
	t.Parallel()

	h := NewRouter(&stubService{}, nil)

	rec := do(t, h, http.MethodOptions, "/api/roll/", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	rec = do(t, h, http.MethodGet, "/api/jackpot", "")
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()

	h := NewRouter(&stubService{}, nil)

	rec := do(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "go_goroutines"))
}

func TestFeedRoute(t *testing.T) {
	t.Parallel()

	called := false
	feed := func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusTeapot)
	}

	h := NewRouter(&stubService{}, feed)

	rec := do(t, h, http.MethodGet, "/api/jackpot/ws", "")
	require.True(t, called)
	require.Equal(t, http.StatusTeapot, rec.Code)

	rec = do(t, NewRouter(&stubService{}, nil), http.MethodGet, "/api/jackpot/ws", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()

	rec := do(t, NewRouter(&stubService{}, nil), http.MethodGet, "/api/roll", "42")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
