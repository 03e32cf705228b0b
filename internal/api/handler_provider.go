package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fastprodman/fortunewheel/internal/repos/rolls"
	"github.com/fastprodman/fortunewheel/internal/repos/users"
	"github.com/fastprodman/fortunewheel/internal/services/spin"
)

const (
	msgAuthRequired      = "Authorization header required"
	msgInsufficientFunds = "Insufficient funds on the balance sheet"
	msgInternal          = "Internal server error"
)

// WheelService is the subset of the spin service the handlers need.
type WheelService interface {
	Spin(ctx context.Context, userID string) (spin.Result, error)
	GetUser(ctx context.Context, userID string) (users.User, error)
	GetJackpot() int64
	RecentRolls(ctx context.Context) ([]rolls.Roll, error)
}

// HandlerProvider wraps a WheelService and exposes HTTP handlers.
type HandlerProvider struct {
	svc WheelService
}

// NewHandler returns a new Handler provider.
func NewHandler(svc WheelService) *HandlerProvider {
	return &HandlerProvider{svc: svc}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// writeError replies with a bare text message, the format clients of the
// wheel already parse.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)

	_, err := io.WriteString(w, msg)
	if err != nil {
		slog.Error("failed to write error response", "error", err)
	}
}

// userIdentity returns the caller's id. The header is trusted as-is.
func userIdentity(r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.Header.Get("Authorization"))

	return id, id != ""
}

// --- Handlers ---

// GetUserHandler handles GET /api/user
func (h *HandlerProvider) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIdentity(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, msgAuthRequired)
		return
	}

	user, err := h.svc.GetUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// RollHandler handles POST /api/roll
func (h *HandlerProvider) RollHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIdentity(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, msgAuthRequired)
		return
	}

	res, err := h.svc.Spin(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, spin.ErrInsufficientFunds):
			writeError(w, http.StatusBadRequest, msgInsufficientFunds)
		case errors.Is(err, spin.ErrMissingIdentity):
			writeError(w, http.StatusUnauthorized, msgAuthRequired)
		default:
			writeError(w, http.StatusInternalServerError, msgInternal)
		}

		return
	}

	writeJSON(w, http.StatusOK, res)
}

// GetJackpotHandler handles GET /api/jackpot
func (h *HandlerProvider) GetJackpotHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int64{"jackpot": h.svc.GetJackpot()})
}

// RecentRollsHandler handles GET /api/rolls
func (h *HandlerProvider) RecentRollsHandler(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.RecentRolls(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	writeJSON(w, http.StatusOK, out)
}
