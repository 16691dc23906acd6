// Package network - spectator.go
// REST API for the spectator companion app. Spectators watch the floor,
// browse monthly reports, and compare runs on the leaderboard; they never
// mutate the simulation.
package network

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/BizSimLabs/SalonTycoon/server/internal/game"
	"github.com/BizSimLabs/SalonTycoon/server/internal/infra/storage"
	"github.com/BizSimLabs/SalonTycoon/server/internal/platform/logger"
)

// SpectatorBridge handles read-only companion app interactions.
type SpectatorBridge struct {
	session   *game.Session
	sessionID string
	reporter  *storage.Reporter
	wsHub     *Hub
	logger    *logger.Logger
}

// NewSpectatorBridge creates a new spectator interaction handler. The
// reporter may be nil when the server runs without a ledger database.
func NewSpectatorBridge(session *game.Session, sessionID string, reporter *storage.Reporter, hub *Hub, log *logger.Logger) *SpectatorBridge {
	return &SpectatorBridge{
		session:   session,
		sessionID: sessionID,
		reporter:  reporter,
		wsHub:     hub,
		logger:    log,
	}
}

// HandleHUD returns the current HUD snapshot.
// GET /api/spectator/hud
func (sb *SpectatorBridge) HandleHUD(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap := sb.session.Snapshot()
	jsonSuccess(w, map[string]interface{}{
		"session_id": sb.sessionID,
		"hud":        snap,
		"spectators": sb.wsHub.ClientCount(),
		"timestamp":  time.Now().Unix(),
	})
}

// HandleCustomers returns the customers currently on the floor.
// GET /api/spectator/customers
func (sb *SpectatorBridge) HandleCustomers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap := sb.session.Snapshot()
	jsonSuccess(w, map[string]interface{}{
		"session_id": sb.sessionID,
		"customers":  snap.Customers,
		"count":      len(snap.Customers),
		"timestamp":  time.Now().Unix(),
	})
}

// HandleReports returns the per-month financial history for a session.
// GET /api/spectator/reports?session_id=XXX
func (sb *SpectatorBridge) HandleReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if sb.reporter == nil {
		jsonError(w, "Ledger database not configured", http.StatusServiceUnavailable)
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		sessionID = sb.sessionID
	}

	reports, err := sb.reporter.MonthlyReports(r.Context(), sessionID)
	if err != nil {
		sb.logger.Error("Failed to build monthly reports: " + err.Error())
		jsonError(w, "Failed to build reports", http.StatusInternalServerError)
		return
	}

	jsonSuccess(w, map[string]interface{}{
		"session_id": sessionID,
		"reports":    reports,
	})
}

// HandleLeaderboard ranks stored sessions by net earnings.
// GET /api/spectator/leaderboard?limit=N
func (sb *SpectatorBridge) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if sb.reporter == nil {
		jsonError(w, "Ledger database not configured", http.StatusServiceUnavailable)
		return
	}

	limit := 10
	if s := r.URL.Query().Get("limit"); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil || parsed < 1 {
			jsonError(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	entries, err := sb.reporter.Leaderboard(r.Context(), limit)
	if err != nil {
		sb.logger.Error("Failed to build leaderboard: " + err.Error())
		jsonError(w, "Failed to build leaderboard", http.StatusInternalServerError)
		return
	}

	jsonSuccess(w, map[string]interface{}{
		"leaderboard":  entries,
		"generated_at": time.Now().Format(time.RFC3339),
	})
}

// RegisterRoutes sets up the spectator API routes.
func (sb *SpectatorBridge) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/spectator/hud", sb.HandleHUD)
	mux.HandleFunc("/api/spectator/customers", sb.HandleCustomers)
	mux.HandleFunc("/api/spectator/reports", sb.HandleReports)
	mux.HandleFunc("/api/spectator/leaderboard", sb.HandleLeaderboard)
}

// jsonError sends an error response. Shared with the replay handler.
func jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// jsonSuccess sends a success response.
func jsonSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(data)
}
