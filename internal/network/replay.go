// Package network - replay.go
// JSON export of the session's event history. Lets spectators and the
// post-game screen replay the run month by month.
package network

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/BizSimLabs/SalonTycoon/server/internal/events"
	"github.com/BizSimLabs/SalonTycoon/server/internal/platform/logger"
)

// ReplayHandler provides the event history API.
type ReplayHandler struct {
	eventLog *events.EventLog
	logger   *logger.Logger
}

// NewReplayHandler creates a new replay handler.
func NewReplayHandler(el *events.EventLog, log *logger.Logger) *ReplayHandler {
	return &ReplayHandler{
		eventLog: el,
		logger:   log,
	}
}

// ReplayEvent is a flattened event for public viewing.
type ReplayEvent struct {
	ID        string      `json:"id"`
	Timestamp string      `json:"timestamp"`
	Month     int         `json:"month"`
	Type      string      `json:"type"`
	ActorID   string      `json:"actor_id,omitempty"`
	TargetID  string      `json:"target_id,omitempty"`
	Summary   string      `json:"summary"`
	Impact    string      `json:"impact"`
	Details   interface{} `json:"details,omitempty"`
}

// ReplayResponse is the API response for the history export.
type ReplayResponse struct {
	TotalEvents int           `json:"total_events"`
	FilteredBy  string        `json:"filtered_by,omitempty"`
	GeneratedAt string        `json:"generated_at"`
	Events      []ReplayEvent `json:"events"`
}

// HandleReplay returns the filtered event history.
// GET /api/replay?month=N&type=REVENUE
func (rh *ReplayHandler) HandleReplay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	monthStr := r.URL.Query().Get("month")
	eventType := r.URL.Query().Get("type")

	allEvents := rh.eventLog.Replay()

	var replayEvents []ReplayEvent
	filterDesc := ""

	for _, e := range allEvents {
		if monthStr != "" {
			month, _ := strconv.Atoi(monthStr)
			if e.Month != month {
				continue
			}
			filterDesc = "Month " + monthStr
		}
		if eventType != "" && string(e.Type) != eventType {
			continue
		}
		replayEvents = append(replayEvents, rh.convertToReplayEvent(e))
	}

	response := ReplayResponse{
		TotalEvents: len(replayEvents),
		FilteredBy:  filterDesc,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Events:      replayEvents,
	}

	rh.logger.Event("REPLAY_EXPORT", "SPECTATOR", "Events:"+strconv.Itoa(len(replayEvents)))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// HandleEventDetail returns details of a specific event.
// GET /api/replay/event?event_id=XXX
func (rh *ReplayHandler) HandleEventDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	eventID := r.URL.Query().Get("event_id")
	if eventID == "" {
		jsonError(w, "Missing event_id", http.StatusBadRequest)
		return
	}

	for _, e := range rh.eventLog.Replay() {
		if e.ID == eventID {
			detail := rh.convertToReplayEvent(e)
			detail.Details = e.Payload

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(detail)
			return
		}
	}

	jsonError(w, "Event not found", http.StatusNotFound)
}

// HandleStats returns aggregate statistics for the run.
// GET /api/replay/stats
func (rh *ReplayHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	allEvents := rh.eventLog.Replay()

	stats := map[string]int{
		"total_events":   len(allEvents),
		"services_sold":  0,
		"customers_lost": 0,
		"staff_hired":    0,
		"campaigns_run":  0,
		"months_closed":  0,
	}

	for _, e := range allEvents {
		switch e.Type {
		case events.EventTypeRevenue:
			stats["services_sold"]++
		case events.EventTypeCustomerLost:
			stats["customers_lost"]++
		case events.EventTypeStaffHired:
			stats["staff_hired"]++
		case events.EventTypeCampaignLaunched:
			stats["campaigns_run"]++
		case events.EventTypeMonthSummary:
			stats["months_closed"]++
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"generated_at": time.Now().Format(time.RFC3339),
		"stats":        stats,
	})
}

// RegisterRoutes sets up the replay API routes.
func (rh *ReplayHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/replay", rh.HandleReplay)
	mux.HandleFunc("/api/replay/event", rh.HandleEventDetail)
	mux.HandleFunc("/api/replay/stats", rh.HandleStats)
}

// convertToReplayEvent transforms an internal event to public format.
func (rh *ReplayHandler) convertToReplayEvent(e events.GameEvent) ReplayEvent {
	return ReplayEvent{
		ID:        e.ID,
		Timestamp: e.Timestamp.Format("15:04:05"),
		Month:     e.Month,
		Type:      string(e.Type),
		ActorID:   e.ActorID,
		TargetID:  e.TargetID,
		Summary:   rh.summarizeEvent(e),
		Impact:    rh.determineImpact(e),
	}
}

// summarizeEvent creates a human-readable summary.
func (rh *ReplayHandler) summarizeEvent(e events.GameEvent) string {
	switch e.Type {
	case events.EventTypeCustomerSpawned:
		return "A customer walked in."
	case events.EventTypeServiceStarted:
		return "A customer was seated for service."
	case events.EventTypeRevenue:
		return "A service was completed and paid for."
	case events.EventTypeCustomerLost:
		return "A customer ran out of patience and left."
	case events.EventTypeExpense:
		return "Money went out the door."
	case events.EventTypeStaffHired:
		return "A new staff member joined."
	case events.EventTypeStaffFired:
		return "A staff member was let go."
	case events.EventTypeUpgradePurchased:
		return "The salon was upgraded."
	case events.EventTypeCampaignLaunched:
		return "A marketing campaign went live."
	case events.EventTypeCampaignEnded:
		return "A marketing campaign wrapped up."
	case events.EventTypeLevelUp:
		return "The salon reached a new level."
	case events.EventTypeMonthSummary:
		return "The books were closed for the month."
	default:
		return "Something happened."
	}
}

// determineImpact classifies the event impact.
func (rh *ReplayHandler) determineImpact(e events.GameEvent) string {
	switch e.Type {
	case events.EventTypeRevenue, events.EventTypeLevelUp:
		return "POSITIVE"
	case events.EventTypeCustomerLost, events.EventTypeExpense:
		return "NEGATIVE"
	default:
		return "NEUTRAL"
	}
}
