package network

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/BizSimLabs/SalonTycoon/server/internal/platform/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 1024
)

// PlayerAction represents an incoming command from the frontend.
type PlayerAction struct {
	Type    string          `json:"type"`    // "HIRE_STAFF", "PURCHASE_UPGRADE", etc.
	Payload json.RawMessage `json:"payload"` // Action-specific data
}

// Client represents an active WebSocket connection. Holds a Hub ref to allow
// unregister from the read pump.
type Client struct {
	hub            *Hub
	conn           *websocket.Conn
	send           chan []byte
	lastActionTime time.Time
}

// NewClient creates a new WebSocket client and returns it.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, hub.opt.ClientSendBuffer),
	}
}

// Register adds the client to the hub.
func (c *Client) Register() {
	c.hub.register <- c
}

// ReadPump pumps messages from the websocket connection to the session.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Error("WebSocket read error: " + err.Error())
				metrics.Get().RecordWSError()
			}
			break
		}
		metrics.Get().RecordWSMessage(true)

		var action PlayerAction
		if err := json.Unmarshal(message, &action); err != nil {
			c.hub.logger.Error("Failed to parse PlayerAction from WebSocket. err: " + err.Error())
			continue
		}

		c.handlePlayerAction(action)
	}
}

func (c *Client) handlePlayerAction(action PlayerAction) {
	// Rate limiting check
	minInterval := time.Minute / time.Duration(c.hub.opt.MaxActionsPerMinute)
	if time.Since(c.lastActionTime) < minInterval {
		c.hub.logger.Warn("Rate limit exceeded for client action " + action.Type)
		c.sendError(action.Type, "rate limit exceeded")
		return
	}
	c.lastActionTime = time.Now()

	session := c.hub.session

	switch action.Type {
	case "HIRE_STAFF":
		var parsed struct {
			RoleID string `json:"role_id"`
		}
		if err := json.Unmarshal(action.Payload, &parsed); err != nil || parsed.RoleID == "" {
			c.sendError(action.Type, "missing role_id")
			return
		}
		staffID, err := session.HireStaff(parsed.RoleID)
		if err != nil {
			c.sendError(action.Type, err.Error())
			return
		}
		c.hub.logger.Event("PLAYER_HIRE", staffID, "Hired role "+parsed.RoleID)

	case "FIRE_STAFF":
		var parsed struct {
			StaffID string `json:"staff_id"`
		}
		if err := json.Unmarshal(action.Payload, &parsed); err != nil || parsed.StaffID == "" {
			c.sendError(action.Type, "missing staff_id")
			return
		}
		if err := session.FireStaff(parsed.StaffID); err != nil {
			c.sendError(action.Type, err.Error())
			return
		}
		c.hub.logger.Event("PLAYER_FIRE", parsed.StaffID, "Fired staff member")

	case "PURCHASE_UPGRADE":
		var parsed struct {
			UpgradeID string `json:"upgrade_id"`
		}
		if err := json.Unmarshal(action.Payload, &parsed); err != nil || parsed.UpgradeID == "" {
			c.sendError(action.Type, "missing upgrade_id")
			return
		}
		level, err := session.PurchaseUpgrade(parsed.UpgradeID)
		if err != nil {
			c.sendError(action.Type, err.Error())
			return
		}
		c.hub.logger.Event("PLAYER_UPGRADE", parsed.UpgradeID, fmt.Sprintf("Purchased level %d", level))

	case "LAUNCH_CAMPAIGN":
		var parsed struct {
			CampaignID string `json:"campaign_id"`
		}
		if err := json.Unmarshal(action.Payload, &parsed); err != nil || parsed.CampaignID == "" {
			c.sendError(action.Type, "missing campaign_id")
			return
		}
		if err := session.LaunchCampaign(parsed.CampaignID); err != nil {
			c.sendError(action.Type, err.Error())
			return
		}
		c.hub.logger.Event("PLAYER_CAMPAIGN", parsed.CampaignID, "Launched campaign")

	case "END_CAMPAIGN":
		var parsed struct {
			CampaignID string `json:"campaign_id"`
		}
		if err := json.Unmarshal(action.Payload, &parsed); err != nil || parsed.CampaignID == "" {
			c.sendError(action.Type, "missing campaign_id")
			return
		}
		if err := session.EndCampaign(parsed.CampaignID); err != nil {
			c.sendError(action.Type, err.Error())
			return
		}

	case "ADVANCE_MONTH":
		summary := session.AdvanceMonth()
		c.hub.logger.Event("PLAYER_MONTH_CLOSE", "", fmt.Sprintf("Closed month %d", summary.Month))

	case "SET_FLAG":
		var parsed struct {
			Name  string `json:"name"`
			Value bool   `json:"value"`
		}
		if err := json.Unmarshal(action.Payload, &parsed); err != nil || parsed.Name == "" {
			c.sendError(action.Type, "missing flag name")
			return
		}
		session.SetFlag(parsed.Name, parsed.Value)

	default:
		c.hub.logger.Warn("Unknown PlayerAction type: " + action.Type)
		c.sendError(action.Type, "unknown action type")
	}
}

// sendError pushes an action rejection to this client only. Funds and lock
// failures are expected play, so they go to the client rather than the log.
func (c *Client) sendError(actionType, reason string) {
	msg := Message{
		Type:      MsgTypeError,
		Timestamp: time.Now().Unix(),
		Payload: map[string]string{
			"action": actionType,
			"reason": reason,
		},
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
