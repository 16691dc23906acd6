package network

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/BizSimLabs/SalonTycoon/server/internal/events"
	"github.com/BizSimLabs/SalonTycoon/server/internal/game"
	"github.com/BizSimLabs/SalonTycoon/server/internal/platform/logger"
	"github.com/BizSimLabs/SalonTycoon/server/internal/platform/metrics"
	"github.com/BizSimLabs/SalonTycoon/server/internal/platform/optimization"
)

// Message is the envelope for everything pushed over the WebSocket feed.
type Message struct {
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// Message types pushed to clients.
const (
	MsgTypeFrame = "FRAME" // HUD snapshot, sent at render cadence
	MsgTypeEvent = "EVENT" // a single GameEvent from the log
	MsgTypeError = "ERROR" // action rejection
)

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex
	session    *game.Session
	opt        *optimization.Config
	logger     *logger.Logger
}

// NewHub initializes a new WebSocket Hub bound to a session.
func NewHub(session *game.Session, opt *optimization.Config, log *logger.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan []byte, opt.BroadcastChannelBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		session:    session,
		opt:        opt,
		logger:     log,
	}
}

// Run starts the Hub's main loop to handle client connections and broadcasts.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("WebSocket Hub shutting down.")
			return
		case client := <-h.register:
			h.mu.Lock()
			if len(h.clients) >= h.opt.MaxClientsPerSession {
				h.mu.Unlock()
				h.logger.Warn("Client rejected: session is full")
				client.conn.Close()
				continue
			}
			h.clients[client] = true
			h.mu.Unlock()
			metrics.Get().RecordWSConnection(1)
			h.logger.Info("New WebSocket client connected")
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				metrics.Get().RecordWSConnection(-1)
				h.logger.Info("WebSocket client disconnected")
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					metrics.Get().RecordWSMessage(false)
				default:
					close(client.send)
					delete(h.clients, client)
					metrics.Get().RecordWSConnection(-1)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast serializes a Message and sends it to all connected clients.
func (h *Hub) Broadcast(msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to serialize message for WebSocket broadcast: " + err.Error())
		metrics.Get().RecordWSError()
		return
	}
	h.broadcast <- payload
}

// BroadcastEvent wraps a GameEvent in the feed envelope and broadcasts it.
func (h *Hub) BroadcastEvent(event events.GameEvent) {
	h.Broadcast(Message{
		Type:      MsgTypeEvent,
		Timestamp: time.Now().Unix(),
		Payload:   event,
	})
}

// StartFramePusher spawns a goroutine that pushes HUD snapshots to all
// clients at render cadence. The feed is read-only; the simulation advances
// on its own clock regardless of how many spectators are watching.
func (h *Hub) StartFramePusher(ctx context.Context) {
	go func() {
		interval := time.Second / time.Duration(h.opt.FramesPerSecond)
		frameTicker := time.NewTicker(interval)
		defer frameTicker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-frameTicker.C:
				h.mu.Lock()
				empty := len(h.clients) == 0
				h.mu.Unlock()
				if empty {
					continue // No point rendering for nobody
				}
				h.Broadcast(Message{
					Type:      MsgTypeFrame,
					Timestamp: time.Now().Unix(),
					Payload:   h.session.Snapshot(),
				})
			}
		}
	}()
}

// StartEventPoller spawns a goroutine to poll the EventLog and push new events
// to the Hub. This allows the Hub to run independently from the tick loop
// while picking up the same events.
func (h *Hub) StartEventPoller(ctx context.Context, eventLog *events.EventLog) {
	go func() {
		pollInterval := time.NewTicker(200 * time.Millisecond)
		defer pollInterval.Stop()

		lastProcessedEvent := 0

		for {
			select {
			case <-ctx.Done():
				return
			case <-pollInterval.C:
				allEvents := eventLog.Replay()
				if len(allEvents) > lastProcessedEvent {
					for _, event := range allEvents[lastProcessedEvent:] {
						h.BroadcastEvent(event)
					}
					lastProcessedEvent = len(allEvents)
				}
			}
		}
	}()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
