package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"lastball/internal/command"
	"lastball/internal/game"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// MaxWSConnectionsTotal is the maximum number of WebSocket connections allowed
	MaxWSConnectionsTotal = 500

	// MaxWSConnectionsPerIP is the maximum WebSocket connections per IP
	MaxWSConnectionsPerIP = 10

	wsWriteWait      = 5 * time.Second
	wsMaxMessageSize = 4096
)

// CommandSink accepts commands parsed from client messages.
// *command.CommandQueue satisfies it.
type CommandSink interface {
	Enqueue(cmd command.Command) bool
}

// wsClient tracks a WebSocket connection with its source IP
type wsClient struct {
	id   string
	conn *websocket.Conn
	ip   string
}

// clientMessage is what browsers send: {"command":"add","args":["Alice"]}
type clientMessage struct {
	Command string   `json:"command"`
	Args    []string `json:"args"`
}

// WebSocketHub fans snapshots out to every client and forwards client
// commands to a CommandSink.
type WebSocketHub struct {
	clients    map[*websocket.Conn]*wsClient
	register   chan *wsClient
	unregister chan *websocket.Conn
	mu         sync.RWMutex

	// Latest snapshot, coalesced: slow clients only ever see the newest one
	latestMu sync.Mutex
	latest   *game.Snapshot
	pending  chan struct{}

	upgrader  websocket.Upgrader
	commands  CommandSink
	wsLimiter *WebSocketRateLimiter

	stopChan chan struct{}
	stopOnce sync.Once
}

// NewWebSocketHub creates a new hub with connection limiting. A nil
// commands sink makes the hub read-only. Nil origins uses DefaultAllowedOrigins.
func NewWebSocketHub(commands CommandSink, origins []string) *WebSocketHub {
	if origins == nil {
		origins = DefaultAllowedOrigins
	}

	h := &WebSocketHub{
		clients:    make(map[*websocket.Conn]*wsClient),
		register:   make(chan *wsClient),
		unregister: make(chan *websocket.Conn),
		pending:    make(chan struct{}, 1),
		commands:   commands,
		wsLimiter:  NewWebSocketRateLimiter(MaxWSConnectionsPerIP),
		stopChan:   make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if IsAllowedOrigin(origin, origins) {
				return true
			}

			// Log rejected origin for security monitoring
			log.Printf("⚠️ WebSocket connection rejected from origin: %s", origin)
			RecordConnectionRejected("origin")
			return false
		},
	}
	return h
}

// Publish records snap as the latest state and wakes the hub. It never
// blocks, so it is safe to use as a store listener.
func (h *WebSocketHub) Publish(snap game.Snapshot) {
	h.latestMu.Lock()
	h.latest = &snap
	h.latestMu.Unlock()

	select {
	case h.pending <- struct{}{}:
	default:
		// Already signalled, the hub will pick up the newest snapshot
	}
}

// Run starts the hub. It returns after Stop. Every connection write happens
// on this goroutine.
func (h *WebSocketHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.conn] = client
			count := len(h.clients)
			h.mu.Unlock()

			log.Printf("📱 Client %s connected from %s (%d total)", client.id, client.ip, count)
			UpdateWSConnections(count)

			// New clients get the current state right away
			h.sendLatest(client.conn)

		case conn := <-h.unregister:
			h.mu.Lock()
			h.removeLocked(conn)
			count := len(h.clients)
			h.mu.Unlock()

			log.Printf("📱 Client disconnected (%d remaining)", count)
			UpdateWSConnections(count)

		case <-h.pending:
			h.broadcastLatest()

		case <-h.stopChan:
			h.mu.Lock()
			for conn := range h.clients {
				h.removeLocked(conn)
			}
			h.mu.Unlock()
			UpdateWSConnections(0)
			return
		}
	}
}

// Stop closes every connection and ends Run
func (h *WebSocketHub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopChan)
	})
}

func (h *WebSocketHub) removeLocked(conn *websocket.Conn) {
	if client, ok := h.clients[conn]; ok {
		// Release the connection slot for this IP
		h.wsLimiter.Release(client.ip)
		delete(h.clients, conn)
		conn.Close()
	}
}

func (h *WebSocketHub) latestMessage() []byte {
	h.latestMu.Lock()
	snap := h.latest
	h.latestMu.Unlock()

	if snap == nil {
		return nil
	}
	return encodeMessage("game:state", snap)
}

func (h *WebSocketHub) sendLatest(conn *websocket.Conn) {
	msg := h.latestMessage()
	if msg == nil {
		return
	}
	if err := writeWS(conn, msg); err != nil {
		h.mu.Lock()
		h.removeLocked(conn)
		h.mu.Unlock()
	}
}

func (h *WebSocketHub) broadcastLatest() {
	msg := h.latestMessage()
	if msg == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.clients) == 0 {
		return
	}
	for conn := range h.clients {
		if err := writeWS(conn, msg); err != nil {
			h.removeLocked(conn)
		}
	}
	UpdateWSConnections(len(h.clients))
	IncrementWSMessages()
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWebSocket handles incoming WebSocket connections with DoS protection
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Get client IP for rate limiting
	ip := GetClientIP(r)

	if total := h.ClientCount(); total >= MaxWSConnectionsTotal {
		log.Printf("⚠️ WebSocket connection rejected: total limit reached (%d)", total)
		RecordConnectionRejected("ws_total_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}

	if !h.wsLimiter.Allow(ip) {
		log.Printf("⚠️ WebSocket connection rejected from %s: per-IP limit reached", ip)
		RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		h.wsLimiter.Release(ip) // Release the slot we reserved
		return
	}
	conn.SetReadLimit(wsMaxMessageSize)

	client := &wsClient{id: uuid.NewString(), conn: conn, ip: ip}
	select {
	case h.register <- client:
	case <-h.stopChan:
		conn.Close()
		h.wsLimiter.Release(ip)
		return
	}

	go h.readLoop(client)
}

// readLoop forwards client commands until the connection drops
func (h *WebSocketHub) readLoop(client *wsClient) {
	defer func() {
		select {
		case h.unregister <- client.conn:
		case <-h.stopChan:
		}
	}()

	source := "ws:" + client.id
	for {
		_, message, err := client.conn.ReadMessage()
		if err != nil {
			return
		}

		cmd, ok := parseClientMessage(message, source)
		if !ok {
			RecordWSCommand("invalid")
			continue
		}
		if h.commands == nil || !h.commands.Enqueue(cmd) {
			RecordWSCommand("dropped")
			continue
		}
		RecordWSCommand("queued")
	}
}

// parseClientMessage accepts JSON {"command","args"} or a plain chat style
// line such as "!add Alice".
func parseClientMessage(message []byte, source string) (command.Command, bool) {
	var msg clientMessage
	if err := json.Unmarshal(message, &msg); err == nil {
		if msg.Command == "" {
			return command.Command{}, false
		}
		line := msg.Command
		if len(msg.Args) > 0 {
			line += " " + strings.Join(msg.Args, " ")
		}
		return command.Parse(line, source)
	}
	return command.Parse(string(message), source)
}

func encodeMessage(event string, data interface{}) []byte {
	msg := map[string]interface{}{
		"event": event,
		"data":  data,
	}

	jsonBytes, err := json.Marshal(msg)
	if err != nil {
		log.Printf("⚠️ WebSocket encode failed for %s: %v", event, err)
		return nil
	}
	return jsonBytes
}

func writeWS(conn *websocket.Conn, msg []byte) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteMessage(websocket.TextMessage, msg)
}
