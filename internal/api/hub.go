package api

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/rawblock/arbengine/pkg/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all for local dashboard
	},
}

// tickMessage is broadcast once per pipeline tick: the ranker's full
// top-K and, if the ranking was non-empty, its best entry (the cycle the
// coordinator hands to the bundle composer).
type tickMessage struct {
	Type   string                    `json:"type"`
	Ranked []models.NetPositiveCycle `json:"ranked"`
	Bundle *models.NetPositiveCycle  `json:"bundle,omitempty"`
}

// Hub maintains the set of active websocket clients and broadcasts the
// pipeline's per-tick output to every connected dashboard.
type Hub struct {
	clients   map[*websocket.Conn]bool
	broadcast chan []byte
	mutex     sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		broadcast: make(chan []byte, 256),
		clients:   make(map[*websocket.Conn]bool),
	}
}

func (h *Hub) Run() {
	for message := range h.broadcast {
		h.mutex.Lock()
		for client := range h.clients {
			// Set write deadline to prevent blocked clients from hanging the hub
			_ = client.SetWriteDeadline(time.Now().Add(5 * time.Second))
			err := client.WriteMessage(websocket.TextMessage, message)
			if err != nil {
				log.Printf("Websocket write error: %v", err)
				client.Close()
				delete(h.clients, client)
			}
		}
		h.mutex.Unlock()
	}
}

// Subscribe handles incoming websocket connections
func (h *Hub) Subscribe(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade websocket: %v", err)
		return
	}

	h.mutex.Lock()
	h.clients[conn] = true
	h.mutex.Unlock()

	log.Printf("New WebSocket client connected. Total clients: %d", len(h.clients))

	// Keep alive loop (we only care about pushing down, but we must read to handle disconnects)
	go func() {
		defer func() {
			h.mutex.Lock()
			delete(h.clients, conn)
			h.mutex.Unlock()
			conn.Close()
			log.Printf("WebSocket client disconnected. Total clients: %d", len(h.clients))
		}()
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("WebSocket error: %v", err)
				}
				break
			}
		}
	}()
}

// Broadcast sends raw JSON data to all connected clients.
func (h *Hub) Broadcast(data []byte) {
	h.broadcast <- data
}

// BroadcastTick encodes and broadcasts a tick's ranked opportunities and
// (if any) emitted bundle. Marshal errors are logged and dropped; a single
// tick's dashboard update is not worth blocking the pipeline over.
func (h *Hub) BroadcastTick(ranked []models.NetPositiveCycle, bundle *models.NetPositiveCycle) {
	payload, err := json.Marshal(tickMessage{Type: "tick", Ranked: ranked, Bundle: bundle})
	if err != nil {
		log.Printf("[Hub] failed to marshal tick message: %v", err)
		return
	}
	h.Broadcast(payload)
}
