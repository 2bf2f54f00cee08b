package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"

	"agrimandi/internal/model"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins for dev simplicity
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Event is the JSON payload pushed to clients, e.g. "offer_received",
// "vehicle_allocated", "invoice_created".
type Event struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

// Client represents a single connected WebSocket client
type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte
	UserID string
}

type directMessage struct {
	userID  string
	payload []byte
}

// Hub maintains the set of active clients, keyed by user, and delivers
// broadcast and per-user messages.
type Hub struct {
	clients    map[*Client]bool
	byUser     map[string]map[*Client]bool
	Broadcast  chan []byte
	direct     chan directMessage
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex
}

// NewHub initializes a new WS Hub instance
func NewHub() *Hub {
	return &Hub{
		Broadcast:  make(chan []byte),
		direct:     make(chan directMessage, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		byUser:     make(map[string]map[*Client]bool),
	}
}

// NotifyUser marshals event and queues it for every open connection of
// one user. Delivery is best effort; a slow or absent client drops it.
func (h *Hub) NotifyUser(userID string, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Println("websocket: failed to marshal event:", err)
		return
	}
	select {
	case h.direct <- directMessage{userID: userID, payload: payload}:
	default:
		log.Println("websocket: direct queue full, dropping event", event.Event)
	}
}

// Run starts the core dispatch loop for WebSocket events
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			if h.byUser[client.UserID] == nil {
				h.byUser[client.UserID] = make(map[*Client]bool)
			}
			h.byUser[client.UserID][client] = true
			h.mu.Unlock()
			log.Println("New WebSocket client connected for user", client.UserID)
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				log.Println("WebSocket client disconnected")
			}
			h.mu.Unlock()
		case message := <-h.Broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					h.drop(client)
				}
			}
			h.mu.Unlock()
		case msg := <-h.direct:
			h.mu.Lock()
			for client := range h.byUser[msg.userID] {
				select {
				case client.Send <- msg.payload:
				default:
					h.drop(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop removes a client from both registries. Caller holds h.mu.
func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	if conns, ok := h.byUser[client.UserID]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.byUser, client.UserID)
		}
	}
	close(client.Send)
}

// writePump handles writing messages from the Hub to the WebSocket connection
func (c *Client) writePump() {
	defer func() {
		_ = c.Conn.Close()
	}()
	for message := range c.Send {
		w, err := c.Conn.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		_, _ = w.Write(message)

		// Fast track writing queued messages
		n := len(c.Send)
		for i := 0; i < n; i++ {
			_, _ = w.Write([]byte{'\n'})
			_, _ = w.Write(<-c.Send)
		}

		if err := w.Close(); err != nil {
			return
		}
	}
	_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		_ = c.Conn.Close()
	}()
	for {
		// Just reading to keep connection alive or handle client messages if necessary
		_, _, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error: %v", err)
			}
			break
		}
	}
}

// ServeWs handles websocket requests from the peer
func ServeWs(hub *Hub, c *gin.Context, secret []byte) {
	// 1. Authenticate via token query param
	tokenString := c.Query("token")
	if tokenString == "" {
		log.Println("WebSocket connection rejected: missing token")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})

	if err != nil || !token.Valid {
		log.Println("WebSocket connection rejected: invalid token:", err)
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		log.Println("WebSocket connection rejected: invalid claims")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	role, _ := claims["role"].(string)
	if !model.ValidRole(role) {
		log.Println("WebSocket connection rejected: unknown role")
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	userID, _ := claims["sub"].(string)
	if userID == "" {
		log.Println("WebSocket connection rejected: missing subject")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("WebSocket upgrade failed:", err)
		return
	}
	client := &Client{Hub: hub, Conn: conn, Send: make(chan []byte, 256), UserID: userID}
	client.Hub.register <- client

	// Allow collection of memory referenced by the caller by doing all work in new goroutines
	go client.writePump()
	go client.readPump()
}
