package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"swap-backend/internal/repository"
	"swap-backend/internal/services"
	"swap-backend/internal/utils"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 54 * time.Second
)

// WebSocketHandler streams ClaimRecorded and RootUpdated events to websocket clients
type WebSocketHandler struct {
	hub      *services.ClaimEventHub
	upgrader websocket.Upgrader
	logger   *logrus.Logger
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *services.ClaimEventHub, logger *logrus.Logger) *WebSocketHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &WebSocketHandler{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// SubscriptionMessage is what a client may send: {"action":"follow","address":"0x…"} or {"type":"ping"}
type SubscriptionMessage struct {
	Type    string `json:"type,omitempty"`
	Action  string `json:"action,omitempty"`
	Address string `json:"address,omitempty"`
}

// HandleWebSocket GET /ws/claims[?address=0x…]
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	conn := services.NewConnection(256)
	if address := c.Query("address"); address != "" {
		addr, err := utils.NormalizeForeignAddress(address)
		if err != nil {
			badRequest(c, "INVALID_ADDRESS", err.Error())
			return
		}
		conn.Follow(repository.AddressKey(addr))
	}

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).Warn("❌ WebSocket upgrade failed")
		return
	}
	defer ws.Close()

	h.hub.Register(conn)
	defer h.hub.Unregister(conn)
	log := h.logger.WithField("client_id", conn.ID)
	log.Info("📡 WebSocket client connected")

	replies := make(chan interface{}, 8)
	readDone := make(chan struct{})
	go h.readLoop(ws, conn, replies, readDone, log)

	ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := ws.WriteJSON(gin.H{"type": "connected", "client_id": conn.ID, "timestamp": time.Now()}); err != nil {
		return
	}

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	// All writes happen on this goroutine.
	for {
		select {
		case payload, ok := <-conn.Send:
			if !ok {
				ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(wsWriteWait))
				return
			}
			ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.WithError(err).Warn("❌ WebSocket write failed")
				return
			}
		case reply := <-replies:
			ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := ws.WriteJSON(reply); err != nil {
				return
			}
		case <-ping.C:
			ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-readDone:
			log.Info("🔌 WebSocket client disconnected")
			return
		}
	}
}

func (h *WebSocketHandler) readLoop(ws *websocket.Conn, conn *services.Connection, replies chan<- interface{}, done chan<- struct{}, log *logrus.Entry) {
	defer close(done)

	ws.SetReadLimit(4096)
	ws.SetReadDeadline(time.Now().Add(wsPongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		messageType, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Warn("⚠️ WebSocket read error")
			}
			return
		}
		ws.SetReadDeadline(time.Now().Add(wsPongWait))
		if messageType != websocket.TextMessage {
			continue
		}

		var msg SubscriptionMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		reply := h.handleClientMessage(conn, &msg)
		if reply == nil {
			continue
		}
		select {
		case replies <- reply:
		default:
			log.Warn("⚠️ Reply queue full, dropping reply")
		}
	}
}

func (h *WebSocketHandler) handleClientMessage(conn *services.Connection, msg *SubscriptionMessage) interface{} {
	if msg.Type == "ping" {
		return gin.H{"type": "pong", "timestamp": time.Now()}
	}

	switch msg.Action {
	case "follow":
		addr, err := utils.NormalizeForeignAddress(msg.Address)
		if err != nil {
			return gin.H{"type": "error", "error": err.Error()}
		}
		conn.Follow(repository.AddressKey(addr))
		return gin.H{"type": "subscription_confirmed", "address": repository.AddressKey(addr)}
	case "unfollow":
		conn.Follow("")
		return gin.H{"type": "subscription_confirmed", "address": ""}
	default:
		return nil
	}
}
