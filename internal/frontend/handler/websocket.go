package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	mdwlog "github.com/msto63/lox/foundation/core/log"
	"github.com/msto63/lox/internal/frontend/service"
)

const wsReadTimeout = 120 * time.Second

// WebSocket upgrader with permissive settings for local development
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler analyzes source sent over a WebSocket as the user types
type WebSocketHandler struct {
	service     *service.Service
	maxMsgBytes int64
	logger      *mdwlog.Logger
}

// NewWebSocketHandler creates a new WebSocket handler. Messages larger
// than maxMsgBytes close the connection.
func NewWebSocketHandler(svc *service.Service, maxMsgBytes int64, logger *mdwlog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		service:     svc,
		maxMsgBytes: maxMsgBytes,
		logger:      logger.WithField("component", "websocket"),
	}
}

// WSMessage is a client message: "scan", "parse" or "ping"
type WSMessage struct {
	Type   string `json:"type"`
	ID     string `json:"id,omitempty"`
	Source string `json:"source,omitempty"`
}

// WSResponse is a server message: "result", "pong" or "error".
// ID echoes the request ID.
type WSResponse struct {
	Type    string      `json:"type"`
	ID      string      `json:"id,omitempty"`
	Payload interface{} `json:"payload"`
}

// WSErrorPayload represents an error payload
type WSErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ServeHTTP handles WebSocket upgrade and connections
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnWithErr("WebSocket upgrade failed", err)
		return
	}
	h.handleConnection(r.Context(), conn)
}

// handleConnection serves one connection. Messages are handled in
// order, so responses arrive in request order.
func (h *WebSocketHandler) handleConnection(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()

	if h.maxMsgBytes > 0 {
		conn.SetReadLimit(h.maxMsgBytes)
	}

	connID := uuid.New().String()
	logger := h.logger.WithField("conn_id", connID)
	logger.Info("WebSocket connection established", mdwlog.Fields{"remote": conn.RemoteAddr().String()})

	conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if errors.Is(err, websocket.ErrReadLimit) {
				logger.Warn("WebSocket message too large", mdwlog.Fields{"limit": h.maxMsgBytes})
			} else if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WarnWithErr("WebSocket read error", err)
			} else {
				logger.Info("WebSocket connection closed")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		req := service.Request{Source: msg.Source, Origin: "ws", RequestID: msg.ID}

		switch msg.Type {
		case "ping":
			h.send(conn, WSResponse{Type: "pong", ID: msg.ID})

		case "scan":
			resp, err := h.service.Scan(ctx, req)
			if err != nil {
				h.sendError(conn, msg.ID, "rejected", err.Error())
				continue
			}
			h.send(conn, WSResponse{Type: "result", ID: msg.ID, Payload: withKind("scan", resp.Map())})

		case "parse":
			resp, err := h.service.Parse(ctx, req)
			if err != nil {
				h.sendError(conn, msg.ID, "rejected", err.Error())
				continue
			}
			h.send(conn, WSResponse{Type: "result", ID: msg.ID, Payload: withKind("parse", resp.Map())})

		default:
			h.sendError(conn, msg.ID, "unknown_type", "Unknown message type: "+msg.Type)
		}
	}
}

func withKind(kind string, m map[string]interface{}) map[string]interface{} {
	m["kind"] = kind
	return m
}

// send writes a response message
func (h *WebSocketHandler) send(conn *websocket.Conn, resp WSResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		h.logger.WarnWithErr("WebSocket send error", err)
	}
}

// sendError sends an error response
func (h *WebSocketHandler) sendError(conn *websocket.Conn, id, code, message string) {
	h.send(conn, WSResponse{
		Type: "error",
		ID:   id,
		Payload: WSErrorPayload{
			Code:    code,
			Message: message,
		},
	})
}
