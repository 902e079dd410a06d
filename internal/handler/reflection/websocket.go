package reflection

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	reflectionService "github.com/ubloom/ubloom/backend/internal/service/reflection"
)

const (
	pongWait     = 60 * time.Second
	pingInterval = 54 * time.Second
	writeWait    = 10 * time.Second
)

type inboundMessage struct {
	Type      string          `json:"type"`
	RequestID string          `json:"requestId"`
	Data      json.RawMessage `json:"data"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	RequestID string      `json:"requestId,omitempty"`
	Fallback  bool        `json:"fallback,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

type wsError struct {
	Kind    reflectionService.Kind `json:"kind"`
	Message string                 `json:"message"`
}

// handleWebSocket 处理WebSocket连接，每条reflect消息执行一次反思，同一连接上的请求按顺序应答
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	logger := h.logger.With(zap.String("conn_id", connID))
	logger.Info("websocket connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go pingLoop(ctx, conn)

	h.send(conn, logger, outgoingMessage{Type: "connected", RequestID: connID})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket read error", zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		if msg.RequestID == "" {
			msg.RequestID = uuid.NewString()
		}

		switch msg.Type {
		case "reflect":
			h.reflectMessage(ctx, conn, logger, &msg)
		case "ping":
			h.send(conn, logger, outgoingMessage{Type: "pong", RequestID: msg.RequestID})
		default:
			h.send(conn, logger, outgoingMessage{
				Type:      "error",
				RequestID: msg.RequestID,
				Data:      wsError{Kind: reflectionService.KindBadRequest, Message: "unsupported message type"},
			})
		}
		// A model call can outlast pongWait.
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}

func (h *Handler) reflectMessage(ctx context.Context, conn *websocket.Conn, logger *zap.Logger, msg *inboundMessage) {
	var payload reflectRequest
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			h.send(conn, logger, outgoingMessage{
				Type:      "error",
				RequestID: msg.RequestID,
				Data:      wsError{Kind: reflectionService.KindBadRequest, Message: "invalid message data"},
			})
			return
		}
	}

	result, err := h.svc.Reflect(ctx, payload.JournalText)
	if err != nil {
		h.send(conn, logger, outgoingMessage{
			Type:      "error",
			RequestID: msg.RequestID,
			Data: wsError{
				Kind:    reflectionService.KindOf(err),
				Message: reflectionService.PublicMessage(err),
			},
		})
		return
	}

	h.send(conn, logger, outgoingMessage{
		Type:      "reflection",
		RequestID: msg.RequestID,
		Fallback:  result.Fallback,
		Data:      result.Reflection,
	})
}

func (h *Handler) send(conn *websocket.Conn, logger *zap.Logger, msg outgoingMessage) {
	msg.Timestamp = time.Now().Unix()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(msg); err != nil {
		logger.Warn("websocket write failed", zap.String("type", msg.Type), zap.Error(err))
	}
}

// pingLoop 定期发送ping消息
func pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// WriteControl may run concurrently with WriteJSON.
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
