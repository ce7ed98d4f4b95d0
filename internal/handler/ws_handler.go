package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lhwang/riverchat/internal/config"
	"github.com/lhwang/riverchat/internal/domain"
	"github.com/lhwang/riverchat/internal/hub"
	"github.com/lhwang/riverchat/internal/middleware"
	"github.com/lhwang/riverchat/internal/service"
	"github.com/lhwang/riverchat/pkg/log"
	"github.com/lhwang/riverchat/pkg/response"
	"github.com/lhwang/riverchat/pkg/token"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades authenticated connections and routes frames into
// the chat service.
type WSHandler struct {
	hub    *hub.Hub
	chat   service.ChatService
	tokens *token.Manager
	wsCfg  config.WebSocketConfig
}

// NewWSHandler creates a new WebSocket handler.
func NewWSHandler(h *hub.Hub, chat service.ChatService, tokens *token.Manager, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub:    h,
		chat:   chat,
		tokens: tokens,
		wsCfg:  wsCfg,
	}
}

// RegisterRoutes registers the WebSocket endpoint.
func (h *WSHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws", h.HandleWebSocket)
}

// HandleWebSocket authenticates the request and upgrades it. The token
// is checked before the upgrade so an unauthenticated caller gets a
// plain 401 instead of a short-lived socket. An optional channel query
// parameter joins the connection immediately after the upgrade.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	l := log.Ctx(c.Request.Context())

	claims, err := h.authenticate(c)
	if err != nil {
		response.Unauthorized(c, "invalid or missing token")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), h.hub, conn, h.wsCfg)
	displayName := claims.DisplayName
	if displayName == "" {
		displayName = claims.Username
	}
	client.Session.Authenticate(claims.UserID, claims.Username, displayName)

	h.hub.Register(client)

	go client.WritePump()

	if channelID := c.Query("channel"); channelID != "" {
		if err := h.chat.HandleJoin(context.Background(), client, channelID); err != nil {
			l.Warn().Err(err).
				Str(log.FieldClientID, client.ID).
				Str(log.FieldChannelID, channelID).
				Msg("initial join failed")
		}
	}

	go func() {
		client.ReadPump(h.handleEvent)
		// ReadPump has unregistered the client; announce the departure.
		if err := h.chat.HandleDisconnect(context.Background(), client); err != nil {
			l.Warn().Err(err).Str(log.FieldClientID, client.ID).Msg("disconnect handling failed")
		}
	}()
}

func (h *WSHandler) authenticate(c *gin.Context) (*token.Claims, error) {
	raw := c.Query("token")
	if raw == "" {
		authHeader := c.GetHeader(middleware.AuthHeaderKey)
		raw = strings.TrimPrefix(authHeader, middleware.BearerPrefix)
	}
	if raw == "" {
		return nil, token.ErrInvalidToken
	}

	claims, err := h.tokens.ValidateToken(raw)
	if err != nil {
		return nil, err
	}
	// Refresh tokens mint new pairs, they do not open sockets.
	if claims.Type != "access" {
		return nil, token.ErrInvalidToken
	}
	return claims, nil
}

// handleEvent dispatches one inbound frame. A frame without a type
// field carries a chat message, so plain {"data": <text>} keeps
// working.
func (h *WSHandler) handleEvent(client *hub.Client, message []byte) {
	var base domain.BaseEvent
	if err := json.Unmarshal(message, &base); err != nil {
		client.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "invalid message format"))
		return
	}

	ctx := context.Background()
	l := log.L()

	switch base.Type {
	case "", domain.EventMessage:
		var msg domain.MessageEvent
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "invalid chat message"))
			return
		}
		if msg.Data == "" {
			return
		}
		if result, err := h.chat.HandleMessage(ctx, client, msg.Data); err != nil {
			l.Debug().Err(err).
				Str(log.FieldClientID, client.ID).
				Str("result", result.String()).
				Msg("message rejected")
		}

	case domain.EventJoin:
		var msg domain.JoinEvent
		if err := json.Unmarshal(message, &msg); err != nil || msg.ChannelID == "" {
			client.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "invalid join message"))
			return
		}
		if err := h.chat.HandleJoin(ctx, client, msg.ChannelID); err != nil {
			l.Debug().Err(err).
				Str(log.FieldClientID, client.ID).
				Str(log.FieldChannelID, msg.ChannelID).
				Msg("join rejected")
		}

	case domain.EventLeave:
		if err := h.chat.HandleLeave(ctx, client); err != nil {
			l.Debug().Err(err).Str(log.FieldClientID, client.ID).Msg("leave failed")
		}

	case domain.EventPing:
		client.SendEvent(map[string]string{"type": domain.EventPong})

	default:
		client.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "unknown message type"))
	}
}
