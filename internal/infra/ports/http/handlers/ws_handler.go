package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/soundrelay/soundrelay/internal/application/config"
	"github.com/soundrelay/soundrelay/internal/application/constant"
	"github.com/soundrelay/soundrelay/internal/domain/events"
	"github.com/soundrelay/soundrelay/internal/infra/adapters/memory"
	"github.com/soundrelay/soundrelay/internal/usecase"
)

type WebSocketHandler struct {
	upgrader *websocket.Upgrader

	roomUsecase usecase.RoomUsecase

	wsConnRepo memory.WebsocketConnectionRepository
}

func NewWebSocketHandler(cfg *config.Config, roomUsecase usecase.RoomUsecase, wsConnRepo memory.WebsocketConnectionRepository) *WebSocketHandler {
	return &WebSocketHandler{
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if cfg.Debug {
					return true
				}

				return originAllowed(cfg.AllowedOrigins, r.Header.Get("Origin"))
			},
		},
		roomUsecase: roomUsecase,
		wsConnRepo:  wsConnRepo,
	}
}

// originAllowed matches an Origin header against the allowlist. Entries
// may contain '*' wildcards ("https://*.example.app").
func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return true
	}

	for _, pattern := range allowed {
		if pattern == origin || pattern == "*" {
			return true
		}
		if ok, err := path.Match(pattern, origin); err == nil && ok {
			return true
		}
	}

	return false
}

func (h *WebSocketHandler) Handle(c echo.Context) error {
	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"WebSocket upgrade error",
			slog.Any(constant.Error, err),
		)
		return err
	}
	defer ws.Close()

	connID := uuid.New()

	slog.Info("WebSocket connection established", slog.Any(constant.ConnID, connID))

	h.wsConnRepo.Add(connID, ws)
	defer h.wsConnRepo.Remove(connID)

	err = ws.SetReadDeadline(time.Now().Add(60 * time.Second))
	if err != nil {
		return err
	}
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ticker.C:
				if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-c.Request().Context().Done():
				return
			}
		}
	}()

	for {
		select {
		case <-c.Request().Context().Done():
			h.roomUsecase.HandleDisconnect(c.Request().Context(), connID)
			return nil
		default:
			_, msg, err := ws.ReadMessage()
			if err != nil {
				h.handleWebsocketError(connID, err)

				h.roomUsecase.HandleDisconnect(c.Request().Context(), connID)

				return nil
			}

			if err = h.handleMessage(c.Request().Context(), connID, msg); err != nil {
				slog.Error(
					"handle message",
					slog.Any(constant.Error, err),
					slog.Any(constant.ConnID, connID),
				)
			}
		}
	}
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, connID uuid.UUID, msg []byte) error {
	var message events.Message

	if err := json.Unmarshal(msg, &message); err != nil {
		h.wsConnRepo.Write(connID, events.ErrorEnvelope("invalid message"))
		return fmt.Errorf("unmarshal websocket message: %w", err)
	}

	switch message.Type {
	case events.EventCreateRoom:
		var ev events.CreateRoomEvent

		if err := json.Unmarshal(message.Data, &ev); err != nil {
			h.wsConnRepo.Write(connID, events.ErrorEnvelope("invalid create-room payload"))
			return fmt.Errorf("unmarshal create-room event: %w", err)
		}

		h.roomUsecase.HandleCreateRoom(ctx, connID, ev)

	case events.EventJoinRoom:
		var ev events.JoinRoomEvent

		if err := json.Unmarshal(message.Data, &ev); err != nil {
			h.wsConnRepo.Write(connID, events.ErrorEnvelope("invalid join-room payload"))
			return fmt.Errorf("unmarshal join-room event: %w", err)
		}

		h.roomUsecase.HandleJoinRoom(ctx, connID, ev)

	case events.EventPlaySound:
		var ev events.PlaySoundEvent

		if err := json.Unmarshal(message.Data, &ev); err != nil {
			// fire-and-forget, nobody is waiting for a reply
			return fmt.Errorf("unmarshal play-sound event: %w", err)
		}

		h.roomUsecase.HandlePlaySound(ctx, connID, ev)

	case events.EventLeaveRoom:
		var ev events.LeaveRoomEvent

		if err := json.Unmarshal(message.Data, &ev); err != nil {
			return fmt.Errorf("unmarshal leave-room event: %w", err)
		}

		h.roomUsecase.HandleLeaveRoom(ctx, connID, ev)

	default:
		return errors.New("unknown message type")
	}

	return nil
}

func (h *WebSocketHandler) handleWebsocketError(connID uuid.UUID, err error) {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		switch closeErr.Code {
		case websocket.CloseNormalClosure, websocket.CloseGoingAway:
			slog.Info("user disconnected from websocket", slog.Any(constant.ConnID, connID))
		default:
			slog.Error("websocket close error", slog.Any(constant.Error, err))
		}
	} else {
		slog.Error(
			"websocket read",
			slog.Any(constant.Error, err),
			slog.Any(constant.ConnID, connID),
		)
	}
}
