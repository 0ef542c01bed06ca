package server

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"careline/internal/middleware"
	"careline/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const wsTicketTTL = 30 * time.Second

func wsTicketKey(ticket string) string {
	return fmt.Sprintf("ws_ticket:%s", ticket)
}

// IssueWSTicket handles POST /api/ws/ticket
// @Summary Issue a WebSocket ticket
// @Description Returns a short-lived single-use ticket for opening the inbox socket
// @Tags realtime
// @Produce json
// @Success 200 {object} object{ticket=string,expiresIn=int}
// @Failure 503 {object} models.ErrorResponse
// @Router /ws/ticket [post]
// @Security BearerAuth
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	if s.redis == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error: "realtime push is unavailable",
			Code:  models.CodeInternal,
		})
	}
	ticket := uuid.NewString()
	userID := c.Locals("userID").(uint)
	if err := s.redis.Set(c.UserContext(), wsTicketKey(ticket), formatID(userID), wsTicketTTL).Err(); err != nil {
		return respondError(c, models.NewInternalError(err))
	}
	return c.JSON(fiber.Map{"ticket": ticket, "expiresIn": int(wsTicketTTL.Seconds())})
}

// redeemWSTicket consumes ticket and returns the account it was issued to.
func (s *Server) redeemWSTicket(ctx context.Context, ticket string) (uint, bool) {
	if s.redis == nil {
		return 0, false
	}
	raw, err := s.redis.GetDel(ctx, wsTicketKey(ticket)).Result()
	if err != nil {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// InboxWebSocketHandler handles GET /api/ws. Each connection receives the
// account's inbox events; inbound frames are ignored.
func (s *Server) InboxWebSocketHandler() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		userIDVal := conn.Locals("userID")
		if userIDVal == nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}
		userID := userIDVal.(uint)

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			middleware.Logger.Warn("inbox socket rejected",
				slog.Uint64("user_id", uint64(userID)), slog.Any("error", err))
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		middleware.Logger.Info("inbox socket connected", slog.Uint64("user_id", uint64(userID)))
		go client.WritePump()
		client.ReadPump()
	})

	return func(c *fiber.Ctx) error {
		if s.hub == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
				Error: "realtime push is unavailable",
				Code:  models.CodeInternal,
			})
		}
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return upgrade(c)
	}
}
