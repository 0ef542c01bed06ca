package server

import (
	"careline/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SendMessage handles POST /api/messages
// @Summary Send a message
// @Description Residents may only message staff. The recipient is notified over the inbox socket.
// @Tags messages
// @Accept json
// @Produce json
// @Param request body object{recipientId=int,subject=string,body=string} true "Message"
// @Success 201 {object} models.Message
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /messages [post]
// @Security BearerAuth
func (s *Server) SendMessage(c *fiber.Ctx) error {
	var req struct {
		RecipientID uint   `json:"recipientId"`
		Subject     string `json:"subject"`
		Body        string `json:"body"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	msg, err := s.messageService.Send(c.UserContext(), subjectOf(c), req.RecipientID, req.Subject, req.Body)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// Inbox handles GET /api/messages/inbox
// @Summary Messages addressed to the caller
// @Tags messages
// @Produce json
// @Param unread query bool false "Only unread messages"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset"
// @Success 200 {array} models.Message
// @Router /messages/inbox [get]
// @Security BearerAuth
func (s *Server) Inbox(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	msgs, err := s.messageService.Inbox(c.UserContext(), subjectOf(c), c.QueryBool("unread", false), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	return c.JSON(msgs)
}

// Outbox handles GET /api/messages/outbox
// @Summary Messages sent by the caller
// @Tags messages
// @Produce json
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset"
// @Success 200 {array} models.Message
// @Router /messages/outbox [get]
// @Security BearerAuth
func (s *Server) Outbox(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	msgs, err := s.messageService.Outbox(c.UserContext(), subjectOf(c), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	return c.JSON(msgs)
}

// MarkMessageRead handles POST /api/messages/:id/read
// @Summary Mark a message read
// @Tags messages
// @Produce json
// @Param id path int true "Message ID"
// @Success 200 {object} models.Message
// @Failure 404 {object} models.ErrorResponse
// @Router /messages/{id}/read [post]
// @Security BearerAuth
func (s *Server) MarkMessageRead(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	msg, err := s.messageService.MarkRead(c.UserContext(), subjectOf(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(msg)
}
