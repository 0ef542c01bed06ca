package server

import (
	"careline/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ListAccounts handles GET /api/accounts
// @Summary List accounts
// @Tags accounts
// @Produce json
// @Param role query string false "ADMIN, CAREGIVER or RESIDENT"
// @Param limit query int false "Page size" default(50)
// @Param offset query int false "Offset"
// @Success 200 {array} models.Account
// @Failure 403 {object} models.ErrorResponse
// @Router /accounts [get]
// @Security BearerAuth
func (s *Server) ListAccounts(c *fiber.Ctx) error {
	page := parsePagination(c, 50)
	accounts, err := s.accountService.ListAccounts(c.UserContext(), subjectOf(c), c.Query("role"), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	if accounts == nil {
		accounts = []models.Account{}
	}
	return c.JSON(accounts)
}

// GetMe handles GET /api/accounts/me
// @Summary Current account
// @Tags accounts
// @Produce json
// @Success 200 {object} models.Account
// @Router /accounts/me [get]
// @Security BearerAuth
func (s *Server) GetMe(c *fiber.Ctx) error {
	sub := subjectOf(c)
	account, err := s.accountService.GetAccount(c.UserContext(), sub, sub.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(account)
}

// GetAccount handles GET /api/accounts/:id
// @Summary Get an account
// @Tags accounts
// @Produce json
// @Param id path int true "Account ID"
// @Success 200 {object} models.Account
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /accounts/{id} [get]
// @Security BearerAuth
func (s *Server) GetAccount(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	account, err := s.accountService.GetAccount(c.UserContext(), subjectOf(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(account)
}

// DeleteAccount handles DELETE /api/accounts/:id
// @Summary Delete an account
// @Tags accounts
// @Param id path int true "Account ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /accounts/{id} [delete]
// @Security BearerAuth
func (s *Server) DeleteAccount(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.accountService.DeleteAccount(c.UserContext(), subjectOf(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
