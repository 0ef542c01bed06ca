package server

import (
	"careline/internal/models"
	"careline/internal/service"

	"github.com/gofiber/fiber/v2"
)

// registrationBody carries the profile fields shared by invitation
// registration and account activation.
type registrationBody struct {
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Username      string `json:"username"`
	Password      string `json:"password"`
	Gender        string `json:"gender"`
	Birthday      string `json:"birthday"`
	ContactNumber string `json:"contactNumber"`
}

func (b registrationBody) toRegistration() (service.Registration, error) {
	birthday, err := parseDate("birthday", b.Birthday)
	if err != nil {
		return service.Registration{}, err
	}
	return service.Registration{
		FirstName:     b.FirstName,
		LastName:      b.LastName,
		Username:      b.Username,
		Password:      b.Password,
		Gender:        b.Gender,
		Birthday:      birthday,
		ContactNumber: b.ContactNumber,
	}, nil
}

// Invite handles POST /api/accountCredential/invite
// @Summary Invite a new account
// @Description Issues a single-use registration token for the email with a fixed role. The inviting admin is the caller.
// @Tags credentials
// @Accept json
// @Produce json
// @Param request body object{email=string,role=string} true "Invitation"
// @Success 200 {object} object{message=string,token=string,email=string,role=string,expiresAt=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /accountCredential/invite [post]
// @Security BearerAuth
func (s *Server) Invite(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	inv, err := s.invitationService.CreateInvitation(c.UserContext(), subjectOf(c).ID, req.Email, req.Role)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":   "Invitation created",
		"token":     inv.Token,
		"email":     inv.Email,
		"role":      inv.Role,
		"expiresAt": inv.ExpiresAt,
	})
}

// Register handles POST /api/accountCredential/register
// @Summary Register with an invitation token
// @Tags credentials
// @Accept json
// @Produce json
// @Param request body object{token=string,firstName=string,lastName=string,username=string,password=string,gender=string,birthday=string,contactNumber=string} true "Registration"
// @Success 200 {object} object{id=int,message=string,username=string,role=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /accountCredential/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req struct {
		Token string `json:"token"`
		registrationBody
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	reg, err := req.toRegistration()
	if err != nil {
		return respondError(c, err)
	}

	account, err := s.invitationService.AcceptInvitation(c.UserContext(), req.Token, reg)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"id":       account.ID,
		"message":  "Account created",
		"username": account.Username,
		"role":     account.Role,
	})
}

// Login handles POST /api/accountCredential/login
// @Summary Log in
// @Description Verifies credentials and returns a session token. The legacy passwordHash field is accepted as the plaintext password.
// @Tags credentials
// @Accept json
// @Produce json
// @Param request body object{username=string,password=string} true "Credentials"
// @Success 200 {object} object{id=int,username=string,role=string,token=string}
// @Failure 401 {object} models.ErrorResponse
// @Router /accountCredential/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Username     string `json:"username"`
		Password     string `json:"password"`
		PasswordHash string `json:"passwordHash"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	password := req.Password
	if password == "" {
		password = req.PasswordHash
	}

	account, token, err := s.accountService.Login(c.UserContext(), req.Username, password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"id":       account.ID,
		"username": account.Username,
		"role":     account.Role,
		"token":    token,
	})
}

// PreviewInvitation handles GET /api/accountCredential/invitations/:token
// @Summary Preview an invitation
// @Description Public lookup used by the registration page. Expired invitations are reported as EXPIRED.
// @Tags credentials
// @Produce json
// @Param token path string true "Invitation token"
// @Success 200 {object} models.Invitation
// @Failure 404 {object} models.ErrorResponse
// @Router /accountCredential/invitations/{token} [get]
func (s *Server) PreviewInvitation(c *fiber.Ctx) error {
	inv, err := s.invitationService.GetInvitationByToken(c.UserContext(), c.Params("token"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(inv)
}

// ListInvitations handles GET /api/accountCredential/invitations
// @Summary List invitations
// @Tags credentials
// @Produce json
// @Param status query string false "PENDING, ACCEPTED or EXPIRED"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset"
// @Success 200 {array} models.Invitation
// @Failure 403 {object} models.ErrorResponse
// @Router /accountCredential/invitations [get]
// @Security BearerAuth
func (s *Server) ListInvitations(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	invs, err := s.invitationService.ListInvitations(c.UserContext(), subjectOf(c), c.Query("status"), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	if invs == nil {
		invs = []models.Invitation{}
	}
	return c.JSON(invs)
}

// RevokeInvitation handles POST /api/accountCredential/invitations/:id/revoke
// @Summary Revoke a pending invitation
// @Tags credentials
// @Produce json
// @Param id path int true "Invitation ID"
// @Success 200 {object} models.Invitation
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /accountCredential/invitations/{id}/revoke [post]
// @Security BearerAuth
func (s *Server) RevokeInvitation(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	inv, err := s.invitationService.RevokeInvitation(c.UserContext(), subjectOf(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(inv)
}
