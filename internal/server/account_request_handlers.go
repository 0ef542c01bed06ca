package server

import (
	"careline/internal/models"
	"careline/internal/service"

	"github.com/gofiber/fiber/v2"
)

type accountRequestBody struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

// CreateAccountRequest handles POST /api/accountRequests
// @Summary Request an account
// @Description Self-service submission. The result tells the caller whether a request was created, updated, reopened or left as is.
// @Tags account-requests
// @Accept json
// @Produce json
// @Param request body object{firstName=string,lastName=string,email=string,role=string} true "Request"
// @Success 200 {object} object{result=string}
// @Failure 400 {object} models.ErrorResponse
// @Router /accountRequests [post]
func (s *Server) CreateAccountRequest(c *fiber.Ctx) error {
	var req accountRequestBody
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	result, err := s.requestService.CreateAccountRequest(c.UserContext(), service.AccountRequestInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Role:      req.Role,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"result": result})
}

// ActivateAccount handles POST /api/accountRequests/activate
// @Summary Activate an approved request
// @Description Completes an approved request with its activation code and creates the account.
// @Tags account-requests
// @Accept json
// @Produce json
// @Param request body object{email=string,code=string,username=string,password=string,firstName=string,lastName=string,gender=string,birthday=string,contactNumber=string} true "Activation"
// @Success 200 {object} object{id=int,message=string,username=string,role=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /accountRequests/activate [post]
func (s *Server) ActivateAccount(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
		registrationBody
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	reg, err := req.toRegistration()
	if err != nil {
		return respondError(c, err)
	}

	account, err := s.requestService.ActivateAccount(c.UserContext(), req.Email, req.Code, reg)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"id":       account.ID,
		"message":  "Account activated",
		"username": account.Username,
		"role":     account.Role,
	})
}

// ListAccountRequests handles GET /api/accountRequests
// @Summary List account requests
// @Tags account-requests
// @Produce json
// @Param status query string false "Status filter"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset"
// @Success 200 {array} models.AccountRequest
// @Failure 403 {object} models.ErrorResponse
// @Router /accountRequests [get]
// @Security BearerAuth
func (s *Server) ListAccountRequests(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	reqs, err := s.requestService.ListAccountRequests(c.UserContext(), subjectOf(c), c.Query("status"), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	if reqs == nil {
		reqs = []models.AccountRequest{}
	}
	return c.JSON(reqs)
}

// GetAccountRequest handles GET /api/accountRequests/:id
// @Summary Get an account request
// @Tags account-requests
// @Produce json
// @Param id path int true "Request ID"
// @Success 200 {object} models.AccountRequest
// @Failure 404 {object} models.ErrorResponse
// @Router /accountRequests/{id} [get]
// @Security BearerAuth
func (s *Server) GetAccountRequest(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	req, err := s.requestService.GetAccountRequest(c.UserContext(), subjectOf(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(req)
}

// UpdateAccountRequest handles PUT /api/accountRequests/:id
// @Summary Edit an open account request
// @Tags account-requests
// @Accept json
// @Produce json
// @Param id path int true "Request ID"
// @Param request body object{firstName=string,lastName=string,role=string} true "Changes"
// @Success 200 {object} models.AccountRequest
// @Failure 400 {object} models.ErrorResponse
// @Router /accountRequests/{id} [put]
// @Security BearerAuth
func (s *Server) UpdateAccountRequest(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var body accountRequestBody
	if err := parseBody(c, &body); err != nil {
		return nil
	}
	req, err := s.requestService.UpdateAccountRequest(c.UserContext(), subjectOf(c), id, service.AccountRequestUpdate{
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Role:      body.Role,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(req)
}

// ApproveAccountRequest handles POST /api/accountRequests/:id/approve
// @Summary Approve a pending request
// @Description Returns the activation code. It is only ever shown in this response and the email.
// @Tags account-requests
// @Produce json
// @Param id path int true "Request ID"
// @Success 200 {object} object{activationCode=string}
// @Failure 400 {object} models.ErrorResponse
// @Router /accountRequests/{id}/approve [post]
// @Security BearerAuth
func (s *Server) ApproveAccountRequest(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	code, err := s.requestService.ApproveAccountRequest(c.UserContext(), subjectOf(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"activationCode": code})
}

// DenyAccountRequest handles POST /api/accountRequests/:id/deny
// @Summary Deny a pending request
// @Tags account-requests
// @Accept json
// @Produce json
// @Param id path int true "Request ID"
// @Param request body object{reason=string} false "Denial reason"
// @Success 200 {object} models.AccountRequest
// @Failure 400 {object} models.ErrorResponse
// @Router /accountRequests/{id}/deny [post]
// @Security BearerAuth
func (s *Server) DenyAccountRequest(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if len(c.Body()) > 0 {
		if err := parseBody(c, &body); err != nil {
			return nil
		}
	}
	req, err := s.requestService.DenyAccountRequest(c.UserContext(), subjectOf(c), id, body.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(req)
}

// ResendActivationCode handles POST /api/accountRequests/:id/resend
// @Summary Issue a fresh activation code
// @Description Replaces the code on an approved request and resets its attempt counter.
// @Tags account-requests
// @Produce json
// @Param id path int true "Request ID"
// @Success 200 {object} object{activationCode=string}
// @Failure 400 {object} models.ErrorResponse
// @Router /accountRequests/{id}/resend [post]
// @Security BearerAuth
func (s *Server) ResendActivationCode(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	code, err := s.requestService.ResendActivationCode(c.UserContext(), subjectOf(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"activationCode": code})
}
