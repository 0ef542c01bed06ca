package server

import (
	"careline/internal/models"
	"careline/internal/service"

	"github.com/gofiber/fiber/v2"
)

// registerRecordRoutes mounts list/get/create/update/delete for one kind of
// resident record under r, which carries the :residentId param.
func registerRecordRoutes[T any](r fiber.Router, svc *service.ResidentRecordService[T], wrap func(fiber.Handler) fiber.Handler) {
	h := recordHandlers[T]{svc: svc}
	r.Get("/", wrap(h.list))
	r.Post("/", wrap(h.create))
	r.Get("/:id", wrap(h.get))
	r.Put("/:id", wrap(h.update))
	r.Delete("/:id", wrap(h.delete))
}

type recordHandlers[T any] struct {
	svc *service.ResidentRecordService[T]
}

func (h recordHandlers[T]) list(c *fiber.Ctx) error {
	residentID, err := parseID(c, "residentId")
	if err != nil {
		return nil
	}
	recs, err := h.svc.List(c.UserContext(), subjectOf(c), residentID)
	if err != nil {
		return respondError(c, err)
	}
	if recs == nil {
		recs = []T{}
	}
	return c.JSON(recs)
}

func (h recordHandlers[T]) get(c *fiber.Ctx) error {
	residentID, err := parseID(c, "residentId")
	if err != nil {
		return nil
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	rec, err := h.svc.Get(c.UserContext(), subjectOf(c), residentID, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rec)
}

func (h recordHandlers[T]) create(c *fiber.Ctx) error {
	residentID, err := parseID(c, "residentId")
	if err != nil {
		return nil
	}
	rec := new(T)
	if err := parseBody(c, rec); err != nil {
		return nil
	}
	created, err := h.svc.Create(c.UserContext(), subjectOf(c), residentID, rec)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h recordHandlers[T]) update(c *fiber.Ctx) error {
	residentID, err := parseID(c, "residentId")
	if err != nil {
		return nil
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	rec := new(T)
	if err := parseBody(c, rec); err != nil {
		return nil
	}
	updated, err := h.svc.Update(c.UserContext(), subjectOf(c), residentID, id, rec)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(updated)
}

func (h recordHandlers[T]) delete(c *fiber.Ctx) error {
	residentID, err := parseID(c, "residentId")
	if err != nil {
		return nil
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := h.svc.Delete(c.UserContext(), subjectOf(c), residentID, id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetCapability handles GET /api/residents/:residentId/capability
// @Summary Get a resident's capability profile
// @Tags residents
// @Produce json
// @Param residentId path int true "Resident ID"
// @Success 200 {object} models.Capability
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /residents/{residentId}/capability [get]
// @Security BearerAuth
func (s *Server) GetCapability(c *fiber.Ctx) error {
	residentID, err := parseID(c, "residentId")
	if err != nil {
		return nil
	}
	capability, err := s.capabilityService.Get(c.UserContext(), subjectOf(c), residentID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(capability)
}

// UpsertCapability handles PUT /api/residents/:residentId/capability
// @Summary Create or replace a resident's capability profile
// @Tags residents
// @Accept json
// @Produce json
// @Param residentId path int true "Resident ID"
// @Param request body models.Capability true "Profile"
// @Success 200 {object} models.Capability
// @Failure 403 {object} models.ErrorResponse
// @Router /residents/{residentId}/capability [put]
// @Security BearerAuth
func (s *Server) UpsertCapability(c *fiber.Ctx) error {
	residentID, err := parseID(c, "residentId")
	if err != nil {
		return nil
	}
	var body models.Capability
	if err := parseBody(c, &body); err != nil {
		return nil
	}
	capability, err := s.capabilityService.Upsert(c.UserContext(), subjectOf(c), residentID, &body)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(capability)
}
