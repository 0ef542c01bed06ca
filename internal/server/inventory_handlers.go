package server

import (
	"fmt"
	"time"

	"careline/internal/models"

	"github.com/gofiber/fiber/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ListSuppliers handles GET /api/inventory/suppliers
// @Summary List suppliers
// @Tags inventory
// @Produce json
// @Success 200 {array} models.Supplier
// @Failure 403 {object} models.ErrorResponse
// @Router /inventory/suppliers [get]
// @Security BearerAuth
func (s *Server) ListSuppliers(c *fiber.Ctx) error {
	suppliers, err := s.inventoryService.ListSuppliers(c.UserContext(), subjectOf(c))
	if err != nil {
		return respondError(c, err)
	}
	if suppliers == nil {
		suppliers = []models.Supplier{}
	}
	return c.JSON(suppliers)
}

// GetSupplier handles GET /api/inventory/suppliers/:id
// @Summary Get a supplier
// @Tags inventory
// @Produce json
// @Param id path int true "Supplier ID"
// @Success 200 {object} models.Supplier
// @Failure 404 {object} models.ErrorResponse
// @Router /inventory/suppliers/{id} [get]
// @Security BearerAuth
func (s *Server) GetSupplier(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	supplier, err := s.inventoryService.GetSupplier(c.UserContext(), subjectOf(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(supplier)
}

// CreateSupplier handles POST /api/inventory/suppliers
// @Summary Create a supplier
// @Tags inventory
// @Accept json
// @Produce json
// @Param request body models.Supplier true "Supplier"
// @Success 201 {object} models.Supplier
// @Failure 400 {object} models.ErrorResponse
// @Router /inventory/suppliers [post]
// @Security BearerAuth
func (s *Server) CreateSupplier(c *fiber.Ctx) error {
	var body models.Supplier
	if err := parseBody(c, &body); err != nil {
		return nil
	}
	supplier, err := s.inventoryService.CreateSupplier(c.UserContext(), subjectOf(c), &body)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(supplier)
}

// UpdateSupplier handles PUT /api/inventory/suppliers/:id
// @Summary Update a supplier
// @Tags inventory
// @Accept json
// @Produce json
// @Param id path int true "Supplier ID"
// @Param request body models.Supplier true "Supplier"
// @Success 200 {object} models.Supplier
// @Failure 400 {object} models.ErrorResponse
// @Router /inventory/suppliers/{id} [put]
// @Security BearerAuth
func (s *Server) UpdateSupplier(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var body models.Supplier
	if err := parseBody(c, &body); err != nil {
		return nil
	}
	supplier, err := s.inventoryService.UpdateSupplier(c.UserContext(), subjectOf(c), id, &body)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(supplier)
}

// DeleteSupplier handles DELETE /api/inventory/suppliers/:id
// @Summary Delete a supplier
// @Description Items supplied by it are kept and unlinked.
// @Tags inventory
// @Param id path int true "Supplier ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /inventory/suppliers/{id} [delete]
// @Security BearerAuth
func (s *Server) DeleteSupplier(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.inventoryService.DeleteSupplier(c.UserContext(), subjectOf(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListItems handles GET /api/inventory/items
// @Summary List inventory items
// @Tags inventory
// @Produce json
// @Param category query string false "MEDICATION or CONSUMABLE"
// @Success 200 {array} models.InventoryItem
// @Failure 403 {object} models.ErrorResponse
// @Router /inventory/items [get]
// @Security BearerAuth
func (s *Server) ListItems(c *fiber.Ctx) error {
	items, err := s.inventoryService.ListItems(c.UserContext(), subjectOf(c), c.Query("category"))
	if err != nil {
		return respondError(c, err)
	}
	if items == nil {
		items = []models.InventoryItem{}
	}
	return c.JSON(items)
}

// GetItem handles GET /api/inventory/items/:id
// @Summary Get an inventory item
// @Tags inventory
// @Produce json
// @Param id path int true "Item ID"
// @Success 200 {object} models.InventoryItem
// @Failure 404 {object} models.ErrorResponse
// @Router /inventory/items/{id} [get]
// @Security BearerAuth
func (s *Server) GetItem(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	item, err := s.inventoryService.GetItem(c.UserContext(), subjectOf(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

// CreateItem handles POST /api/inventory/items
// @Summary Create an inventory item
// @Tags inventory
// @Accept json
// @Produce json
// @Param request body models.InventoryItem true "Item"
// @Success 201 {object} models.InventoryItem
// @Failure 400 {object} models.ErrorResponse
// @Router /inventory/items [post]
// @Security BearerAuth
func (s *Server) CreateItem(c *fiber.Ctx) error {
	var body models.InventoryItem
	if err := parseBody(c, &body); err != nil {
		return nil
	}
	item, err := s.inventoryService.CreateItem(c.UserContext(), subjectOf(c), &body)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// UpdateItem handles PUT /api/inventory/items/:id
// @Summary Update an inventory item
// @Description Quantity is ignored; use the adjust endpoint to move stock.
// @Tags inventory
// @Accept json
// @Produce json
// @Param id path int true "Item ID"
// @Param request body models.InventoryItem true "Item"
// @Success 200 {object} models.InventoryItem
// @Failure 400 {object} models.ErrorResponse
// @Router /inventory/items/{id} [put]
// @Security BearerAuth
func (s *Server) UpdateItem(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var body models.InventoryItem
	if err := parseBody(c, &body); err != nil {
		return nil
	}
	item, err := s.inventoryService.UpdateItem(c.UserContext(), subjectOf(c), id, &body)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

// DeleteItem handles DELETE /api/inventory/items/:id
// @Summary Delete an inventory item
// @Tags inventory
// @Param id path int true "Item ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /inventory/items/{id} [delete]
// @Security BearerAuth
func (s *Server) DeleteItem(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.inventoryService.DeleteItem(c.UserContext(), subjectOf(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AdjustStock handles POST /api/inventory/items/:id/adjust
// @Summary Move stock in or out
// @Description Positive delta receives stock, negative withdraws. Stock never drops below zero.
// @Tags inventory
// @Accept json
// @Produce json
// @Param id path int true "Item ID"
// @Param request body object{delta=int} true "Adjustment"
// @Success 200 {object} models.InventoryItem
// @Failure 400 {object} models.ErrorResponse
// @Router /inventory/items/{id}/adjust [post]
// @Security BearerAuth
func (s *Server) AdjustStock(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var body struct {
		Delta int `json:"delta"`
	}
	if err := parseBody(c, &body); err != nil {
		return nil
	}
	item, err := s.inventoryService.AdjustStock(c.UserContext(), subjectOf(c), id, body.Delta)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

// LowStock handles GET /api/inventory/items/low-stock
// @Summary Items at or below their reorder level
// @Tags inventory
// @Produce json
// @Success 200 {array} models.InventoryItem
// @Router /inventory/items/low-stock [get]
// @Security BearerAuth
func (s *Server) LowStock(c *fiber.Ctx) error {
	items, err := s.inventoryService.LowStock(c.UserContext(), subjectOf(c))
	if err != nil {
		return respondError(c, err)
	}
	if items == nil {
		items = []models.InventoryItem{}
	}
	return c.JSON(items)
}

// ExportInventory handles GET /api/inventory/export
// @Summary Download the inventory as a spreadsheet
// @Tags inventory
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Failure 403 {object} models.ErrorResponse
// @Router /inventory/export [get]
// @Security BearerAuth
func (s *Server) ExportInventory(c *fiber.Ctx) error {
	data, err := s.inventoryService.Export(c.UserContext(), subjectOf(c))
	if err != nil {
		return respondError(c, err)
	}
	filename := fmt.Sprintf("inventory-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(data)
}
